//go:build ebiten

package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"rovercraft.ai/internal/sim/world"
	"rovercraft.ai/internal/sim/world/logic/mathx"
	"rovercraft.ai/internal/sim/world/terrain/store"
)

// game steps the world once per ebiten tick and draws a top-down map.
type game struct {
	w         *world.World
	amplitude float64
	scale     float64
	width     int
	height    int

	paused bool
	tiles  map[store.ChunkKey]*ebiten.Image
	snap   world.Snapshot
	digest string
}

func newGame(w *world.World, amplitude, scale float64, width, height int) *game {
	return &game{
		w:         w,
		amplitude: amplitude,
		scale:     scale,
		width:     width,
		height:    height,
		tiles:     map[store.ChunkKey]*ebiten.Image{},
	}
}

func (g *game) input() world.Input {
	pressed := func(keys ...ebiten.Key) bool {
		for _, k := range keys {
			if ebiten.IsKeyPressed(k) {
				return true
			}
		}
		return false
	}
	return world.Input{
		Forward: pressed(ebiten.KeyW, ebiten.KeyArrowUp),
		Back:    pressed(ebiten.KeyS, ebiten.KeyArrowDown),
		Left:    pressed(ebiten.KeyA, ebiten.KeyArrowLeft),
		Right:   pressed(ebiten.KeyD, ebiten.KeyArrowRight),
		Boost:   pressed(ebiten.KeyShift, ebiten.KeySpace),
	}
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		p := g.snap.Rover.Position
		g.w.SpawnHerd(p[0], p[2]-20, 6)
	}
	if g.paused {
		return nil
	}
	_, g.digest = g.w.Step(g.input())
	g.snap = g.w.Snapshot()
	g.syncTiles()
	return nil
}

// syncTiles rasterizes new chunk meshes into height tiles and drops tiles of
// evicted chunks.
func (g *game) syncTiles() {
	resident := make(map[store.ChunkKey]bool, len(g.snap.Chunks))
	for _, ch := range g.snap.Chunks {
		resident[ch.Key] = true
		if g.tiles[ch.Key] != nil {
			continue
		}
		res := ch.Mesh.Resolution
		if res == 0 {
			continue
		}
		pix := make([]byte, 4*res*res)
		for v := 0; v < res*res; v++ {
			c := heightColor(ch.Mesh.Positions[3*v+1], g.amplitude)
			pix[4*v], pix[4*v+1], pix[4*v+2], pix[4*v+3] = c.R, c.G, c.B, c.A
		}
		img := ebiten.NewImage(res, res)
		img.WritePixels(pix)
		g.tiles[ch.Key] = img
	}
	for k, img := range g.tiles {
		if !resident[k] {
			img.Dispose()
			delete(g.tiles, k)
		}
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 20, G: 12, B: 10, A: 255})
	r := g.snap.Rover
	v := view{focusX: r.Position[0], focusZ: r.Position[2], scale: g.scale, w: g.width, h: g.height}

	for _, ch := range g.snap.Chunks {
		img := g.tiles[ch.Key]
		if img == nil {
			continue
		}
		size := ch.Bounds.Right - ch.Bounds.Left
		res := float64(ch.Mesh.Resolution)
		x, y := v.toScreen(ch.Bounds.Left, ch.Bounds.Top)
		op := &ebiten.DrawImageOptions{}
		// Lattice vertices sit on cell corners; stretch res pixels over the chunk.
		op.GeoM.Scale(size*g.scale/(res-1), size*g.scale/(res-1))
		op.GeoM.Translate(float64(x), float64(y))
		screen.DrawImage(img, op)
		for _, o := range ch.Obstacles {
			ox, oy := v.toScreen(o.Position[0], o.Position[2])
			vector.DrawFilledCircle(screen, ox, oy, float32(o.Radius*g.scale), color.RGBA{R: 40, G: 36, B: 34, A: 255}, true)
		}
	}

	for _, sp := range g.snap.Specimens {
		sx, sy := v.toScreen(sp.Position[0], sp.Position[2])
		c := rgba(sp.Color)
		if sp.Capturing {
			c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
		}
		vector.DrawFilledCircle(screen, sx, sy, float32(math.Max(1, sp.Size*g.scale/2)), c, true)
	}

	// Rover body and heading.
	cx, cy := v.toScreen(r.Position[0], r.Position[2])
	facing := r.SurfaceRotation.Mul(r.Rotation).Rotate(mathx.Forward)
	hx, hy := v.toScreen(r.Position[0]+facing[0]*3, r.Position[2]+facing[2]*3)
	body := color.RGBA{R: 240, G: 240, B: 240, A: 255}
	if !r.Grounded {
		body = color.RGBA{R: 150, G: 200, B: 255, A: 255}
	}
	vector.DrawFilledCircle(screen, cx, cy, float32(g.scale), body, true)
	vector.StrokeLine(screen, cx, cy, hx, hy, 2, color.RGBA{R: 255, G: 200, B: 40, A: 255}, true)

	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"tick %d  score %d (%d captured)\nspeed %.3f  boost %.0f%%  grounded %v\nchunks %d  specimens %d\nWASD/arrows drive, shift boosts, H spawns a herd, P pauses\n%s",
		g.snap.Tick, g.snap.Score, g.snap.Captures,
		r.Velocity.Len(), r.BoostRemaining, r.Grounded,
		len(g.snap.Chunks), len(g.snap.Specimens),
		shortDigest(g.digest),
	))
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
