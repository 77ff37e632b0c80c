package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/feature/camera"
	"rovercraft.ai/internal/sim/world/terrain/store"
)

// Snapshot is a read-only view of the session after a tick. Chunk meshes are
// shared with the store and must not be modified.
type Snapshot struct {
	Tick      uint64
	Rover     RoverSnapshot
	Camera    camera.State
	Chunks    []ChunkSnapshot
	Specimens []SpecimenSnapshot
	Score     int
	Captures  int
}

type RoverSnapshot struct {
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	Rotation        mgl64.Quat
	SurfaceRotation mgl64.Quat
	Tilt            float64
	Turning         int
	Boost           bool
	BoostRemaining  float64
	Grounded        bool
}

type ChunkSnapshot struct {
	Key       store.ChunkKey
	Center    mgl64.Vec3
	Bounds    store.Bounds
	Obstacles []store.Obstacle
	Mesh      store.Mesh
}

type SpecimenSnapshot struct {
	ID       uint64
	Kind     string
	Position mgl64.Vec3
	// Rotation is the full orientation: surface alignment over heading.
	Rotation  mgl64.Quat
	Size      float64
	Color     [4]float64
	Capturing bool
}

func (w *World) Snapshot() Snapshot {
	r := w.rover
	snap := Snapshot{
		Tick: w.tick.Load(),
		Rover: RoverSnapshot{
			Position:        r.Position,
			Velocity:        r.Velocity,
			Rotation:        r.Rotation,
			SurfaceRotation: r.SurfaceRotation,
			Tilt:            r.Tilt,
			Turning:         r.Turning,
			Boost:           r.Boost,
			BoostRemaining:  r.BoostRemaining,
			Grounded:        r.Grounded(),
		},
		Camera:   w.camera.State(),
		Score:    w.score.Value,
		Captures: w.score.Captures,
	}
	for _, ch := range w.terrain.Chunks() {
		obs := make([]store.Obstacle, len(ch.Obstacles))
		copy(obs, ch.Obstacles)
		snap.Chunks = append(snap.Chunks, ChunkSnapshot{
			Key:       ch.Key,
			Center:    ch.Center(),
			Bounds:    ch.Bounds,
			Obstacles: obs,
			Mesh:      ch.Mesh(),
		})
	}
	for _, sp := range w.herd.Specimens() {
		snap.Specimens = append(snap.Specimens, SpecimenSnapshot{
			ID:        sp.ID,
			Kind:      sp.Kind.String(),
			Position:  sp.Position,
			Rotation:  sp.SurfaceRotation.Mul(sp.Rotation),
			Size:      sp.Size[0],
			Color:     sp.Color,
			Capturing: sp.Capturing,
		})
	}
	return snap
}
