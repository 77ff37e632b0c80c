package herd

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/feature/rover"
	"rovercraft.ai/internal/sim/world/logic/mathx"
	"rovercraft.ai/internal/sim/world/terrain/store"
)

// Terrain is the surface specimens walk on. The herd keeps the rover's
// surroundings resident and adds the cells its specimens stand on.
type Terrain interface {
	EnsureResident(refX, refZ, near, far float64)
	KeyAt(x, z float64) store.ChunkKey
	BoundsOf(k store.ChunkKey) store.Bounds
	CreateChunk(k store.ChunkKey) *store.Chunk
	Sample(x, z float64) (store.HeightSample, bool)
}

type Behavior struct {
	cfg     Config
	terrain Terrain
	rover   *rover.State
	score   *Score
	rng     *rand.Rand

	nextID       uint64
	nextHerdSize int
	specimens    []*Specimen

	OnSpawn   func(*Specimen)
	OnCapture func(*Specimen)
	OnDespawn func(*Specimen)
}

func NewBehavior(cfg Config, terrain Terrain, rv *rover.State, score *Score, seed int64) (*Behavior, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if terrain == nil || rv == nil || score == nil {
		return nil, errors.New("herd: terrain, rover and score are required")
	}
	h := mathx.Hash2(seed, 0x68657264, 0)
	return &Behavior{
		cfg:     cfg,
		terrain: terrain,
		rover:   rv,
		score:   score,
		rng:     rand.New(rand.NewPCG(h, uint64(seed))),
		nextID:  1,
	}, nil
}

// Specimens returns the live specimens ordered by ID. The slice is a copy;
// the specimens are shared.
func (b *Behavior) Specimens() []*Specimen {
	out := make([]*Specimen, len(b.specimens))
	copy(out, b.specimens)
	return out
}

func (b *Behavior) Len() int      { return len(b.specimens) }
func (b *Behavior) Score() *Score { return b.score }

// SpawnHerd creates size specimens scattered within MaxHerdRadius of center.
func (b *Behavior) SpawnHerd(center mgl64.Vec3, size int) []*Specimen {
	out := make([]*Specimen, 0, size)
	for i := 0; i < size; i++ {
		pos := b.randomAround(center, b.cfg.MaxHerdRadius*b.rng.Float64())
		b.cover(pos)
		if hs, ok := b.terrain.Sample(pos[0], pos[2]); ok {
			pos[1] = hs.Height
		}
		kind := KindSmall
		if b.rng.IntN(100) > b.cfg.LargeThreshold {
			kind = KindLarge
		}
		sp := newSpecimen(b.nextID, kind, pos, b.cfg.Kind(kind))
		b.nextID++
		b.specimens = append(b.specimens, sp)
		out = append(out, sp)
		if b.OnSpawn != nil {
			b.OnSpawn(sp)
		}
	}
	return out
}

// Simulate advances every specimen by dt seconds.
func (b *Behavior) Simulate(dt float64) {
	ticks := dt * b.cfg.TickRateHz
	if !(ticks > 0) || math.IsInf(ticks, 0) {
		return
	}
	b.terrain.EnsureResident(b.rover.Position[0], b.rover.Position[2], b.cfg.NearRadius, b.cfg.FarRadius)
	b.populate()

	var despawn []*Specimen
	for _, sp := range b.specimens {
		if b.update(sp, ticks) {
			despawn = append(despawn, sp)
		}
	}
	decay := math.Pow(b.cfg.CaptureDecay, ticks)
	for _, sp := range b.specimens {
		if !sp.Capturing {
			continue
		}
		sp.Size = sp.Size.Mul(decay)
		if sp.Size[0] < b.cfg.MinSize {
			despawn = append(despawn, sp)
		}
	}
	if len(despawn) > 0 {
		b.remove(despawn)
	}
}

func (b *Behavior) populate() {
	minR, maxR := b.cfg.MinSpawnRadius, b.cfg.MaxSpawnRadius
	if len(b.specimens) == 0 {
		minR, maxR = b.cfg.InitialMinSpawnRadius, b.cfg.InitialMaxSpawnRadius
	}
	for len(b.specimens) < b.cfg.MaxSpecimens {
		if b.nextHerdSize == 0 {
			b.nextHerdSize = b.cfg.MinHerdSize
			if span := b.cfg.MaxHerdSize - b.cfg.MinHerdSize; span > 0 {
				b.nextHerdSize += b.rng.IntN(span)
			}
		}
		if len(b.specimens)+b.nextHerdSize >= b.cfg.MaxSpecimens {
			break
		}
		distance := minR + (maxR-minR)*b.rng.Float64()
		b.SpawnHerd(b.randomAround(b.rover.Position, distance), b.nextHerdSize)
		b.nextHerdSize = 0
	}
}

// update steers one specimen and reports whether it should despawn.
func (b *Behavior) update(sp *Specimen, ticks float64) bool {
	if sp.Capturing {
		return false
	}
	distance := sp.Position.Sub(b.rover.Position).Len()
	if distance < sp.Size[0] {
		sp.Capturing = true
		sp.Target = nil
		b.score.Bump(sp.Value)
		if b.OnCapture != nil {
			b.OnCapture(sp)
		}
		return false
	}
	if distance > b.cfg.DespawnRadius {
		return true
	}

	if distance < b.cfg.PanicRadius {
		away := mathx.SafeNormalize(mathx.Horizontal(b.rover.Position.Sub(sp.Position)))
		sp.StartPosition = sp.Position.Add(away.Mul(-b.cfg.FleeDistance))
		sp.Panicked = true
		sp.Target = nil
	}
	if sp.Target == nil {
		t := b.randomAround(sp.StartPosition, b.cfg.MaxHerdRadius*b.rng.Float64())
		sp.Target = &t
	}

	speed := sp.speed() * ticks
	dir := mathx.SafeNormalize(mathx.Horizontal(sp.Target.Sub(sp.Position)))
	sp.Position = sp.Position.Add(dir.Mul(speed))
	if yaw, ok := mathx.YawToward(dir); ok {
		sp.Rotation = yaw
	}
	if mathx.HorizontalDist(sp.Position, *sp.Target) <= speed {
		sp.Target = nil
	}

	hs, ok := b.terrain.Sample(sp.Position[0], sp.Position[2])
	if !ok {
		b.cover(sp.Position)
		hs, ok = b.terrain.Sample(sp.Position[0], sp.Position[2])
	}
	if ok {
		sp.Position[1] = hs.Height
		target := mathx.SurfaceBasis(hs.Binormal, hs.Tangent, hs.Normal)
		sp.SurfaceRotation = mathx.Slerp(sp.SurfaceRotation, target, mathx.Ease(b.cfg.SurfaceBlend, ticks))
	}
	return false
}

func (b *Behavior) remove(gone []*Specimen) {
	drop := make(map[uint64]struct{}, len(gone))
	for _, sp := range gone {
		drop[sp.ID] = struct{}{}
	}
	kept := b.specimens[:0]
	for _, sp := range b.specimens {
		if _, ok := drop[sp.ID]; ok {
			if b.OnDespawn != nil {
				b.OnDespawn(sp)
			}
			continue
		}
		kept = append(kept, sp)
	}
	for i := len(kept); i < len(b.specimens); i++ {
		b.specimens[i] = nil
	}
	b.specimens = kept
}

// cover makes the cell under pos resident when its center is within the far
// radius of the rover, so the next residency pass keeps it.
func (b *Behavior) cover(pos mgl64.Vec3) {
	k := b.terrain.KeyAt(pos[0], pos[2])
	bd := b.terrain.BoundsOf(k)
	cx, cz := (bd.Left+bd.Right)/2, (bd.Top+bd.Bottom)/2
	if math.Hypot(cx-b.rover.Position[0], cz-b.rover.Position[2]) > b.cfg.FarRadius {
		return
	}
	b.terrain.CreateChunk(k)
}

func (b *Behavior) randomAround(center mgl64.Vec3, distance float64) mgl64.Vec3 {
	return mathx.RandomAround(center, distance, b.rng.Float64()*2*math.Pi)
}
