package store

import (
	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/logic/mathx"
)

// EnsureSampled returns the height and normal at lattice point (x, z),
// computing and memoizing them in ch on first use. Normal estimation reads
// the noise field directly and never re-enters the cache.
func (s *Store) EnsureSampled(ch *Chunk, x, z int) Sample {
	key := [2]int{x, z}
	if v, ok := ch.samples[key]; ok {
		return v
	}
	v := s.compute(x, z)
	ch.samples[key] = v
	return v
}

func (s *Store) compute(x, z int) Sample {
	fx, fz := float64(x), float64(z)
	return Sample{
		Height: s.field.Sample(fx, fz),
		Normal: s.estimateNormal(fx, fz),
	}
}

// estimateNormal combines cardinal and diagonal finite differences around
// (x, z).
func (s *Store) estimateNormal(x, z float64) mgl64.Vec3 {
	o := s.cfg.NormalOffset
	d := o * DiagonalFactor
	at := func(px, pz float64) mgl64.Vec3 {
		return mgl64.Vec3{px, s.field.Sample(px, pz), pz}
	}

	north, south := at(x, z-o), at(x, z+o)
	west, east := at(x-o, z), at(x+o, z)
	nw, se := at(x-d, z-d), at(x+d, z+d)
	sw, ne := at(x-d, z+d), at(x+d, z-d)

	cardinal := south.Sub(north).Cross(east.Sub(west))
	diagonal := se.Sub(nw).Cross(ne.Sub(sw))
	return mathx.NormalOrUp(cardinal.Add(diagonal))
}
