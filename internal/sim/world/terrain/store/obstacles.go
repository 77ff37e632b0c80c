package store

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/logic/mathx"
)

// spawnObstacles places 0..MaxObstacles spheres inside ch. Placement is
// drawn from a generator keyed by the cell, so contents do not depend on
// creation order. Obstacles may overlap each other and the chunk edge.
func (s *Store) spawnObstacles(ch *Chunk) {
	h := mathx.Hash2(s.seed, ch.Key.CX, ch.Key.CZ)
	rng := rand.New(rand.NewPCG(h, h^0x9e3779b97f4a7c15))

	count := rng.IntN(s.cfg.MaxObstacles + 1)
	if count == 0 {
		return
	}
	span := int(float64(s.cfg.ChunkSize) - 2*s.cfg.MaxObstacleSize)
	sizeSpan := int(s.cfg.MaxObstacleSize - s.cfg.MinObstacleSize)
	ch.Obstacles = make([]Obstacle, 0, count)
	for i := 0; i < count; i++ {
		x := ch.Bounds.Left + s.cfg.MaxObstacleSize + float64(intN(rng, span))
		z := ch.Bounds.Top + s.cfg.MaxObstacleSize + float64(intN(rng, span))
		r := s.cfg.MinObstacleSize + float64(intN(rng, sizeSpan))
		ch.Obstacles = append(ch.Obstacles, Obstacle{
			Position: mgl64.Vec3{x, s.sampleIn(ch, x, z).Height, z},
			Radius:   r,
		})
	}
}

func intN(rng *rand.Rand, n int) int {
	if n <= 0 {
		return 0
	}
	return rng.IntN(n)
}
