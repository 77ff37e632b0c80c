package store

import (
	"golang.org/x/sync/errgroup"
)

type latticeJob struct {
	x, z int
	out  Sample
}

func (s *Store) generate(k ChunkKey) *Chunk {
	b := s.BoundsOf(k)
	ch := &Chunk{
		Key:     k,
		CenterX: (b.Left + b.Right) / 2,
		CenterZ: (b.Top + b.Bottom) / 2,
		Bounds:  b,
		samples: map[[2]int]Sample{},
	}
	s.sampleLattice(ch)
	s.spawnObstacles(ch)
	_ = ch.Digest()
	return ch
}

// sampleLattice fills the cache for every mesh vertex and builds the mesh.
func (s *Store) sampleLattice(ch *Chunk) {
	res := s.cfg.Subdivisions + 1
	step := s.cfg.ChunkSize / s.cfg.Subdivisions
	left := int(ch.Bounds.Left)
	top := int(ch.Bounds.Top)

	jobs := make([]latticeJob, res*res)
	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			jobs[j*res+i] = latticeJob{x: left + i*step, z: top + j*step}
		}
	}

	workers := s.cfg.Workers
	if workers > 1 {
		var g errgroup.Group
		g.SetLimit(workers)
		per := (len(jobs) + workers - 1) / workers
		for lo := 0; lo < len(jobs); lo += per {
			part := jobs[lo:min(lo+per, len(jobs))]
			g.Go(func() error {
				for i := range part {
					part[i].out = s.compute(part[i].x, part[i].z)
				}
				return nil
			})
		}
		_ = g.Wait()
		for _, j := range jobs {
			ch.samples[[2]int{j.x, j.z}] = j.out
		}
	} else {
		for i := range jobs {
			jobs[i].out = s.EnsureSampled(ch, jobs[i].x, jobs[i].z)
		}
	}

	m := Mesh{
		Resolution: res,
		Positions:  make([]float64, 0, 3*len(jobs)),
		Normals:    make([]float64, 0, 3*len(jobs)),
		Indices:    make([]uint32, 0, 6*(res-1)*(res-1)),
	}
	for _, j := range jobs {
		m.Positions = append(m.Positions, float64(j.x), j.out.Height, float64(j.z))
		m.Normals = append(m.Normals, j.out.Normal[0], j.out.Normal[1], j.out.Normal[2])
	}
	// Split each cell along its (x1,z1)-(x2,z2) diagonal, like Sample does.
	for j := 0; j < res-1; j++ {
		for i := 0; i < res-1; i++ {
			v11 := uint32(j*res + i)
			v21 := v11 + 1
			v12 := v11 + uint32(res)
			v22 := v12 + 1
			m.Indices = append(m.Indices, v11, v22, v21, v11, v12, v22)
		}
	}
	ch.mesh = m
}
