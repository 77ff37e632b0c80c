package store

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Config struct {
	ChunkSize       int     `json:"chunk_size"`
	Subdivisions    int     `json:"subdivisions"`
	MaxObstacles    int     `json:"max_obstacles"`
	MinObstacleSize float64 `json:"min_obstacle_size"`
	MaxObstacleSize float64 `json:"max_obstacle_size"`
	NormalOffset    float64 `json:"normal_offset"`
	// Workers > 1 samples chunk lattices on a worker pool.
	Workers int `json:"workers"`
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:       32,
		Subdivisions:    32,
		MaxObstacles:    5,
		MinObstacleSize: 0.5,
		MaxObstacleSize: 3,
		NormalOffset:    1,
		Workers:         1,
	}
}

func (c Config) Validate() error {
	if c.ChunkSize <= 0 || c.ChunkSize%2 != 0 {
		return fmt.Errorf("store: chunk_size must be a positive even number, got %d", c.ChunkSize)
	}
	if c.Subdivisions <= 0 || c.ChunkSize%c.Subdivisions != 0 {
		return fmt.Errorf("store: subdivisions must be a positive divisor of chunk_size, got %d", c.Subdivisions)
	}
	if c.MaxObstacles < 0 {
		return fmt.Errorf("store: max_obstacles must be >= 0, got %d", c.MaxObstacles)
	}
	if c.MinObstacleSize <= 0 || c.MaxObstacleSize < c.MinObstacleSize {
		return fmt.Errorf("store: obstacle size range [%v,%v] invalid", c.MinObstacleSize, c.MaxObstacleSize)
	}
	if 2*c.MaxObstacleSize >= float64(c.ChunkSize) {
		return fmt.Errorf("store: max_obstacle_size %v does not fit chunk_size %d", c.MaxObstacleSize, c.ChunkSize)
	}
	if !(c.NormalOffset > 0) || math.IsInf(c.NormalOffset, 0) {
		return fmt.Errorf("store: normal_offset must be > 0, got %v", c.NormalOffset)
	}
	if c.Workers < 0 {
		return fmt.Errorf("store: workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

// ChunkKey is the grid index of a chunk; its center is (CX, CZ)*ChunkSize.
type ChunkKey struct {
	CX int
	CZ int
}

func (k ChunkKey) String() string { return fmt.Sprintf("%d,%d", k.CX, k.CZ) }

// Bounds holds the axis-aligned extents of a chunk. Top and Bottom are z
// extents, Left and Right are x extents. A point is inside when
// Left <= x < Right and Top <= z < Bottom.
type Bounds struct {
	Top, Right, Bottom, Left float64
}

func (b Bounds) Contains(x, z float64) bool {
	return x >= b.Left && x < b.Right && z >= b.Top && z < b.Bottom
}

func (b Bounds) Overlaps(o Bounds) bool {
	return b.Left < o.Right && o.Left < b.Right && b.Top < o.Bottom && o.Top < b.Bottom
}

type Obstacle struct {
	Position mgl64.Vec3
	Radius   float64
}

// Sample is a cached lattice value.
type Sample struct {
	Height float64
	Normal mgl64.Vec3
}

// HeightSample is the result of a surface query. It is never stored.
type HeightSample struct {
	Height   float64
	Normal   mgl64.Vec3
	Tangent  mgl64.Vec3
	Binormal mgl64.Vec3
	Chunk    *Chunk
}

// Mesh is the renderable lattice of a chunk in world space. Positions and
// Normals are packed xyz triples; Indices wind counter-clockwise seen from +y.
type Mesh struct {
	Resolution int
	Positions  []float64
	Normals    []float64
	Indices    []uint32
}

type Chunk struct {
	Key       ChunkKey
	CenterX   float64
	CenterZ   float64
	Bounds    Bounds
	Obstacles []Obstacle

	mesh    Mesh
	samples map[[2]int]Sample
	hash    [32]byte
}

func (c *Chunk) Center() mgl64.Vec3 { return mgl64.Vec3{c.CenterX, 0, c.CenterZ} }

// Mesh returns the chunk lattice. The slices are shared and must not be
// modified.
func (c *Chunk) Mesh() Mesh { return c.mesh }

// Cached reports the memoized lattice value at (x, z), if any.
func (c *Chunk) Cached(x, z int) (Sample, bool) {
	s, ok := c.samples[[2]int{x, z}]
	return s, ok
}

func (c *Chunk) CachedLen() int { return len(c.samples) }

// Digest hashes the chunk geometry and obstacles. Chunks never change after
// creation, so the hash is computed once.
func (c *Chunk) Digest() [32]byte {
	if c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [8]byte
		f := func(v float64) {
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
			h.Write(tmp[:])
		}
		for _, v := range c.mesh.Positions {
			f(v)
		}
		for _, o := range c.Obstacles {
			f(o.Position[0])
			f(o.Position[1])
			f(o.Position[2])
			f(o.Radius)
		}
		copy(c.hash[:], h.Sum(nil))
	}
	return c.hash
}
