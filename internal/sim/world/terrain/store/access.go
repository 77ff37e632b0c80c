package store

import (
	"fmt"
	"math"
	"sort"

	"rovercraft.ai/internal/sim/world/logic/mathx"
	"rovercraft.ai/internal/sim/world/terrain/noise"
)

// DiagonalFactor scales diagonal probe offsets so they land at roughly the
// same distance as cardinal ones.
const DiagonalFactor = 0.707

// Store owns the resident chunk set. It is not safe for concurrent use; the
// world loop is its only writer.
type Store struct {
	cfg    Config
	field  *noise.Field
	seed   int64
	chunks map[ChunkKey]*Chunk

	// OnCreate and OnEvict observe chunk lifecycle. They run synchronously.
	OnCreate func(*Chunk)
	OnEvict  func(*Chunk)
}

func New(cfg Config, field *noise.Field, seed int64) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if field == nil {
		return nil, fmt.Errorf("store: nil noise field")
	}
	return &Store{
		cfg:    cfg,
		field:  field,
		seed:   seed,
		chunks: map[ChunkKey]*Chunk{},
	}, nil
}

func (s *Store) Config() Config { return s.cfg }

func (s *Store) Len() int { return len(s.chunks) }

func (s *Store) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// Chunks returns the resident chunks ordered by key.
func (s *Store) Chunks() []*Chunk {
	keys := s.LoadedChunkKeys()
	out := make([]*Chunk, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.chunks[k])
	}
	return out
}

// KeyAt returns the grid cell containing (x, z).
func (s *Store) KeyAt(x, z float64) ChunkKey {
	size := float64(s.cfg.ChunkSize)
	return ChunkKey{CX: mathx.GridIndex(x, size), CZ: mathx.GridIndex(z, size)}
}

// BoundsOf returns the extents of the cell at k.
func (s *Store) BoundsOf(k ChunkKey) Bounds {
	size := float64(s.cfg.ChunkSize)
	left, right := mathx.GridSpan(k.CX, size)
	top, bottom := mathx.GridSpan(k.CZ, size)
	return Bounds{Top: top, Right: right, Bottom: bottom, Left: left}
}

// ChunkAt returns the resident chunk whose bounds contain (x, z), or nil.
func (s *Store) ChunkAt(x, z float64) *Chunk {
	ch, ok := s.chunks[s.KeyAt(x, z)]
	if !ok || !ch.Bounds.Contains(x, z) {
		return nil
	}
	return ch
}

// CreateChunk makes the cell at k resident. An already resident cell is
// returned as is.
func (s *Store) CreateChunk(k ChunkKey) *Chunk {
	if ch, ok := s.chunks[k]; ok {
		return ch
	}
	ch := s.generate(k)
	s.chunks[k] = ch
	if s.OnCreate != nil {
		s.OnCreate(ch)
	}
	return ch
}

// EnsureResident evicts chunks whose center lies farther than far from the
// reference point, then creates the cells under the reference point and under
// eight probes at distance near around it.
func (s *Store) EnsureResident(refX, refZ, near, far float64) {
	for _, k := range s.LoadedChunkKeys() {
		ch := s.chunks[k]
		if math.Hypot(ch.CenterX-refX, ch.CenterZ-refZ) > far {
			delete(s.chunks, k)
			if s.OnEvict != nil {
				s.OnEvict(ch)
			}
		}
	}

	d := near * DiagonalFactor
	probes := [...][2]float64{
		{refX, refZ},
		{refX - near, refZ},
		{refX + near, refZ},
		{refX, refZ - near},
		{refX, refZ + near},
		{refX - d, refZ - d},
		{refX + d, refZ + d},
		{refX + d, refZ - d},
		{refX - d, refZ + d},
	}
	for _, p := range probes {
		if s.ChunkAt(p[0], p[1]) == nil {
			s.CreateChunk(s.KeyAt(p[0], p[1]))
		}
	}
}
