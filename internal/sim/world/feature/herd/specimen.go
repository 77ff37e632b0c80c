package herd

import (
	"github.com/go-gl/mathgl/mgl64"
)

type Specimen struct {
	ID   uint64
	Kind Kind

	Position      mgl64.Vec3
	StartPosition mgl64.Vec3
	// Target is nil until a wander goal is picked.
	Target          *mgl64.Vec3
	Rotation        mgl64.Quat
	SurfaceRotation mgl64.Quat

	Size         mgl64.Vec3
	OriginalSize mgl64.Vec3
	Value        int
	Color        [4]float64
	IdleSpeed    float64
	PanicSpeed   float64

	Panicked  bool
	Capturing bool
}

func newSpecimen(id uint64, kind Kind, pos mgl64.Vec3, kc KindConfig) *Specimen {
	size := mgl64.Vec3{kc.Size, kc.Size, kc.Size}
	return &Specimen{
		ID:              id,
		Kind:            kind,
		Position:        pos,
		StartPosition:   pos,
		Rotation:        mgl64.QuatIdent(),
		SurfaceRotation: mgl64.QuatIdent(),
		Size:            size,
		OriginalSize:    size,
		Value:           kc.Value,
		Color:           kc.Color,
		IdleSpeed:       kc.IdleSpeed,
		PanicSpeed:      kc.PanicSpeed,
	}
}

func (s *Specimen) speed() float64 {
	if s.Panicked {
		return s.PanicSpeed
	}
	return s.IdleSpeed
}

// Score accumulates captured specimen values.
type Score struct {
	Value    int
	Captures int
	// Updated is set on every bump; readers clear it once they have shown
	// the new value.
	Updated bool
}

func (s *Score) Bump(value int) {
	s.Value += value
	s.Captures++
	s.Updated = true
}
