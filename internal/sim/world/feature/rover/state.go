package rover

import (
	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/logic/mathx"
)

// Input is the key state sampled for one tick.
type Input struct {
	Forward bool `json:"forward,omitempty"`
	Back    bool `json:"back,omitempty"`
	Left    bool `json:"left,omitempty"`
	Right   bool `json:"right,omitempty"`
	Boost   bool `json:"boost,omitempty"`
}

func (in Input) Directional() bool {
	return in.Forward || in.Back || in.Left || in.Right
}

type State struct {
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	Mass            float64
	Rotation        mgl64.Quat
	SurfaceRotation mgl64.Quat
	// SurfaceNormal is nil while airborne.
	SurfaceNormal  *mgl64.Vec3
	Turning        int
	Tilt           float64
	Boost          bool
	BoostRemaining float64
}

func NewState(position mgl64.Vec3, cfg Config) State {
	return State{
		Position:        position,
		Mass:            cfg.Mass,
		Rotation:        mgl64.QuatIdent(),
		SurfaceRotation: mgl64.QuatIdent(),
		BoostRemaining:  cfg.MaxBoost,
	}
}

func (s *State) Grounded() bool { return s.SurfaceNormal != nil }

// Orientation is the full body rotation: surface alignment applied over the
// heading.
func (s *State) Orientation() mgl64.Quat {
	return s.SurfaceRotation.Mul(s.Rotation)
}

// Facing is the unit direction the rover drives toward.
func (s *State) Facing() mgl64.Vec3 {
	return s.Orientation().Rotate(mathx.Forward)
}

func (s *State) Speed() float64 { return s.Velocity.Len() }
