// Package camera keeps a third-person follow camera behind the rover.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/feature/rover"
	"rovercraft.ai/internal/sim/world/logic/mathx"
	"rovercraft.ai/internal/sim/world/terrain/store"
)

type Config struct {
	TickRateHz            float64 `json:"tick_rate_hz"`
	RestingHeight         float64 `json:"resting_height"`
	RestingDistance       float64 `json:"resting_distance"`
	SpeedHeightMultiplier float64 `json:"speed_height_multiplier"`
	SpeedTiltMultiplier   float64 `json:"speed_tilt_multiplier"`
	TiltSpeed             float64 `json:"tilt_speed"`
	RotationInertia       float64 `json:"rotation_inertia"`
	MovementInertia       float64 `json:"movement_inertia"`
	MinHeight             float64 `json:"min_height"`
}

func DefaultConfig() Config {
	return Config{
		TickRateHz:            60,
		RestingHeight:         2,
		RestingDistance:       7,
		SpeedHeightMultiplier: 4,
		SpeedTiltMultiplier:   2,
		TiltSpeed:             0.05,
		RotationInertia:       0.2,
		MovementInertia:       0.05,
		MinHeight:             0.5,
	}
}

func (c Config) Validate() error {
	if !(c.TickRateHz > 0) {
		return fmt.Errorf("camera: tick_rate_hz must be > 0, got %v", c.TickRateHz)
	}
	for name, v := range map[string]float64{
		"tilt_speed":       c.TiltSpeed,
		"rotation_inertia": c.RotationInertia,
		"movement_inertia": c.MovementInertia,
	} {
		if !(v > 0 && v <= 1) {
			return fmt.Errorf("camera: %s must be in (0,1], got %v", name, v)
		}
	}
	if c.RestingDistance < 0 || math.IsNaN(c.RestingDistance) {
		return fmt.Errorf("camera: resting_distance must be >= 0, got %v", c.RestingDistance)
	}
	return nil
}

type Terrain interface {
	Sample(x, z float64) (store.HeightSample, bool)
}

type State struct {
	Position   mgl64.Vec3 `json:"position"`
	FocalPoint mgl64.Vec3 `json:"focal_point"`
	Up         mgl64.Vec3 `json:"up"`
}

type Rig struct {
	cfg     Config
	terrain Terrain
	rover   *rover.State

	state  State
	placed bool
}

func NewRig(cfg Config, terrain Terrain, rv *rover.State) (*Rig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if terrain == nil || rv == nil {
		return nil, errors.New("camera: terrain and rover are required")
	}
	return &Rig{cfg: cfg, terrain: terrain, rover: rv, state: State{Up: mathx.Up}}, nil
}

func (r *Rig) State() State { return r.state }

// View returns the world-to-camera matrix.
func (r *Rig) View() mgl64.Mat4 {
	return mgl64.LookAtV(r.state.Position, r.state.FocalPoint, r.state.Up)
}

// Simulate eases the camera toward its resting spot behind the rover. The
// first call places it there directly.
func (r *Rig) Simulate(dt float64) {
	ticks := dt * r.cfg.TickRateHz
	if !(ticks > 0) || math.IsInf(ticks, 0) {
		return
	}
	rv := r.rover
	behind := rv.Rotation.Rotate(mathx.Forward).Mul(-r.cfg.RestingDistance)
	desired := rv.Position.Add(behind)
	speed := rv.Velocity.Len()

	if hs, ok := r.terrain.Sample(desired[0], desired[2]); ok {
		desired[1] = hs.Height + r.cfg.RestingHeight - speed*r.cfg.SpeedHeightMultiplier
		if floor := hs.Height + r.cfg.MinHeight; desired[1] < floor {
			desired[1] = floor
		}
	} else if r.placed {
		desired[1] = r.state.Position[1]
	} else {
		desired[1] = rv.Position[1] + r.cfg.RestingHeight
	}

	up := mathx.Up
	if rv.Turning != 0 {
		right := rv.Rotation.Rotate(mathx.Right)
		up = up.Add(right.Mul(r.cfg.SpeedTiltMultiplier * float64(-rv.Turning) * speed))
	}
	up = mathx.NormalOrUp(up)

	if !r.placed {
		r.state = State{Position: desired, FocalPoint: rv.Position, Up: up}
		r.placed = true
		return
	}
	r.state.Up = mathx.NormalOrUp(lerp(r.state.Up, up, mathx.Ease(r.cfg.TiltSpeed, ticks)))
	r.state.FocalPoint = lerp(r.state.FocalPoint, rv.Position, mathx.Ease(r.cfg.RotationInertia, ticks))
	r.state.Position = lerp(r.state.Position, desired, mathx.Ease(r.cfg.MovementInertia, ticks))
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
