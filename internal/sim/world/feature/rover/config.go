package rover

import (
	"fmt"
	"math"
)

type Config struct {
	// TickRateHz is the nominal tick rate the per-tick constants below are
	// expressed in.
	TickRateHz float64 `json:"tick_rate_hz"`

	Mass                       float64 `json:"mass"`
	MovementForce              float64 `json:"movement_force"`
	BoostForceMultiplier       float64 `json:"boost_force_multiplier"`
	RotationSpeed              float64 `json:"rotation_speed"`
	BoostRotationMultiplier    float64 `json:"boost_rotation_multiplier"`
	VelocityRotationMultiplier float64 `json:"velocity_rotation_multiplier"`
	BoostDrain                 float64 `json:"boost_drain"`
	BoostRecharge              float64 `json:"boost_recharge"`
	MaxBoost                   float64 `json:"max_boost"`
	Gravity                    float64 `json:"gravity"`
	GroundFriction             float64 `json:"ground_friction"`
	MinVelocity                float64 `json:"min_velocity"`
	MaxVelocity                float64 `json:"max_velocity"`
	MaxBoostVelocity           float64 `json:"max_boost_velocity"`
	ImpactElasticity           float64 `json:"impact_elasticity"`
	TiltRate                   float64 `json:"tilt_rate"`
	SurfaceBlend               float64 `json:"surface_blend"`

	NearRadius float64 `json:"near_radius"`
	FarRadius  float64 `json:"far_radius"`
}

func DefaultConfig() Config {
	return Config{
		TickRateHz:                 60,
		Mass:                       10,
		MovementForce:              1.5,
		BoostForceMultiplier:       4,
		RotationSpeed:              0.05,
		BoostRotationMultiplier:    0.1,
		VelocityRotationMultiplier: 0.5,
		BoostDrain:                 1.5,
		BoostRecharge:              1,
		MaxBoost:                   100,
		Gravity:                    -0.5,
		GroundFriction:             0.05,
		MinVelocity:                0.02,
		MaxVelocity:                0.22,
		MaxBoostVelocity:           0.44,
		ImpactElasticity:           0.25,
		TiltRate:                   0.1,
		SurfaceBlend:               0.25,
		NearRadius:                 32,
		FarRadius:                  128,
	}
}

func (c Config) Validate() error {
	finite := map[string]float64{
		"tick_rate_hz":                 c.TickRateHz,
		"mass":                         c.Mass,
		"movement_force":               c.MovementForce,
		"boost_force_multiplier":       c.BoostForceMultiplier,
		"rotation_speed":               c.RotationSpeed,
		"boost_rotation_multiplier":    c.BoostRotationMultiplier,
		"velocity_rotation_multiplier": c.VelocityRotationMultiplier,
		"boost_drain":                  c.BoostDrain,
		"boost_recharge":               c.BoostRecharge,
		"max_boost":                    c.MaxBoost,
		"gravity":                      c.Gravity,
		"ground_friction":              c.GroundFriction,
		"min_velocity":                 c.MinVelocity,
		"max_velocity":                 c.MaxVelocity,
		"max_boost_velocity":           c.MaxBoostVelocity,
		"impact_elasticity":            c.ImpactElasticity,
		"tilt_rate":                    c.TiltRate,
		"surface_blend":                c.SurfaceBlend,
		"near_radius":                  c.NearRadius,
		"far_radius":                   c.FarRadius,
	}
	for name, v := range finite {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("rover: %s must be finite, got %v", name, v)
		}
	}
	switch {
	case c.TickRateHz <= 0:
		return fmt.Errorf("rover: tick_rate_hz must be > 0, got %v", c.TickRateHz)
	case c.Mass <= 0:
		return fmt.Errorf("rover: mass must be > 0, got %v", c.Mass)
	case c.MaxBoost <= 0:
		return fmt.Errorf("rover: max_boost must be > 0, got %v", c.MaxBoost)
	case c.MaxVelocity <= 0 || c.MaxBoostVelocity <= 0:
		return fmt.Errorf("rover: velocity caps must be > 0")
	case c.MinVelocity < 0:
		return fmt.Errorf("rover: min_velocity must be >= 0, got %v", c.MinVelocity)
	case c.GroundFriction < 0 || c.GroundFriction >= 0.5:
		return fmt.Errorf("rover: ground_friction must be in [0,0.5), got %v", c.GroundFriction)
	case c.TiltRate < 0 || c.TiltRate > 1:
		return fmt.Errorf("rover: tilt_rate must be in [0,1], got %v", c.TiltRate)
	case c.SurfaceBlend <= 0 || c.SurfaceBlend > 1:
		return fmt.Errorf("rover: surface_blend must be in (0,1], got %v", c.SurfaceBlend)
	case c.NearRadius <= 0 || c.FarRadius < c.NearRadius:
		return fmt.Errorf("rover: visibility radii near=%v far=%v invalid", c.NearRadius, c.FarRadius)
	}
	return nil
}
