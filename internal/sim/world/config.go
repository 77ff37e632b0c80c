package world

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/feature/camera"
	"rovercraft.ai/internal/sim/world/feature/herd"
	"rovercraft.ai/internal/sim/world/feature/rover"
	"rovercraft.ai/internal/sim/world/terrain/noise"
	"rovercraft.ai/internal/sim/world/terrain/store"
)

// ErrInvalidConfig wraps every configuration rejected by New.
var ErrInvalidConfig = errors.New("invalid world config")

type Visibility struct {
	NearRadius float64 `json:"near_radius"`
	FarRadius  float64 `json:"far_radius"`
}

type Config struct {
	ID         string
	Seed       int64
	TickRateHz int

	// Primitive names the noise primitive: simplex, perlin or flat.
	Primitive  string
	Noise      noise.Params
	Terrain    store.Config
	Visibility Visibility
	Rover      rover.Config
	Herd       herd.Config
	Camera     camera.Config

	RoverStart mgl64.Vec3
}

func DefaultConfig() Config {
	return Config{
		ID:         "MARS",
		Seed:       1337,
		TickRateHz: 60,
		Primitive:  noise.PrimitiveSimplex,
		Noise:      noise.DefaultParams(),
		Terrain:    store.DefaultConfig(),
		Visibility: Visibility{NearRadius: 32, FarRadius: 128},
		Rover:      rover.DefaultConfig(),
		Herd:       herd.DefaultConfig(),
		Camera:     camera.DefaultConfig(),
		RoverStart: mgl64.Vec3{0, 25, 0},
	}
}

// normalized copies the world-level settings into the component configs.
func (c Config) normalized() Config {
	hz := float64(c.TickRateHz)
	c.Rover.TickRateHz = hz
	c.Herd.TickRateHz = hz
	c.Camera.TickRateHz = hz
	c.Rover.NearRadius = c.Visibility.NearRadius
	c.Rover.FarRadius = c.Visibility.FarRadius
	c.Herd.NearRadius = c.Visibility.NearRadius
	c.Herd.FarRadius = c.Visibility.FarRadius
	return c
}

func (c Config) Validate() error {
	if c.TickRateHz <= 0 || c.TickRateHz > 1000 {
		return fmt.Errorf("%w: tick_rate_hz must be in [1,1000], got %d", ErrInvalidConfig, c.TickRateHz)
	}
	n := c.normalized()
	checks := []func() error{
		n.Noise.Validate,
		n.Terrain.Validate,
		n.Rover.Validate,
		n.Herd.Validate,
		n.Camera.Validate,
		func() error {
			_, err := noise.NewPrimitive(n.Primitive, n.Seed)
			return err
		},
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
