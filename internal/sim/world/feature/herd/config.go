package herd

import (
	"fmt"
	"math"
)

type Kind int

const (
	KindSmall Kind = iota
	KindLarge
)

func (k Kind) String() string {
	switch k {
	case KindSmall:
		return "SMALL"
	case KindLarge:
		return "LARGE"
	default:
		return fmt.Sprintf("KIND(%d)", int(k))
	}
}

// KindConfig holds the per-kind traits a specimen is created with.
type KindConfig struct {
	Value      int        `json:"value"`
	Size       float64    `json:"size"`
	IdleSpeed  float64    `json:"idle_speed"`
	PanicSpeed float64    `json:"panic_speed"`
	Color      [4]float64 `json:"color"`
}

type Config struct {
	TickRateHz float64 `json:"tick_rate_hz"`

	MaxSpecimens          int     `json:"max_specimens"`
	MinHerdSize           int     `json:"min_herd_size"`
	MaxHerdSize           int     `json:"max_herd_size"`
	MaxHerdRadius         float64 `json:"max_herd_radius"`
	InitialMinSpawnRadius float64 `json:"initial_min_spawn_radius"`
	InitialMaxSpawnRadius float64 `json:"initial_max_spawn_radius"`
	MinSpawnRadius        float64 `json:"min_spawn_radius"`
	MaxSpawnRadius        float64 `json:"max_spawn_radius"`
	DespawnRadius         float64 `json:"despawn_radius"`
	// A spawned specimen is Large when IntN(100) > LargeThreshold.
	LargeThreshold int     `json:"large_threshold"`
	PanicRadius    float64 `json:"panic_radius"`
	FleeDistance   float64 `json:"flee_distance"`
	CaptureDecay   float64 `json:"capture_decay"`
	MinSize        float64 `json:"min_size"`
	SurfaceBlend   float64 `json:"surface_blend"`

	Small KindConfig `json:"small"`
	Large KindConfig `json:"large"`

	// Residency radii around the rover, shared with the rover.
	NearRadius float64 `json:"near_radius"`
	FarRadius  float64 `json:"far_radius"`
}

func DefaultConfig() Config {
	return Config{
		TickRateHz:            60,
		MaxSpecimens:          100,
		MinHerdSize:           4,
		MaxHerdSize:           10,
		MaxHerdRadius:         8,
		InitialMinSpawnRadius: 32,
		InitialMaxSpawnRadius: 64,
		MinSpawnRadius:        64,
		MaxSpawnRadius:        96,
		DespawnRadius:         128,
		LargeThreshold:        80,
		PanicRadius:           10,
		FleeDistance:          64,
		CaptureDecay:          0.8,
		MinSize:               0.03,
		SurfaceBlend:          0.25,
		Small: KindConfig{
			Value:      1,
			Size:       1,
			IdleSpeed:  0.03,
			PanicSpeed: 0.10,
			Color:      [4]float64{0, 0, 1, 1},
		},
		Large: KindConfig{
			Value:      10,
			Size:       2,
			IdleSpeed:  0.03,
			PanicSpeed: 0.14,
			Color:      [4]float64{1, 0, 0, 1},
		},
		NearRadius: 32,
		FarRadius:  128,
	}
}

func (c Config) Kind(k Kind) KindConfig {
	if k == KindLarge {
		return c.Large
	}
	return c.Small
}

func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"tick_rate_hz":             c.TickRateHz,
		"max_herd_radius":          c.MaxHerdRadius,
		"initial_min_spawn_radius": c.InitialMinSpawnRadius,
		"initial_max_spawn_radius": c.InitialMaxSpawnRadius,
		"min_spawn_radius":         c.MinSpawnRadius,
		"max_spawn_radius":         c.MaxSpawnRadius,
		"despawn_radius":           c.DespawnRadius,
		"panic_radius":             c.PanicRadius,
		"flee_distance":            c.FleeDistance,
		"capture_decay":            c.CaptureDecay,
		"min_size":                 c.MinSize,
		"surface_blend":            c.SurfaceBlend,
		"near_radius":              c.NearRadius,
		"far_radius":               c.FarRadius,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("herd: %s must be finite and >= 0, got %v", name, v)
		}
	}
	switch {
	case c.TickRateHz <= 0:
		return fmt.Errorf("herd: tick_rate_hz must be > 0, got %v", c.TickRateHz)
	case c.MaxSpecimens < 0:
		return fmt.Errorf("herd: max_specimens must be >= 0, got %d", c.MaxSpecimens)
	case c.MinHerdSize <= 0 || c.MaxHerdSize < c.MinHerdSize:
		return fmt.Errorf("herd: herd size range [%d,%d] invalid", c.MinHerdSize, c.MaxHerdSize)
	case c.InitialMaxSpawnRadius < c.InitialMinSpawnRadius || c.MaxSpawnRadius < c.MinSpawnRadius:
		return fmt.Errorf("herd: spawn annulus invalid")
	case c.CaptureDecay <= 0 || c.CaptureDecay >= 1:
		return fmt.Errorf("herd: capture_decay must be in (0,1), got %v", c.CaptureDecay)
	case c.MinSize <= 0:
		return fmt.Errorf("herd: min_size must be > 0, got %v", c.MinSize)
	case c.SurfaceBlend <= 0 || c.SurfaceBlend > 1:
		return fmt.Errorf("herd: surface_blend must be in (0,1], got %v", c.SurfaceBlend)
	case c.NearRadius <= 0 || c.FarRadius < c.NearRadius:
		return fmt.Errorf("herd: visibility radii near=%v far=%v invalid", c.NearRadius, c.FarRadius)
	case c.LargeThreshold < -1 || c.LargeThreshold > 99:
		return fmt.Errorf("herd: large_threshold must be in [-1,99], got %d", c.LargeThreshold)
	}
	for _, k := range []Kind{KindSmall, KindLarge} {
		kc := c.Kind(k)
		if kc.Size <= 0 || kc.IdleSpeed < 0 || kc.PanicSpeed < 0 {
			return fmt.Errorf("herd: %s traits invalid: %+v", k, kc)
		}
	}
	return nil
}
