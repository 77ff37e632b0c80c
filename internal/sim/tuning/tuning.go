// Package tuning loads tuning.yaml into a world configuration.
package tuning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"rovercraft.ai/internal/sim/world"
	"rovercraft.ai/internal/sim/world/feature/camera"
	"rovercraft.ai/internal/sim/world/feature/herd"
	"rovercraft.ai/internal/sim/world/feature/rover"
	"rovercraft.ai/internal/sim/world/terrain/noise"
	"rovercraft.ai/internal/sim/world/terrain/store"
)

const schemaURL = "https://rovercraft.ai/schemas/tuning.schema.json"

//go:embed tuning.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Tuning mirrors tuning.yaml. Sections reuse the component configs; keys that
// the file omits keep their defaults.
type Tuning struct {
	ID         string           `json:"id"`
	Seed       int64            `json:"seed"`
	TickRateHz int              `json:"tick_rate_hz"`
	RoverStart [3]float64       `json:"rover_start"`
	Noise      Noise            `json:"noise"`
	Terrain    store.Config     `json:"terrain"`
	Visibility world.Visibility `json:"visibility"`
	Rover      rover.Config     `json:"rover"`
	Herd       herd.Config      `json:"herd"`
	Camera     camera.Config    `json:"camera"`
}

type Noise struct {
	Primitive string `json:"primitive"`
	noise.Params
}

func Defaults() Tuning {
	return FromWorldConfig(world.DefaultConfig())
}

func FromWorldConfig(cfg world.Config) Tuning {
	return Tuning{
		ID:         cfg.ID,
		Seed:       cfg.Seed,
		TickRateHz: cfg.TickRateHz,
		RoverStart: [3]float64(cfg.RoverStart),
		Noise:      Noise{Primitive: cfg.Primitive, Params: cfg.Noise},
		Terrain:    cfg.Terrain,
		Visibility: cfg.Visibility,
		Rover:      cfg.Rover,
		Herd:       cfg.Herd,
		Camera:     cfg.Camera,
	}
}

func (t Tuning) WorldConfig() world.Config {
	return world.Config{
		ID:         t.ID,
		Seed:       t.Seed,
		TickRateHz: t.TickRateHz,
		Primitive:  t.Noise.Primitive,
		Noise:      t.Noise.Params,
		Terrain:    t.Terrain,
		Visibility: t.Visibility,
		Rover:      t.Rover,
		Herd:       t.Herd,
		Camera:     t.Camera,
		RoverStart: mgl64.Vec3(t.RoverStart),
	}
}

// Load reads path over Defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	if strings.TrimSpace(path) == "" {
		return Defaults(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	t, err := Parse(raw)
	if err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Parse decodes a YAML document, checks it against the tuning schema and
// validates the resulting world configuration.
func Parse(raw []byte) (Tuning, error) {
	t := Defaults()

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return t, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return t, fmt.Errorf("convert to json: %w", err)
	}

	s, err := compiledSchema()
	if err != nil {
		return t, fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(js, &v); err != nil {
		return t, err
	}
	if err := s.Validate(v); err != nil {
		return t, err
	}

	if err := json.Unmarshal(js, &t); err != nil {
		return t, err
	}
	if err := t.WorldConfig().Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// WriteJSON records the effective tuning next to a run's logs so the run can
// be replayed with the exact values applied.
func WriteJSON(path string, t Tuning) error {
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// LoadJSON reads a file written by WriteJSON.
func LoadJSON(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	if err := t.WorldConfig().Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}
