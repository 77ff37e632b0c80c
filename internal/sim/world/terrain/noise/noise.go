// Package noise implements the layered height-field function terrain chunks
// are sampled from.
package noise

import (
	"fmt"
	"math"
)

// Params configures octave layering. Values are copied into a Field, so a
// Field never observes later edits.
type Params struct {
	Frequency   float64 `json:"frequency"`
	Amplitude   float64 `json:"amplitude"`
	Persistence float64 `json:"persistence"`
	Lacunarity  float64 `json:"lacunarity"`
	Octaves     int     `json:"octaves"`
}

func DefaultParams() Params {
	return Params{
		Frequency:   0.01,
		Amplitude:   10,
		Persistence: 0.5,
		Lacunarity:  2,
		Octaves:     4,
	}
}

func (p Params) Validate() error {
	if p.Octaves <= 0 {
		return fmt.Errorf("noise: octaves must be > 0, got %d", p.Octaves)
	}
	for name, v := range map[string]float64{
		"frequency":   p.Frequency,
		"amplitude":   p.Amplitude,
		"persistence": p.Persistence,
		"lacunarity":  p.Lacunarity,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("noise: %s must be finite, got %v", name, v)
		}
	}
	if p.Frequency <= 0 {
		return fmt.Errorf("noise: frequency must be > 0, got %v", p.Frequency)
	}
	if p.Lacunarity <= 0 {
		return fmt.Errorf("noise: lacunarity must be > 0, got %v", p.Lacunarity)
	}
	return nil
}

// Primitive is a single layer of 2D coherent noise. Implementations must be
// safe for concurrent use.
type Primitive interface {
	Noise2D(x, y float64) float64
}

// Field sums octaves of a Primitive. It holds no mutable state.
type Field struct {
	params Params
	prim   Primitive
}

func NewField(params Params, prim Primitive) (*Field, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if prim == nil {
		return nil, fmt.Errorf("noise: nil primitive")
	}
	return &Field{params: params, prim: prim}, nil
}

func (f *Field) Params() Params { return f.params }

// Sample returns the height at (x, z).
func (f *Field) Sample(x, z float64) float64 {
	freq := f.params.Frequency
	amp := f.params.Amplitude
	var value float64
	for i := 0; i < f.params.Octaves; i++ {
		value += f.prim.Noise2D(x*freq, z*freq) * amp
		freq *= f.params.Lacunarity
		amp *= f.params.Persistence
	}
	return value
}
