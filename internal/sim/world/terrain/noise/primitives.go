package noise

import (
	"fmt"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

const (
	PrimitiveSimplex = "simplex"
	PrimitivePerlin  = "perlin"
	PrimitiveFlat    = "flat"
)

type simplex struct{ n opensimplex.Noise }

// NewSimplex returns OpenSimplex noise in [-1, 1].
func NewSimplex(seed int64) Primitive {
	return simplex{n: opensimplex.New(seed)}
}

func (s simplex) Noise2D(x, y float64) float64 { return s.n.Eval2(x, y) }

type classic struct{ p *perlin.Perlin }

// NewPerlin returns a single octave of classic Perlin noise; Field does the
// layering.
func NewPerlin(seed int64) Primitive {
	return classic{p: perlin.NewPerlin(2, 2, 1, seed)}
}

func (c classic) Noise2D(x, y float64) float64 { return c.p.Noise2D(x, y) }

// Flat is a constant height primitive.
type Flat float64

func (f Flat) Noise2D(float64, float64) float64 { return float64(f) }

// NewPrimitive resolves a primitive by name. An empty name selects simplex.
func NewPrimitive(name string, seed int64) (Primitive, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PrimitiveSimplex:
		return NewSimplex(seed), nil
	case PrimitivePerlin:
		return NewPerlin(seed), nil
	case PrimitiveFlat:
		return Flat(0), nil
	default:
		return nil, fmt.Errorf("noise: unknown primitive %q", name)
	}
}
