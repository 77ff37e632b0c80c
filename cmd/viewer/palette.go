package main

import (
	"image/color"
	"math"
)

// heightColor shades terrain from dark basalt to pale dust across
// [-amplitude, amplitude].
func heightColor(h, amplitude float64) color.RGBA {
	t := 0.5
	if amplitude > 0 {
		t = (h/amplitude + 1) / 2
	}
	if math.IsNaN(t) {
		t = 0.5
	}
	t = math.Max(0, math.Min(1, t))
	lerp := func(a, b uint8) uint8 { return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5) }
	return color.RGBA{R: lerp(70, 224), G: lerp(32, 160), B: lerp(20, 120), A: 255}
}

func rgba(c [4]float64) color.RGBA {
	ch := func(v float64) uint8 { return uint8(math.Max(0, math.Min(1, v))*255 + 0.5) }
	return color.RGBA{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: ch(c[3])}
}

// view maps the x/z plane onto the screen, centered on a focus point, with -z
// pointing up.
type view struct {
	focusX, focusZ float64
	scale          float64
	w, h           int
}

func (v view) toScreen(x, z float64) (float32, float32) {
	sx := (x-v.focusX)*v.scale + float64(v.w)/2
	sy := (z-v.focusZ)*v.scale + float64(v.h)/2
	return float32(sx), float32(sy)
}
