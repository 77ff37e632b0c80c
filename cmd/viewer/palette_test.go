package main

import (
	"image/color"
	"math"
	"testing"
)

func TestHeightColorRange(t *testing.T) {
	low := heightColor(-10, 10)
	high := heightColor(10, 10)
	if low != (color.RGBA{R: 70, G: 32, B: 20, A: 255}) || high != (color.RGBA{R: 224, G: 160, B: 120, A: 255}) {
		t.Fatalf("low=%v high=%v", low, high)
	}
	if heightColor(1000, 10) != high || heightColor(-1000, 10) != low {
		t.Fatalf("colors not clamped")
	}
	if heightColor(math.NaN(), 10) != heightColor(0, 0) {
		t.Fatalf("NaN height not shaded as mid")
	}
}

func TestRGBA(t *testing.T) {
	if got := rgba([4]float64{1, 0, 0.5, 2}); got != (color.RGBA{R: 255, G: 0, B: 128, A: 255}) {
		t.Fatalf("got %v", got)
	}
}

func TestViewToScreen(t *testing.T) {
	v := view{focusX: 10, focusZ: -5, scale: 4, w: 800, h: 600}
	if x, y := v.toScreen(10, -5); x != 400 || y != 300 {
		t.Fatalf("focus maps to (%v,%v)", x, y)
	}
	if x, y := v.toScreen(11, -6); x != 404 || y != 296 {
		t.Fatalf("got (%v,%v)", x, y)
	}
}
