package store

import "github.com/go-gl/mathgl/mgl64"

var mathUp = mgl64.Vec3{0, 1, 0}
