package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

var (
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, -1}
	Right   = mgl64.Vec3{1, 0, 0}
)

// SafeNormalize returns v scaled to unit length, or the zero vector when v
// has no usable direction.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// NormalOrUp normalizes n and falls back to Up for degenerate input.
func NormalOrUp(n mgl64.Vec3) mgl64.Vec3 {
	u := SafeNormalize(n)
	if u == (mgl64.Vec3{}) {
		return Up
	}
	return u
}

// Horizontal drops the y component.
func Horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], 0, v[2]}
}

func HorizontalDist(a, b mgl64.Vec3) float64 {
	dx := a[0] - b[0]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dz*dz)
}

// SurfaceBasis builds the rotation that maps local up to normal and local
// back (+z) toward binormal. The basis is re-orthogonalized because the
// triangle edges it comes from are not perpendicular on slopes.
func SurfaceBasis(binormal, tangent, normal mgl64.Vec3) mgl64.Quat {
	up := NormalOrUp(normal)
	back := SafeNormalize(binormal.Sub(up.Mul(binormal.Dot(up))))
	if back == (mgl64.Vec3{}) {
		// binormal parallel to the normal; derive back from the tangent instead
		right := SafeNormalize(tangent.Mul(-1).Sub(up.Mul(-tangent.Dot(up))))
		if right == (mgl64.Vec3{}) {
			return mgl64.QuatIdent()
		}
		back = right.Cross(up)
	}
	right := up.Cross(back)
	m := mgl64.Mat4FromCols(right.Vec4(0), up.Vec4(0), back.Vec4(0), mgl64.Vec4{0, 0, 0, 1})
	return mgl64.Mat4ToQuat(m).Normalize()
}

// Slerp interpolates along the shorter arc between a and b.
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, t).Normalize()
}

// Ease converts a per-tick blend factor k into the factor for a step of
// ticks, so n steps of 1/n ticks land where one full tick would.
func Ease(k, ticks float64) float64 {
	if ticks == 1 {
		return k
	}
	return 1 - math.Pow(1-k, ticks)
}

// YawToward returns the heading rotation about Up that turns Forward into the
// horizontal direction dir.
func YawToward(dir mgl64.Vec3) (mgl64.Quat, bool) {
	h := SafeNormalize(Horizontal(dir))
	if h == (mgl64.Vec3{}) {
		return mgl64.QuatIdent(), false
	}
	return mgl64.QuatRotate(math.Atan2(-h[0], -h[2]), Up), true
}

// RandomAround returns a point at distance from center in a random
// horizontal direction, keeping center's height.
func RandomAround(center mgl64.Vec3, distance, theta float64) mgl64.Vec3 {
	off := mgl64.QuatRotate(theta, Up).Rotate(Right.Mul(distance))
	return center.Add(off)
}
