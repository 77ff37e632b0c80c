package store

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/logic/mathx"
)

// Sample returns the interpolated surface at (x, z). ok is false when no
// resident chunk covers the point.
func (s *Store) Sample(x, z float64) (HeightSample, bool) {
	ch := s.ChunkAt(x, z)
	if ch == nil {
		return HeightSample{}, false
	}
	return s.sampleIn(ch, x, z), true
}

// sampleIn triangulates the unit lattice cell around (x, z). Cells are split
// along their (x1,z1)-(x2,z2) diagonal; both triangles contain that edge, so
// heights agree across it.
func (s *Store) sampleIn(ch *Chunk, x, z float64) HeightSample {
	x1 := int(math.Floor(x))
	z1 := int(math.Floor(z))
	x2, z2 := x1+1, z1+1
	xl := x - float64(x1)
	zl := z - float64(z1)

	vert := func(vx, vz int) mgl64.Vec3 {
		return mgl64.Vec3{float64(vx), s.EnsureSampled(ch, vx, vz).Height, float64(vz)}
	}

	var s1, tangent, binormal mgl64.Vec3
	if xl >= zl {
		s1 = vert(x1, z1)
		s2 := vert(x2, z1)
		s3 := vert(x2, z2)
		tangent = s1.Sub(s2)
		binormal = s3.Sub(s2)
	} else {
		s1 = vert(x2, z2)
		s2 := vert(x1, z2)
		s3 := vert(x1, z1)
		tangent = s2.Sub(s1)
		binormal = s2.Sub(s3)
	}
	tangent = mathx.SafeNormalize(tangent)
	binormal = mathx.SafeNormalize(binormal)
	normal := mathx.SafeNormalize(tangent.Cross(binormal))

	out := HeightSample{
		Normal:   normal,
		Tangent:  tangent,
		Binormal: binormal,
		Chunk:    ch,
	}
	if normal[1] < 1e-9 {
		out.Normal = mathx.Up
		out.Height = s1[1]
		return out
	}
	// Plane a·x + b·y + c·z + d = 0 through s1, solved for y.
	d := -normal.Dot(s1)
	out.Height = -(d + normal[0]*x + normal[2]*z) / normal[1]
	return out
}
