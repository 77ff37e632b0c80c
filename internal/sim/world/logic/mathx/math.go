package mathx

import "math"

// GridIndex returns the index of the grid cell of width size containing p.
// Cell i spans [i*size-size/2, i*size+size/2).
func GridIndex(p, size float64) int {
	return int(math.Floor((p + size/2) / size))
}

// GridSpan returns the half-open extent of cell i.
func GridSpan(i int, size float64) (lo, hi float64) {
	c := float64(i) * size
	return c - size/2, c + size/2
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}
