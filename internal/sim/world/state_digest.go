package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	w.digestRover(h, &tmp)
	w.digestChunks(h, &tmp)
	w.digestSpecimens(h, &tmp)
	digestWriteI64(h, &tmp, int64(w.score.Value))
	digestWriteI64(h, &tmp, int64(w.score.Captures))

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestRover(h hashWriter, tmp *[8]byte) {
	r := w.rover
	digestWriteVec(h, tmp, r.Position)
	digestWriteVec(h, tmp, r.Velocity)
	digestWriteQuat(h, tmp, r.Rotation)
	digestWriteQuat(h, tmp, r.SurfaceRotation)
	digestWriteF64(h, tmp, r.Tilt)
	digestWriteI64(h, tmp, int64(r.Turning))
	digestWriteF64(h, tmp, r.BoostRemaining)
	h.Write([]byte{boolByte(r.Boost), boolByte(r.Grounded())})
}

func (w *World) digestChunks(h hashWriter, tmp *[8]byte) {
	for _, ch := range w.terrain.Chunks() {
		digestWriteI64(h, tmp, int64(ch.Key.CX))
		digestWriteI64(h, tmp, int64(ch.Key.CZ))
		d := ch.Digest()
		h.Write(d[:])
	}
}

func (w *World) digestSpecimens(h hashWriter, tmp *[8]byte) {
	for _, sp := range w.herd.Specimens() {
		digestWriteU64(h, tmp, sp.ID)
		digestWriteI64(h, tmp, int64(sp.Kind))
		digestWriteVec(h, tmp, sp.Position)
		digestWriteVec(h, tmp, sp.StartPosition)
		digestWriteVec(h, tmp, sp.Size)
		digestWriteQuat(h, tmp, sp.Rotation)
		digestWriteQuat(h, tmp, sp.SurfaceRotation)
		h.Write([]byte{boolByte(sp.Panicked), boolByte(sp.Capturing), boolByte(sp.Target != nil)})
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func digestWriteVec(h hashWriter, tmp *[8]byte, v mgl64.Vec3) {
	for _, c := range v {
		digestWriteF64(h, tmp, c)
	}
}

func digestWriteQuat(h hashWriter, tmp *[8]byte, q mgl64.Quat) {
	digestWriteF64(h, tmp, q.W)
	digestWriteVec(h, tmp, q.V)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
