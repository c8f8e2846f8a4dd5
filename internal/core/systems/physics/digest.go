package physics

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// StateDigest hashes the kinematic state of every body in registration order.
// Two worlds fed the same inputs produce the same digest.
func (w *World) StateDigest() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 8*14)
	for _, b := range w.bodies {
		buf = buf[:0]
		buf = appendVec(buf, b.Position)
		buf = appendVec(buf, b.Velocity)
		buf = appendFloat(buf, b.Orientation.W)
		buf = appendVec(buf, b.Orientation.V)
		buf = appendVec(buf, b.AngularVelocity)
		if b.IsGrounded {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}

// StaticDigest hashes the static collider list in iteration order.
func (w *World) StaticDigest() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 8*6)
	for _, box := range w.statics.All() {
		buf = buf[:0]
		buf = appendVec(buf, box.Min)
		buf = appendVec(buf, box.Max)
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}

func appendVec(buf []byte, v Vec3) []byte {
	for _, c := range v {
		buf = appendFloat(buf, c)
	}
	return buf
}

func appendFloat(buf []byte, f float64) []byte {
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
}
