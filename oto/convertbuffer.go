package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferToFloat32LE writes the samples as little-endian float32 into
// dst, which must have room for 4*len(samples) bytes.
func FloatBufferToFloat32LE(samples []float32, dst []byte) {
	for i, v := range samples {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
}
