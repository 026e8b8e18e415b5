package oto

import (
	"encoding/binary"
	"math"

	"github.com/opsix/opsix"
)

const bytesPerFrame = 8 // two float32 channels

// appendFloat32LE appends the frames of buffer to dst as interleaved
// little-endian float32 samples, reusing the capacity of dst.
func appendFloat32LE(dst []byte, buffer opsix.AudioBuffer) []byte {
	for _, frame := range buffer {
		for _, v := range frame {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
		}
	}
	return dst
}
