package render

import (
	"encoding/binary"
	"math"
)

// Vertex attributes are stored little-endian, matching every backend the
// wgpu HAL supports.

// Float32Bytes packs v as little-endian float32 values.
func Float32Bytes(v []float32) []byte {
	out := make([]byte, 0, len(v)*4)
	for _, f := range v {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}

// BytesFloat32 unpacks little-endian float32 values. Trailing bytes that do
// not form a whole value are ignored.
func BytesFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
