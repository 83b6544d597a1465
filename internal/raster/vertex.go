package raster

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

// defaultAttrib is what a disabled or short slot reads.
var defaultAttrib = mathutil.Vec4{0, 0, 0, 1}

// formatSize returns the byte size of one element of f, or 0 if the
// rasterizer cannot decode it.
func formatSize(f gputypes.VertexFormat) int {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 4
	case gputypes.VertexFormatFloat32x2:
		return 8
	case gputypes.VertexFormatFloat32x3:
		return 12
	case gputypes.VertexFormatFloat32x4:
		return 16
	case gputypes.VertexFormatUint8x4, gputypes.VertexFormatUnorm8x4,
		gputypes.VertexFormatSnorm8x4, gpu.VertexFormatSnorm1010102:
		return 4
	case gputypes.VertexFormatUint16x4:
		return 8
	}
	return 0
}

// fetchAttrib decodes vertex i of a slot. Components the format lacks
// keep their (0, 0, 0, 1) defaults.
func fetchAttrib(data []byte, layout gpu.VertexLayout, i int) mathutil.Vec4 {
	size := formatSize(layout.Format)
	stride := layout.Stride
	if stride == 0 {
		stride = size
	}
	off := layout.Offset + i*stride
	if size == 0 || off < 0 || off+size > len(data) {
		return defaultAttrib
	}
	p := data[off : off+size]
	out := defaultAttrib

	switch layout.Format {
	case gputypes.VertexFormatFloat32, gputypes.VertexFormatFloat32x2,
		gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x4:
		for c := 0; c < size/4; c++ {
			out[c] = float64(math.Float32frombits(binary.LittleEndian.Uint32(p[c*4:])))
		}
	case gputypes.VertexFormatUint8x4:
		for c := 0; c < 4; c++ {
			out[c] = float64(p[c])
		}
	case gputypes.VertexFormatUnorm8x4:
		for c := 0; c < 4; c++ {
			out[c] = float64(p[c]) / 255
		}
	case gputypes.VertexFormatSnorm8x4:
		for c := 0; c < 4; c++ {
			out[c] = snorm(int32(int8(p[c])), 127)
		}
	case gputypes.VertexFormatUint16x4:
		for c := 0; c < 4; c++ {
			out[c] = float64(binary.LittleEndian.Uint16(p[c*2:]))
		}
	case gpu.VertexFormatSnorm1010102:
		return unpackSnorm1010102(binary.LittleEndian.Uint32(p))
	}
	return out
}

func snorm(v, max int32) float64 {
	return math.Max(float64(v)/float64(max), -1)
}

// signExtend interprets the low bits of v as a two's complement integer.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func unpackSnorm1010102(v uint32) mathutil.Vec4 {
	return mathutil.Vec4{
		snorm(signExtend(v, 10), 511),
		snorm(signExtend(v>>10, 10), 511),
		snorm(signExtend(v>>20, 10), 511),
		snorm(signExtend(v>>30, 2), 1),
	}
}
