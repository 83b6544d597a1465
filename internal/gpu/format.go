package gpu

import "math"

// PackSnorm1010102 quantizes a vector into VertexFormatSnorm1010102.
func PackSnorm1010102(x, y, z, w float64) uint32 {
	return quantize(x, 511, 10) | quantize(y, 511, 10)<<10 | quantize(z, 511, 10)<<20 | quantize(w, 1, 2)<<30
}

// PackSnorm8x4 quantizes a vector into gputypes.VertexFormatSnorm8x4.
func PackSnorm8x4(x, y, z, w float64) [4]byte {
	return [4]byte{byte(quantize(x, 127, 8)), byte(quantize(y, 127, 8)), byte(quantize(z, 127, 8)), byte(quantize(w, 127, 8))}
}

func quantize(f, max float64, bits uint) uint32 {
	f = math.Max(-1, math.Min(1, f))
	return uint32(int32(math.Round(f*max))) & (1<<bits - 1)
}
