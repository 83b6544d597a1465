package raster

import (
	"math"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/mathutil"
)

// Texture is an RGBA8 image addressed with row 0 at v = 0.
type Texture struct {
	Width   int
	Height  int
	Pix     []uint8
	Sampler gputypes.SamplerDescriptor
}

// Sample filters t at (u, v) using its sampler state.
func (t *Texture) Sample(u, v float64) mathutil.Vec4 {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return mathutil.Vec4{0, 0, 0, 1}
	}
	if t.Sampler.MinFilter == gputypes.FilterModeLinear || t.Sampler.MagFilter == gputypes.FilterModeLinear {
		return t.bilinear(u, v)
	}
	x := wrap(t.Sampler.AddressModeU, int(math.Floor(u*float64(t.Width))), t.Width)
	y := wrap(t.Sampler.AddressModeV, int(math.Floor(v*float64(t.Height))), t.Height)
	return t.texel(x, y)
}

func (t *Texture) texel(x, y int) mathutil.Vec4 {
	i := (y*t.Width + x) * 4
	p := t.Pix[i : i+4]
	return mathutil.Vec4{float64(p[0]) / 255, float64(p[1]) / 255, float64(p[2]) / 255, float64(p[3]) / 255}
}

func (t *Texture) bilinear(u, v float64) mathutil.Vec4 {
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5
	fx0, fy0 := math.Floor(fx), math.Floor(fy)
	dx, dy := fx-fx0, fy-fy0

	mu, mv := t.Sampler.AddressModeU, t.Sampler.AddressModeV
	x0 := wrap(mu, int(fx0), t.Width)
	x1 := wrap(mu, int(fx0)+1, t.Width)
	y0 := wrap(mv, int(fy0), t.Height)
	y1 := wrap(mv, int(fy0)+1, t.Height)

	c00 := t.texel(x0, y0).Scale((1 - dx) * (1 - dy))
	c10 := t.texel(x1, y0).Scale(dx * (1 - dy))
	c01 := t.texel(x0, y1).Scale((1 - dx) * dy)
	c11 := t.texel(x1, y1).Scale(dx * dy)
	return c00.Add(c10).Add(c01).Add(c11)
}

// wrap maps texel index i into [0, n) under mode. Undefined behaves as
// repeat.
func wrap(mode gputypes.AddressMode, i, n int) int {
	switch mode {
	case gputypes.AddressModeClampToEdge:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	case gputypes.AddressModeMirrorRepeat:
		i = mod(i, 2*n)
		if i >= n {
			return 2*n - 1 - i
		}
		return i
	default:
		return mod(i, n)
	}
}

func mod(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
