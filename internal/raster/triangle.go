package raster

import (
	"math"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

// clipVertex is a vertex shader output.
type clipVertex struct {
	pos mathutil.Vec4
	v   gpu.Varyings
}

// pipeline is the fixed-function state for one DrawIndexed call.
type pipeline struct {
	fb         *FrameBuffer
	viewport   gpu.Rect
	cull       gputypes.CullMode
	blend      *gputypes.BlendState
	depthWrite bool
	kernel     gpu.Kernel
	uniforms   gpu.Uniforms
	sampler    gpu.Sampler
	stats      *Stats
}

// drawTriangle clips a clip-space triangle against the near plane and
// rasterizes the resulting fan.
func (p *pipeline) drawTriangle(a, b, c *clipVertex) {
	in := [3]*clipVertex{a, b, c}
	var poly [4]clipVertex
	n := 0
	for i := 0; i < 3; i++ {
		cur, next := in[i], in[(i+1)%3]
		dc, dn := cur.pos[2]+cur.pos[3], next.pos[2]+next.pos[3]
		if dc >= 0 {
			poly[n] = *cur
			n++
		}
		if (dc >= 0) != (dn >= 0) {
			poly[n] = lerpVertex(cur, next, dc/(dc-dn))
			n++
		}
	}
	for i := 1; i+1 < n; i++ {
		p.rasterize(&poly[0], &poly[i], &poly[i+1])
	}
}

func lerpVertex(a, b *clipVertex, t float64) clipVertex {
	var out clipVertex
	for i := range out.pos {
		out.pos[i] = a.pos[i] + (b.pos[i]-a.pos[i])*t
	}
	for i := range out.v {
		out.v[i] = a.v[i] + (b.v[i]-a.v[i])*t
	}
	return out
}

// windowVertex is a vertex after the perspective divide and viewport transform.
type windowVertex struct {
	x, y, z float64
	invW    float64
	v       *gpu.Varyings
}

func (p *pipeline) toWindow(c *clipVertex) windowVertex {
	invW := 1 / c.pos[3]
	vp := p.viewport
	return windowVertex{
		x:    float64(vp.X) + (c.pos[0]*invW+1)*0.5*float64(vp.Width),
		y:    float64(vp.Y) + (c.pos[1]*invW+1)*0.5*float64(vp.Height),
		z:    (c.pos[2]*invW + 1) * 0.5,
		invW: invW,
		v:    &c.v,
	}
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// topLeft reports whether the counter-clockwise edge a→b owns pixels
// centered exactly on it.
func topLeft(a, b *windowVertex) bool {
	return (a.y == b.y && b.x < a.x) || b.y < a.y
}

func covers(w float64, a, b *windowVertex) bool {
	return w > 0 || (w == 0 && topLeft(a, b))
}

// rasterize fills one triangle.
//
// This is the HOT PATH; the pixel loop allocates nothing.
func (p *pipeline) rasterize(c0, c1, c2 *clipVertex) {
	s0, s1, s2 := p.toWindow(c0), p.toWindow(c1), p.toWindow(c2)

	area := edge(s0.x, s0.y, s1.x, s1.y, s2.x, s2.y)
	if area == 0 || math.IsNaN(area) {
		return
	}
	front := area > 0
	if (p.cull == gputypes.CullModeBack && !front) || (p.cull == gputypes.CullModeFront && front) {
		return
	}
	if !front {
		s1, s2 = s2, s1
		area = -area
	}
	p.stats.Triangles++

	fb := p.fb
	vp := p.viewport
	minX := max(int(math.Floor(min(s0.x, s1.x, s2.x))), vp.X, 0)
	maxX := min(int(math.Ceil(max(s0.x, s1.x, s2.x))), vp.X+vp.Width, fb.Width)
	minY := max(int(math.Floor(min(s0.y, s1.y, s2.y))), vp.Y, 0)
	maxY := min(int(math.Ceil(max(s0.y, s1.y, s2.y))), vp.Y+vp.Height, fb.Height)
	invArea := 1 / area

	var vary gpu.Varyings
	for py := minY; py < maxY; py++ {
		cy := float64(py) + 0.5
		row := py * fb.Width
		for px := minX; px < maxX; px++ {
			cx := float64(px) + 0.5
			w0 := edge(s1.x, s1.y, s2.x, s2.y, cx, cy)
			w1 := edge(s2.x, s2.y, s0.x, s0.y, cx, cy)
			w2 := edge(s0.x, s0.y, s1.x, s1.y, cx, cy)
			if !covers(w0, &s1, &s2) || !covers(w1, &s2, &s0) || !covers(w2, &s0, &s1) {
				continue
			}
			l0, l1, l2 := w0*invArea, w1*invArea, w2*invArea

			z := l0*s0.z + l1*s1.z + l2*s2.z
			zi := row + px
			if z < 0 || z > 1 || z > fb.ZBuf[zi] {
				continue
			}

			q0, q1, q2 := l0*s0.invW, l1*s1.invW, l2*s2.invW
			norm := 1 / (q0 + q1 + q2)
			q0, q1, q2 = q0*norm, q1*norm, q2*norm
			for i := range vary {
				vary[i] = q0*s0.v[i] + q1*s1.v[i] + q2*s2.v[i]
			}

			color, discard := p.kernel.Fragment(p.uniforms, &vary, p.sampler)
			if discard {
				continue
			}
			p.stats.Fragments++
			if p.depthWrite {
				fb.ZBuf[zi] = z
			}
			blendPixel(fb.Color[zi*4:zi*4+4], color, p.blend)
		}
	}
}

// blendPixel writes src over the RGBA8 pixel dst. A nil state replaces.
func blendPixel(dst []uint8, src mathutil.Vec4, bs *gputypes.BlendState) {
	for i := range src {
		src[i] = math.Max(0, math.Min(1, src[i]))
	}
	if bs == nil {
		for i := range src {
			dst[i] = unorm8(src[i])
		}
		return
	}
	d := mathutil.Vec4{float64(dst[0]) / 255, float64(dst[1]) / 255, float64(dst[2]) / 255, float64(dst[3]) / 255}
	for c := 0; c < 4; c++ {
		comp := bs.Color
		if c == 3 {
			comp = bs.Alpha
		}
		if comp.Operation == gputypes.BlendOperationMin || comp.Operation == gputypes.BlendOperationMax {
			// Factors do not apply to min and max.
			dst[c] = unorm8(blendOp(comp.Operation, src[c], d[c]))
			continue
		}
		sf := blendFactor(comp.SrcFactor, src, d, c)
		df := blendFactor(comp.DstFactor, src, d, c)
		dst[c] = unorm8(blendOp(comp.Operation, src[c]*sf, d[c]*df))
	}
}

func blendFactor(f gputypes.BlendFactor, src, dst mathutil.Vec4, c int) float64 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorOne:
		return 1
	case gputypes.BlendFactorSrc:
		return src[c]
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - src[c]
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	case gputypes.BlendFactorDst:
		return dst[c]
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dst[c]
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst[3]
	case gputypes.BlendFactorSrcAlphaSaturated:
		if c == 3 {
			return 1
		}
		return math.Min(src[3], 1-dst[3])
	case gputypes.BlendFactorOneMinusConstant:
		// The blend constant is always transparent black.
		return 1
	}
	return 0
}

func blendOp(op gputypes.BlendOperation, s, d float64) float64 {
	switch op {
	case gputypes.BlendOperationSubtract:
		return s - d
	case gputypes.BlendOperationReverseSubtract:
		return d - s
	case gputypes.BlendOperationMin:
		return math.Min(s, d)
	case gputypes.BlendOperationMax:
		return math.Max(s, d)
	}
	return s + d
}
