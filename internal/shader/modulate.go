// Package shader owns the two avatar shading styles: the programs, the
// formulas they evaluate and the binder that feeds them uniforms.
package shader

import (
	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/mathutil"
)

// Modulate applies the fixed coloring formula for mode to a sampled texel.
// c holds the three color constants. Non-constant modes discard fragments
// whose resulting alpha is zero.
func Modulate(mode evaluator.ModulateMode, texel mathutil.Vec4, c [3]mathutil.Vec3) (out mathutil.Vec4, discard bool) {
	r, g, b, a := texel[0], texel[1], texel[2], texel[3]
	switch mode {
	case evaluator.ModulateConstant:
		return mathutil.Vec4{c[0][0], c[0][1], c[0][2], 1}, false
	case evaluator.ModulateTexture:
		out = texel
	case evaluator.ModulateRGBLayered:
		rgb := c[0].Scale(r).Add(c[1].Scale(g)).Add(c[2].Scale(b))
		out = mathutil.Vec4{rgb[0], rgb[1], rgb[2], a}
	case evaluator.ModulateAlpha:
		out = mathutil.Vec4{c[0][0], c[0][1], c[0][2], r}
	case evaluator.ModulateLuminanceAlpha:
		// Green carries luminance, red carries coverage.
		rgb := c[0].Scale(g)
		out = mathutil.Vec4{rgb[0], rgb[1], rgb[2], r}
	case evaluator.ModulateAlphaOpa:
		rgb := c[0].Scale(r)
		out = mathutil.Vec4{rgb[0], rgb[1], rgb[2], 1}
	default:
		out = texel
	}
	return out, out[3] == 0
}
