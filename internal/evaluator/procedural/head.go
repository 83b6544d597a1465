package procedural

import (
	"math"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/mathutil"
)

// Head proportions in head units. The head is an ellipsoid resting on the
// neck joint at the origin.
const (
	headCenterY = 17.0
	headRX      = 14.0
	headRY      = 18.0
	headRZ      = 13.0
	hairLift    = 1.2
	maskOffset  = 0.3
)

// Face regions covered by the baked textures.
var (
	facelineRect = rect{x0: -headRX, x1: headRX, y0: headCenterY - headRY, y1: headCenterY + headRY}
	maskRect     = rect{x0: -11, x1: 11, y0: 6, y1: 30}
)

// rect maps head-space XY onto decal UV, with v running top to bottom.
type rect struct{ x0, x1, y0, y1 float64 }

func (r rect) uv(p mathutil.Vec3) [2]float64 {
	return [2]float64{(p[0] - r.x0) / (r.x1 - r.x0), (r.y1 - p[1]) / (r.y1 - r.y0)}
}

// toHead is the inverse of uv at depth z.
func (r rect) toHead(u, v float64) (x, y float64) {
	return r.x0 + u*(r.x1-r.x0), r.y1 - v*(r.y1-r.y0)
}

var (
	skinVertexColor = [4]uint8{0, 0, 0, 255}
	hairVertexColor = [4]uint8{128, 255, 0, 255}
)

// ellipsoidPoint returns position, outward normal and the tangent along
// increasing theta on an ellipsoid with the given radii.
func ellipsoidPoint(theta, phi float64, r mathutil.Vec3) (p, n, t mathutil.Vec3) {
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	p = mathutil.Vec3{r[0] * st * sp, headCenterY + r[1]*ct, r[2] * st * cp}
	rel := p.Sub(mathutil.Vec3{0, headCenterY, 0})
	n = mathutil.Vec3{rel[0] / (r[0] * r[0]), rel[1] / (r[1] * r[1]), rel[2] / (r[2] * r[2])}.Normalize()
	t = mathutil.Vec3{r[0] * ct * sp, -r[1] * st, r[2] * ct * cp}
	return p, n, t
}

// frontZ is the ellipsoid surface depth at head-space (x, y).
func frontZ(x, y float64, lift float64) float64 {
	dx := x / (headRX + lift)
	dy := (y - headCenterY) / (headRY + lift)
	return (headRZ + lift) * math.Sqrt(math.Max(0, 1-dx*dx-dy*dy))
}

// geometry builds the head meshes for d. flipY selects the texcoord
// convention of the baked faceline and mask textures.
type geometry struct {
	d     *Descriptor
	flipY bool
}

func (g geometry) bakedUV(r rect) func(p mathutil.Vec3) [2]float64 {
	return func(p mathutil.Vec3) [2]float64 {
		uv := r.uv(p)
		if !g.flipY {
			uv[1] = 1 - uv[1]
		}
		return uv
	}
}

func (g geometry) faceline() *mesh {
	m := &mesh{}
	radii := mathutil.Vec3{headRX, headRY, headRZ}
	m.grid(24, 16, g.bakedUV(facelineRect), skinVertexColor, func(s, t float64) (p, n, tan mathutil.Vec3) {
		return ellipsoidPoint(t*math.Pi, s*2*math.Pi, radii)
	})
	return m
}

func (g geometry) hair() *mesh {
	m := &mesh{}
	radii := mathutil.Vec3{headRX + hairLift, headRY + hairLift, headRZ + hairLift}
	part := float64(g.d.HairType%7-3) * 0.03 * math.Pi
	mirror := 1.0
	if g.d.HairFlip {
		mirror = -1
	}
	noUV := func(mathutil.Vec3) [2]float64 { return [2]float64{} }
	m.grid(24, 8, noUV, hairVertexColor, func(s, t float64) (p, n, tan mathutil.Vec3) {
		phi := s * 2 * math.Pi
		limit := (0.33 + 0.29*(1-math.Cos(phi))/2) * math.Pi
		limit += part * math.Sin(phi) * mirror
		return ellipsoidPoint(t*limit, phi, radii)
	})
	return m
}

func (g geometry) mask() *mesh {
	m := &mesh{}
	radii := mathutil.Vec3{headRX, headRY, headRZ}
	m.grid(12, 12, g.bakedUV(maskRect), skinVertexColor, func(s, t float64) (p, n, tan mathutil.Vec3) {
		x, y := maskRect.toHead(s, t)
		z := frontZ(x, y, 0)
		rel := mathutil.Vec3{x, y - headCenterY, z}
		n = mathutil.Vec3{rel[0] / (radii[0] * radii[0]), rel[1] / (radii[1] * radii[1]), rel[2] / (radii[2] * radii[2])}.Normalize()
		return mathutil.Vec3{x, y, z}.Add(n.Scale(maskOffset)), n, mathutil.Vec3{1, 0, 0}
	})
	return m
}

// nose is a faceted wedge whose faces are shaded flat.
func (g geometry) nose() *mesh {
	s := 2 + float64(g.d.NoseScale)*0.3
	y := 16 - float64(g.d.NoseY)*0.3
	zf := frontZ(0, y, 0)
	tip := mathutil.Vec3{0, y - 0.2*s, zf + 0.8*s}
	left := mathutil.Vec3{-0.6 * s, y - 0.5*s, zf - 0.3}
	right := mathutil.Vec3{0.6 * s, y - 0.5*s, zf - 0.3}
	top := mathutil.Vec3{0, y + s, zf - 0.5}
	center := tip.Add(left).Add(right).Add(top).Scale(0.25)

	m := &mesh{}
	for _, f := range [][3]mathutil.Vec3{{tip, left, right}, {tip, right, top}, {tip, top, left}, {left, top, right}} {
		n := f[1].Sub(f[0]).Cross(f[2].Sub(f[0])).Normalize()
		out := f[0].Add(f[1]).Add(f[2]).Scale(1.0 / 3).Sub(center)
		if n.Dot(out) < 0 {
			n = n.Neg()
		}
		tan := f[1].Sub(f[0])
		a := m.vertex(f[0], [2]float64{}, n, tan, skinVertexColor)
		b := m.vertex(f[1], [2]float64{}, n, tan, skinVertexColor)
		c := m.vertex(f[2], [2]float64{}, n, tan, skinVertexColor)
		m.tri(a, b, c, out)
	}
	return m
}

// glass is a flat frame plane in front of the eyes, or nil when the
// descriptor has none.
func (g geometry) glass(eyeV float64) *mesh {
	if g.d.GlassType == 0 {
		return nil
	}
	w := 24 * (0.75 + float64(g.d.GlassScale)*0.03)
	h := w / 2
	_, cy := maskRect.toHead(0.5, eyeV)
	cy += float64(g.d.GlassY-10) * 0.3
	z := frontZ(0, cy, 0) + 1.5
	n := mathutil.Vec3{0, 0, 1}
	tan := mathutil.Vec3{1, 0, 0}
	m := &mesh{}
	a := m.vertex(mathutil.Vec3{-w / 2, cy + h/2, z}, [2]float64{0, 0}, n, tan, skinVertexColor)
	b := m.vertex(mathutil.Vec3{w / 2, cy + h/2, z}, [2]float64{1, 0}, n, tan, skinVertexColor)
	c := m.vertex(mathutil.Vec3{w / 2, cy - h/2, z}, [2]float64{1, 1}, n, tan, skinVertexColor)
	d := m.vertex(mathutil.Vec3{-w / 2, cy - h/2, z}, [2]float64{0, 1}, n, tan, skinVertexColor)
	m.quad(a, b, c, d)
	return m
}

// partsTransform places accessories on the head surface.
func (g geometry) partsTransform(eyeV float64) evaluator.PartsTransform {
	_, eyeY := maskRect.toHead(0.5, eyeV)
	return evaluator.PartsTransform{
		HatTranslate:       mathutil.Vec3{0, headCenterY + headRY + hairLift, 0},
		HeadFrontTranslate: mathutil.Vec3{0, eyeY, frontZ(0, eyeY, 0) + maskOffset},
		HeadSideTranslate:  mathutil.Vec3{headRX + 0.5, headCenterY - 1, 0},
		HeadSideRotate:     mathutil.Vec3{0, 0, math.Pi / 2},
	}
}
