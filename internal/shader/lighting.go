package shader

import (
	"math"

	"mii-renderer/internal/mathutil"
)

// Light is the scene's single directional light plus rim term.
type Light struct {
	Ambient  mathutil.Vec3
	Diffuse  mathutil.Vec3
	Specular mathutil.Vec3
	Dir      mathutil.Vec3
	RimColor mathutil.Vec3
	RimPower float64
}

// DefaultLight matches the avatar's reference lighting.
var DefaultLight = Light{
	Ambient:  grey(0.73),
	Diffuse:  grey(0.60),
	Specular: grey(0.70),
	Dir:      mathutil.Vec3{-0.4531539381, 0.4226179123, 0.7848858833}.Normalize(),
	RimColor: grey(0.3),
	RimPower: 2.0,
}

// BodyRimColor brightens the rim on body meshes.
var BodyRimColor = grey(0.4)

// Surface is the interpolated per-fragment geometry in view space.
type Surface struct {
	Normal  mathutil.Vec3
	Tangent mathutil.Vec3
	// Position is the view-space position; the eye vector points back to the origin.
	Position mathutil.Vec3
	// VertexColor drives the specular blend (r), strength (g) and rim width (a).
	VertexColor mathutil.Vec4
}

func blinnSpecular(l, n, eye mathutil.Vec3, power float64) float64 {
	return math.Pow(math.Max(mathutil.Reflect(l.Neg(), n).Dot(eye), 0), power)
}

func anisoSpecular(l, t, eye mathutil.Vec3, power float64) float64 {
	dotLT := l.Dot(t)
	dotVT := eye.Dot(t)
	dotLN := math.Sqrt(math.Max(1-dotLT*dotLT, 0))
	dotVR := dotLN*math.Sqrt(math.Max(1-dotVT*dotVT, 0)) - dotLT*dotVT
	return math.Pow(math.Max(dotVR, 0), power)
}

// Shade applies ambient, diffuse, specular and rim lighting to color.
// Alpha passes through.
func Shade(color mathutil.Vec4, l Light, m Material, s Surface) mathutil.Vec4 {
	n := s.Normal.Normalize()
	eye := s.Position.Neg().Normalize()

	ambient := l.Ambient.Mul(m.Ambient)
	d := math.Max(l.Dir.Dot(n), 0.1)
	diffuse := l.Diffuse.Mul(m.Diffuse).Scale(d)

	blinn := blinnSpecular(l.Dir, n, eye, m.SpecularPower)
	reflection, strength := blinn, 1.0
	if m.SpecularMode != SpecularBlinn {
		aniso := anisoSpecular(l.Dir, s.Tangent, eye, m.SpecularPower)
		blend := s.VertexColor[0]
		reflection = aniso*(1-blend) + blinn*blend
		strength = s.VertexColor[1]
	}
	specular := l.Specular.Mul(m.Specular).Scale(reflection * strength)

	rim := l.RimColor.Scale(math.Pow(s.VertexColor[3]*(1-math.Abs(n[2])), l.RimPower))

	rgb := ambient.Add(diffuse).Mul(color.XYZ()).Add(specular).Add(rim)
	return mathutil.Vec4{rgb[0], rgb[1], rgb[2], color[3]}
}
