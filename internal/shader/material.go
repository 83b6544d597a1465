package shader

import (
	"fmt"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/mathutil"
)

// SpecularMode selects the specular reflectance model.
type SpecularMode int32

const (
	SpecularBlinn SpecularMode = iota
	SpecularAniso
)

// Material holds the per-class lighting response.
type Material struct {
	Ambient       mathutil.Vec3
	Diffuse       mathutil.Vec3
	Specular      mathutil.Vec3
	SpecularPower float64
	SpecularMode  SpecularMode
}

// Material table indexes past the evaluator's shape classes.
const (
	MaterialBody  = int(evaluator.ShapeMax)
	MaterialPants = MaterialBody + 1
	MaterialCount = MaterialPants + 1
)

func grey(v float64) mathutil.Vec3 { return mathutil.Vec3{v, v, v} }

// flatDecal is shared by the textured shapes (mask, noseline, glass).
var flatDecal = Material{grey(1), grey(0.7), grey(0), 40, SpecularAniso}

// Materials is indexed by shape class, then body and pants.
var Materials = [MaterialCount]Material{
	evaluator.ShapeFaceline: {mathutil.Vec3{0.85, 0.75, 0.75}, grey(0.75), grey(0.30), 1.2, SpecularBlinn},
	evaluator.ShapeBeard:    {grey(1), grey(0.7), grey(0), 40, SpecularAniso},
	evaluator.ShapeNose:     {mathutil.Vec3{0.90, 0.85, 0.85}, grey(0.75), grey(0.22), 1.5, SpecularBlinn},
	evaluator.ShapeForehead: {mathutil.Vec3{0.85, 0.75, 0.75}, grey(0.75), grey(0.30), 1.2, SpecularBlinn},
	evaluator.ShapeHair:     {grey(1), grey(0.70), grey(0.35), 10, SpecularAniso},
	evaluator.ShapeCap:      {grey(0.75), grey(0.72), grey(0.30), 1.5, SpecularBlinn},
	evaluator.ShapeMask:     flatDecal,
	evaluator.ShapeNoseline: flatDecal,
	evaluator.ShapeGlass:    flatDecal,
	MaterialBody:            {grey(0.95622), grey(0.496733), grey(0.2409), 3, SpecularBlinn},
	MaterialPants:           {grey(0.95622), grey(1.084967), grey(0.2409), 3, SpecularBlinn},
}

// MaterialIndex maps a surface class to its Materials slot.
func MaterialIndex(t evaluator.ModulateType) (int, bool) {
	switch {
	case t == evaluator.ShapeBody:
		return MaterialBody, true
	case t == evaluator.ShapePants:
		return MaterialPants, true
	case t >= 0 && t < evaluator.ShapeMax:
		return int(t), true
	}
	return 0, false
}

// LookupMaterial returns Materials[i]. An index outside the table is a
// contract violation between renderer and evaluator and panics.
func LookupMaterial(i int) Material {
	if i < 0 || i >= MaterialCount {
		panic(fmt.Sprintf("shader: material index %d out of range", i))
	}
	return Materials[i]
}
