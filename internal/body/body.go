package body

import (
	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/mathutil"
)

// Body holds the encoded body and pants draws. Only the bone palette
// changes between poses.
type Body struct {
	cmds []*evaluator.DrawCommand
}

// New builds the meshes. normalSnorm8 selects the 4×int8 normal layout
// instead of packed 10-10-10-2.
func New(normalSnorm8 bool) *Body {
	var top, bottom skinnedMesh
	for _, s := range torso {
		top.tube(s)
	}
	for _, s := range legs {
		bottom.tube(s)
	}
	return &Body{cmds: []*evaluator.DrawCommand{
		top.command(normalSnorm8, evaluator.ShapeBody, BodyColor),
		bottom.command(normalSnorm8, evaluator.ShapePants, PantsColor),
	}}
}

// Draw submits the body then the pants, skinned by sk.
func (b *Body) Draw(cb evaluator.ShaderCallback, sk *Skeleton) {
	for _, cmd := range b.cmds {
		cmd.Skin.Bones = sk.Bones()
		cb.Draw(cmd)
	}
}

// Accessory is a small stud worn on both sides of the head.
type Accessory struct {
	m   skinnedMesh
	cmd *evaluator.DrawCommand
}

// NewAccessory builds a stud of radius r head units in the given color.
func NewAccessory(normalSnorm8 bool, r float64, color evaluator.Color) *Accessory {
	a := &Accessory{}
	// An octahedron; every vertex rides the root bone so it is unskinned.
	dirs := []mathutil.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for _, x := range []int{0, 1} {
		for _, y := range []int{2, 3} {
			for _, z := range []int{4, 5} {
				n := dirs[x].Add(dirs[y]).Add(dirs[z]).Normalize()
				root := [2]Bone{BoneAllRoot, BoneAllRoot}
				w := [2]float64{1, 0}
				i := a.m.vertex(dirs[x].Scale(r), n, dirs[y], root, w)
				j := a.m.vertex(dirs[y].Scale(r), n, dirs[y], root, w)
				k := a.m.vertex(dirs[z].Scale(r), n, dirs[y], root, w)
				a.m.tri(i, j, k, n)
			}
		}
	}
	a.cmd = a.m.command(normalSnorm8, evaluator.ShapeCap, color)
	a.cmd.Skin = nil
	return a
}

// Matrices returns the model matrices of the left and right studs given
// the head model matrix.
func (a *Accessory) Matrices(head mathutil.Mat4, pt evaluator.PartsTransform) [2]mathutil.Mat4 {
	l, r := AccessoryMatrices(pt)
	return [2]mathutil.Mat4{mathutil.Mat4Mul(head, l), mathutil.Mat4Mul(head, r)}
}

// Draw submits one stud; the caller sets the model matrix first.
func (a *Accessory) Draw(cb evaluator.ShaderCallback) {
	cb.Draw(a.cmd)
}

// Height returns the posed distance from the ground to the top of the
// neck, in scene units.
func (sk *Skeleton) Height() float64 {
	return sk.World[BoneHead].MulPoint(mathutil.Vec3{})[1]
}
