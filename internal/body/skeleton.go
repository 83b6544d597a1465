// Package body builds the skinned body that carries the avatar head: the
// bone hierarchy, per-bone scaling from the height and build sliders, and
// the torso and legs meshes.
package body

import (
	"fmt"
	"math"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/mathutil"
)

// Bone identifies one joint of the body rig.
type Bone int

const (
	BoneAllRoot Bone = iota
	BoneBody
	BoneSkeletonRoot
	BoneChest
	BoneArmL1
	BoneArmL2
	BoneWristL
	BoneElbowL
	BoneShoulderL
	BoneArmR1
	BoneArmR2
	BoneWristR
	BoneElbowR
	BoneShoulderR
	BoneHead
	BoneChest2
	BoneHip
	BoneFootL1
	BoneFootL2
	BoneAnkleL
	BoneKneeL
	BoneFootR1
	BoneFootR2
	BoneAnkleR
	BoneKneeR
	BoneCount
)

// NoParent marks a root bone in Parents.
const NoParent = 0xFFFF

// Parents is the rig hierarchy. Every parent precedes its children except
// the head, which hangs off the chest.
var Parents = [BoneCount]int{
	NoParent, 0, 0, 2, 3, 4, 5, 4, 4, 3, 9, 10, 9, 9, 3, 2, 2, 16, 17, 18, 17, 16, 21, 22, 21,
}

// bindPositions is the rest pose in scene units, feet on the ground.
var bindPositions = [BoneCount]mathutil.Vec3{
	BoneAllRoot:      {0, 0, 0},
	BoneBody:         {0, 0, 0},
	BoneSkeletonRoot: {0, 3.6, 0},
	BoneChest:        {0, 4.2, 0},
	BoneArmL1:        {0.9, 5.9, 0},
	BoneArmL2:        {1.5, 4.9, 0},
	BoneWristL:       {2.0, 3.9, 0},
	BoneElbowL:       {1.5, 4.9, 0},
	BoneShoulderL:    {0.9, 5.9, 0},
	BoneArmR1:        {-0.9, 5.9, 0},
	BoneArmR2:        {-1.5, 4.9, 0},
	BoneWristR:       {-2.0, 3.9, 0},
	BoneElbowR:       {-1.5, 4.9, 0},
	BoneShoulderR:    {-0.9, 5.9, 0},
	BoneHead:         {0, 6.3, 0},
	BoneChest2:       {0, 5.2, 0},
	BoneHip:          {0, 3.6, 0},
	BoneFootL1:       {0.45, 3.3, 0},
	BoneFootL2:       {0.45, 1.8, 0},
	BoneAnkleL:       {0.45, 0.3, 0},
	BoneKneeL:        {0.45, 1.8, 0},
	BoneFootR1:       {-0.45, 3.3, 0},
	BoneFootR2:       {-0.45, 1.8, 0},
	BoneAnkleR:       {-0.45, 0.3, 0},
	BoneKneeR:        {-0.45, 1.8, 0},
}

// ScaleFactors converts the height and build sliders (0-127) into the body
// scale vector.
func ScaleFactors(height, build int) mathutil.Vec3 {
	h, b := float64(height), float64(build)
	x := (b*(h*0.003671875+0.4))/128 + h*0.001796875 + 0.4
	y := h*0.006015625 + 0.5
	return mathutil.Vec3{x, y, y}
}

// BoneScale returns the scale bone b receives from the body factors f.
// The three root bones are never scaled.
func BoneScale(b Bone, f mathutil.Vec3) mathutil.Vec3 {
	switch b {
	case BoneAllRoot, BoneBody, BoneSkeletonRoot:
		return mathutil.Vec3{1, 1, 1}
	case BoneChest, BoneChest2, BoneHip, BoneFootL1, BoneFootL2, BoneFootR1, BoneFootR2:
		return f
	case BoneArmL1, BoneArmL2, BoneElbowL, BoneArmR1, BoneArmR2, BoneElbowR:
		return mathutil.Vec3{f[1], f[0], f[2]}
	case BoneWristL, BoneShoulderL, BoneWristR, BoneShoulderR, BoneAnkleL, BoneKneeL, BoneAnkleR, BoneKneeR:
		return mathutil.Vec3{f[0], f[0], f[0]}
	case BoneHead:
		return mathutil.Vec3{f[0], math.Min(f[1], 1), f[2]}
	}
	panic(fmt.Sprintf("body: bone %d out of range", b))
}

// Skeleton is a posed rig.
type Skeleton struct {
	// World places each joint: translation to its posed position, then
	// its own scale.
	World [BoneCount]mathutil.Mat4
	// Skin maps bind-pose vertices to posed vertices.
	Skin [BoneCount]mathutil.Mat4
}

// Pose scales the rest pose by f. A child's offset from its parent is
// stretched by the parent's scale, so longer legs lift the torso.
func Pose(f mathutil.Vec3) *Skeleton {
	var posed [BoneCount]mathutil.Vec3
	var scales [BoneCount]mathutil.Vec3
	done := [BoneCount]bool{}
	var place func(b Bone)
	place = func(b Bone) {
		if done[b] {
			return
		}
		scales[b] = BoneScale(b, f)
		p := Parents[b]
		if p == NoParent {
			posed[b] = bindPositions[b]
		} else {
			place(Bone(p))
			offset := bindPositions[b].Sub(bindPositions[p])
			posed[b] = posed[p].Add(offset.Mul(scales[p]))
		}
		done[b] = true
	}

	sk := &Skeleton{}
	for b := range BoneCount {
		place(b)
		s := scales[b]
		sk.World[b] = mathutil.Mat4Mul(mathutil.Mat4Translate(posed[b]), mathutil.Mat4Scale(s[0], s[1], s[2]))
		sk.Skin[b] = mathutil.Mat4Mul(sk.World[b], mathutil.Mat4Translate(bindPositions[b].Neg()))
	}
	return sk
}

// HeadMatrix is the model matrix for the head, in head units, seated on
// the neck joint.
func (sk *Skeleton) HeadMatrix() mathutil.Mat4 {
	s := mathutil.HeadScale
	return mathutil.Mat4Mul(sk.World[BoneHead], mathutil.Mat4Scale(s, s, s))
}

// Bones returns the skinning palette.
func (sk *Skeleton) Bones() []mathutil.Mat4 {
	return sk.Skin[:]
}

// AccessoryMatrices places a pair of side accessories in head space. The
// right one mirrors the left across the head's YZ plane.
func AccessoryMatrices(pt evaluator.PartsTransform) (left, right mathutil.Mat4) {
	t, r := pt.HeadSideTranslate, pt.HeadSideRotate
	left = mathutil.Mat4Mul(mathutil.Mat4Translate(t), mathutil.Mat4RotateXYZ(r))
	right = mathutil.Mat4Mul(mathutil.Mat4Translate(mathutil.Vec3{-t[0], t[1], t[2]}), mathutil.Mat4RotateXYZ(r.Neg()))
	return left, right
}
