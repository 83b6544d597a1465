package body

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

// Surface colors of the two body meshes.
var (
	BodyColor  = evaluator.Color{R: 0.094, G: 0.094, B: 0.078, A: 1}
	PantsColor = evaluator.Color{R: 0.439, G: 0.125, B: 0.063, A: 1}
)

// segment is a capped elliptic tube between two bind-pose points, blended
// from bone from to bone to along its length.
type segment struct {
	a, b     mathutil.Vec3
	rx, rz   float64
	from, to Bone
}

const (
	tubeSides = 10
	tubeRings = 4
)

var (
	torso = []segment{
		{mathutil.Vec3{0, 3.7, 0}, mathutil.Vec3{0, 6.1, 0}, 0.85, 0.5, BoneChest, BoneChest2},
		{mathutil.Vec3{0, 6.0, 0}, mathutil.Vec3{0, 6.4, 0}, 0.25, 0.25, BoneChest2, BoneChest2},
	}
	legs = []segment{
		{mathutil.Vec3{0, 3.2, 0}, mathutil.Vec3{0, 3.9, 0}, 0.8, 0.5, BoneHip, BoneHip},
	}
)

func init() {
	for _, side := range []struct {
		sign                      float64
		arm1, elbow, arm2, wrist  Bone
		foot1, knee, foot2, ankle Bone
	}{
		{1, BoneArmL1, BoneElbowL, BoneArmL2, BoneWristL, BoneFootL1, BoneKneeL, BoneFootL2, BoneAnkleL},
		{-1, BoneArmR1, BoneElbowR, BoneArmR2, BoneWristR, BoneFootR1, BoneKneeR, BoneFootR2, BoneAnkleR},
	} {
		x := func(v float64) float64 { return v * side.sign }
		torso = append(torso,
			segment{mathutil.Vec3{x(0.9), 5.9, 0}, mathutil.Vec3{x(1.5), 4.9, 0}, 0.25, 0.25, side.arm1, side.elbow},
			segment{mathutil.Vec3{x(1.5), 4.9, 0}, mathutil.Vec3{x(2.0), 3.9, 0}, 0.22, 0.22, side.arm2, side.wrist},
			segment{mathutil.Vec3{x(2.0), 3.9, 0}, mathutil.Vec3{x(2.1), 3.5, 0}, 0.25, 0.2, side.wrist, side.wrist},
		)
		legs = append(legs,
			segment{mathutil.Vec3{x(0.45), 3.4, 0}, mathutil.Vec3{x(0.45), 1.8, 0}, 0.35, 0.35, side.foot1, side.knee},
			segment{mathutil.Vec3{x(0.45), 1.8, 0}, mathutil.Vec3{x(0.45), 0.3, 0}, 0.3, 0.3, side.foot2, side.ankle},
			segment{mathutil.Vec3{x(0.45), 0.3, 0.1}, mathutil.Vec3{x(0.45), 0.05, 0.25}, 0.3, 0.4, side.ankle, side.ankle},
		)
	}
}

// skinnedMesh is a vertex list with two bone influences per vertex.
type skinnedMesh struct {
	pos, normal, tangent []mathutil.Vec3
	bones                [][2]Bone
	weights              [][2]float64
	indices              []uint16
}

func (m *skinnedMesh) vertex(p, n, t mathutil.Vec3, b [2]Bone, w [2]float64) uint16 {
	m.pos = append(m.pos, p)
	m.normal = append(m.normal, n)
	m.tangent = append(m.tangent, t)
	m.bones = append(m.bones, b)
	m.weights = append(m.weights, w)
	return uint16(len(m.pos) - 1)
}

// tri winds a, b, c counter-clockwise seen from out.
func (m *skinnedMesh) tri(a, b, c uint16, out mathutil.Vec3) {
	pa := m.pos[a]
	if m.pos[b].Sub(pa).Cross(m.pos[c].Sub(pa)).Dot(out) < 0 {
		b, c = c, b
	}
	m.indices = append(m.indices, a, b, c)
}

// basis returns two unit vectors perpendicular to axis.
func basis(axis mathutil.Vec3) (u, w mathutil.Vec3) {
	ref := mathutil.Vec3{0, 0, 1}
	if math.Abs(axis.Dot(ref)) > 0.9 {
		ref = mathutil.Vec3{1, 0, 0}
	}
	u = ref.Cross(axis).Normalize()
	w = axis.Cross(u).Normalize()
	return u, w
}

func (m *skinnedMesh) tube(s segment) {
	axis := s.b.Sub(s.a).Normalize()
	u, w := basis(axis)
	// Keep the elliptic radii aligned with the world X and Z axes where
	// the tube is vertical.
	if math.Abs(axis[1]) > 0.9 {
		u, w = mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 0, 1}
	}
	base := len(m.pos)
	for r := 0; r <= tubeRings; r++ {
		t := float64(r) / tubeRings
		center := s.a.Add(s.b.Sub(s.a).Scale(t))
		for k := range tubeSides {
			sin, cos := math.Sincos(2 * math.Pi * float64(k) / tubeSides)
			off := u.Scale(cos * s.rx).Add(w.Scale(sin * s.rz))
			n := u.Scale(cos / s.rx).Add(w.Scale(sin / s.rz)).Normalize()
			m.vertex(center.Add(off), n, axis, [2]Bone{s.from, s.to}, [2]float64{1 - t, t})
		}
	}
	at := func(r, k int) uint16 { return uint16(base + r*tubeSides + k%tubeSides) }
	for r := range tubeRings {
		for k := range tubeSides {
			a, b, c, d := at(r, k), at(r, k+1), at(r+1, k+1), at(r+1, k)
			out := m.normal[a].Add(m.normal[c])
			m.tri(a, b, c, out)
			m.tri(a, c, d, out)
		}
	}
	for _, end := range []struct {
		ring int
		p    mathutil.Vec3
		dir  mathutil.Vec3
		bone Bone
	}{{0, s.a, axis.Neg(), s.from}, {tubeRings, s.b, axis, s.to}} {
		c := m.vertex(end.p, end.dir, u, [2]Bone{end.bone, end.bone}, [2]float64{1, 0})
		for k := range tubeSides {
			m.tri(c, at(end.ring, k), at(end.ring, k+1), end.dir)
		}
	}
}

// command encodes m as a skinned draw of a flat colored surface.
func (m *skinnedMesh) command(normalSnorm8 bool, t evaluator.ModulateType, color evaluator.Color) *evaluator.DrawCommand {
	n := len(m.pos)
	var pos, nrm, tan, col, ids, weights []byte
	for i := range n {
		pos = appendFloats(pos, m.pos[i][0], m.pos[i][1], m.pos[i][2])
		nv := m.normal[i]
		if normalSnorm8 {
			p := gpu.PackSnorm8x4(nv[0], nv[1], nv[2], 0)
			nrm = append(nrm, p[:]...)
		} else {
			nrm = binary.LittleEndian.AppendUint32(nrm, gpu.PackSnorm1010102(nv[0], nv[1], nv[2], 0))
		}
		tv := m.tangent[i]
		p := gpu.PackSnorm8x4(tv[0], tv[1], tv[2], 0)
		tan = append(tan, p[:]...)
		col = append(col, 0, 0, 0, 255)
		b, w := m.bones[i], m.weights[i]
		ids = appendFloats(ids, float64(b[0]), float64(b[1]), 0, 0)
		weights = appendFloats(weights, w[0], w[1], 0, 0)
	}
	c := color
	cmd := &evaluator.DrawCommand{
		Cull:     evaluator.CullBack,
		Modulate: evaluator.ModulateParam{Mode: evaluator.ModulateConstant, Type: t, ColorR: &c},
		Topology: gputypes.PrimitiveTopologyTriangleList,
		Indices:  m.indices,
		Skin: &evaluator.Skin{
			BoneIDs:     evaluator.AttributeBuffer{Data: ids, Stride: 16},
			BoneWeights: evaluator.AttributeBuffer{Data: weights, Stride: 16},
		},
	}
	cmd.Attributes[evaluator.AttributePosition] = evaluator.AttributeBuffer{Data: pos, Stride: 12}
	cmd.Attributes[evaluator.AttributeNormal] = evaluator.AttributeBuffer{Data: nrm, Stride: 4}
	cmd.Attributes[evaluator.AttributeTangent] = evaluator.AttributeBuffer{Data: tan, Stride: 4}
	cmd.Attributes[evaluator.AttributeColor] = evaluator.AttributeBuffer{Data: col, Stride: 4}
	return cmd
}

func appendFloats(b []byte, vs ...float64) []byte {
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(v)))
	}
	return b
}
