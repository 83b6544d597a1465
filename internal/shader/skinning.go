package shader

import "mii-renderer/internal/mathutil"

const (
	// MaxBones is the size of the bone matrix palette.
	MaxBones = 80
	// MaxInfluences is the number of bones that may affect one vertex.
	MaxInfluences = 4
)

// SkinVertex blends position and normal over up to four bone influences.
// Each normal goes through its bone's transpose-inverse before blending.
// Indexes outside bones are skipped.
func SkinVertex(pos mathutil.Vec4, normal mathutil.Vec3, ids, weights mathutil.Vec4, bones []mathutil.Mat4) (mathutil.Vec4, mathutil.Vec3) {
	var p mathutil.Vec4
	var n mathutil.Vec3
	for i := 0; i < MaxInfluences; i++ {
		id := int(ids[i])
		if id < 0 || id >= len(bones) {
			continue
		}
		w := weights[i]
		p = p.Add(bones[id].MulVec4(pos).Scale(w))
		n = n.Add(mathutil.NormalMatrix(bones[id]).MulVec3(normal).Scale(w))
	}
	return p, n.Normalize()
}
