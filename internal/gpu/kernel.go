package gpu

import "mii-renderer/internal/mathutil"

// MaxVaryings is the number of interpolated scalars a kernel may emit.
const MaxVaryings = 16

// Varyings are interpolated across a primitive between the two stages.
type Varyings [MaxVaryings]float64

// Uniforms gives a kernel read access to the active program's values,
// addressed by the locations the kernel itself declared.
type Uniforms interface {
	Int(loc int) int32
	Float(loc int) float32
	Vec3(loc int) mathutil.Vec3
	Mat4(loc int) mathutil.Mat4
	Mat4Array(loc int) []mathutil.Mat4
}

// Sampler samples the texture bound to unit 0. Unbound units read (0,0,0,1).
type Sampler interface {
	Sample(u, v float64) mathutil.Vec4
}

// Kernel is a shader program the software backend can execute. Uniform and
// attribute locations are indexes into the returned name lists.
type Kernel interface {
	Uniforms() []string
	Attributes() []string
	// Vertex receives one fetched value per attribute; disabled slots read
	// (0, 0, 0, 1).
	Vertex(u Uniforms, attrs []mathutil.Vec4) (clip mathutil.Vec4, out Varyings)
	Fragment(u Uniforms, in *Varyings, tex Sampler) (color mathutil.Vec4, discard bool)
}

// Location returns the index of name in names, or -1.
func Location(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
