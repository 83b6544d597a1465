package mathutil

import "math"

// Mat4 is a 4×4 matrix stored row-major and applied to column vectors (M × v).
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a × b.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// MulVec4 returns M × v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3]*v[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7]*v[3],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11]*v[3],
		m[12]*v[0] + m[13]*v[1] + m[14]*v[2] + m[15]*v[3],
	}
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

func Mat4Translate(t Vec3) Mat4 {
	return FromMat3Translation(Mat3Identity(), t)
}

func Mat4Scale(x, y, z float64) Mat4 {
	return FromMat3Translation(Mat3Diag(x, y, z), Vec3{})
}

// Mat4RotateXYZ rotates about X, then Y, then Z (angles in radians).
func Mat4RotateXYZ(a Vec3) Mat4 {
	r := Mat3Mul(RotZ(a[2]), Mat3Mul(RotY(a[1]), RotX(a[0])))
	return FromMat3Translation(r, Vec3{})
}

// Mat4Perspective is a right-handed GL projection mapping depth to [-1, 1].
func Mat4Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovy/2)
	nf := 1 / (near - far)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, 2 * far * near * nf,
		0, 0, -1, 0,
	}
}

// Mat4Ortho is the GL orthographic projection.
func Mat4Ortho(left, right, bottom, top, near, far float64) Mat4 {
	rl := right - left
	tb := top - bottom
	fn := far - near
	return Mat4{
		2 / rl, 0, 0, -(right + left) / rl,
		0, 2 / tb, 0, -(top + bottom) / tb,
		0, 0, -2 / fn, -(far + near) / fn,
		0, 0, 0, 1,
	}
}

// Mat4LookAt builds a right-handed view matrix.
func Mat4LookAt(eye, target, up Vec3) Mat4 {
	f := target.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)
	return Mat4{
		s[0], s[1], s[2], -s.Dot(eye),
		u[0], u[1], u[2], -u.Dot(eye),
		-f[0], -f[1], -f[2], f.Dot(eye),
		0, 0, 0, 1,
	}
}

func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[c*4+r] = m[r*4+c]
		}
	}
	return t
}

// Upper3 extracts the upper-left 3×3 block.
func (m Mat4) Upper3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// NormalMatrix returns transpose(inverse(mat3(m))).
func NormalMatrix(m Mat4) Mat3 {
	return m.Upper3().Inverse().Transpose()
}

// IsIdentity checks if the matrix is approximately identity.
func (m Mat4) IsIdentity() bool {
	id := Mat4Identity()
	for i := 0; i < 16; i++ {
		d := m[i] - id[i]
		if d > 1e-8 || d < -1e-8 {
			return false
		}
	}
	return true
}
