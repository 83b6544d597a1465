package mathutil

// Mat3 is a row-major 3×3 matrix.
type Mat3 [9]float64

func Mat3Identity() Mat3 { return Mat3Diag(1, 1, 1) }

func Mat3Diag(x, y, z float64) Mat3 {
	return Mat3{x, 0, 0, 0, y, 0, 0, 0, z}
}

// Mat3FromRows stacks three row vectors.
func Mat3FromRows(r0, r1, r2 Vec3) Mat3 {
	return Mat3{r0[0], r0[1], r0[2], r1[0], r1[1], r1[2], r2[0], r2[1], r2[2]}
}

// Row returns row i.
func (m Mat3) Row(i int) Vec3 { return Vec3{m[i*3], m[i*3+1], m[i*3+2]} }

// Col returns column j.
func (m Mat3) Col(j int) Vec3 { return Vec3{m[j], m[3+j], m[6+j]} }

// Mat3Mul returns a × b.
func Mat3Mul(a, b Mat3) Mat3 {
	var m Mat3
	for i := range 3 {
		r := a.Row(i)
		for j := range 3 {
			m[i*3+j] = r.Dot(b.Col(j))
		}
	}
	return m
}

// MulVec3 returns m × v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{m.Row(0).Dot(v), m.Row(1).Dot(v), m.Row(2).Dot(v)}
}

// Det is the scalar triple product of the rows.
func (m Mat3) Det() float64 {
	return m.Row(0).Dot(m.Row(1).Cross(m.Row(2)))
}

// Inverse returns m⁻¹, or the identity for a singular matrix. The
// columns of the inverse are the row cross products over the determinant.
func (m Mat3) Inverse() Mat3 {
	r0, r1, r2 := m.Row(0), m.Row(1), m.Row(2)
	c0, c1, c2 := r1.Cross(r2), r2.Cross(r0), r0.Cross(r1)
	det := r0.Dot(c0)
	if det == 0 {
		return Mat3Identity()
	}
	return Mat3FromRows(c0, c1, c2).Transpose().scale(1 / det)
}

func (m Mat3) Transpose() Mat3 {
	return Mat3FromRows(m.Col(0), m.Col(1), m.Col(2))
}

func (m Mat3) scale(s float64) Mat3 {
	for i := range m {
		m[i] *= s
	}
	return m
}
