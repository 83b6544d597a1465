package procedural

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

// mesh accumulates a triangle list before it is encoded into vertex streams.
type mesh struct {
	pos     []mathutil.Vec3
	uv      [][2]float64
	normal  []mathutil.Vec3
	tangent []mathutil.Vec3
	color   [][4]uint8
	indices []uint16
}

func (m *mesh) vertex(p mathutil.Vec3, uv [2]float64, n, t mathutil.Vec3, c [4]uint8) uint16 {
	m.pos = append(m.pos, p)
	m.uv = append(m.uv, uv)
	m.normal = append(m.normal, n)
	m.tangent = append(m.tangent, t)
	m.color = append(m.color, c)
	return uint16(len(m.pos) - 1)
}

// tri appends a triangle wound counter-clockwise when seen from the side
// facing along out.
func (m *mesh) tri(a, b, c uint16, out mathutil.Vec3) {
	pa, pb, pc := m.pos[a], m.pos[b], m.pos[c]
	if pb.Sub(pa).Cross(pc.Sub(pa)).Dot(out) < 0 {
		b, c = c, b
	}
	m.indices = append(m.indices, a, b, c)
}

// quad splits a grid cell into two triangles facing along the average
// vertex normal.
func (m *mesh) quad(a, b, c, d uint16) {
	out := m.normal[a].Add(m.normal[b]).Add(m.normal[c]).Add(m.normal[d])
	m.tri(a, b, c, out)
	m.tri(a, c, d, out)
}

// grid tessellates a parametric surface over [0,1]² into cols×rows cells.
// f returns position, normal and tangent at (s, t).
func (m *mesh) grid(cols, rows int, uvOf func(p mathutil.Vec3) [2]float64, c [4]uint8,
	f func(s, t float64) (p, n, tan mathutil.Vec3)) {
	base := len(m.pos)
	for j := 0; j <= rows; j++ {
		for i := 0; i <= cols; i++ {
			p, n, tan := f(float64(i)/float64(cols), float64(j)/float64(rows))
			m.vertex(p, uvOf(p), n, tan, c)
		}
	}
	at := func(i, j int) uint16 { return uint16(base + j*(cols+1) + i) }
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			m.quad(at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1))
		}
	}
}

// encoding selects the normal stream layout.
type encoding struct {
	normalSnorm8 bool
}

// command encodes m into a draw command with the given surface parameters.
func (e encoding) command(m *mesh, cull evaluator.CullMode, mod evaluator.ModulateParam) *evaluator.DrawCommand {
	n := len(m.pos)
	pos := make([]byte, 0, n*12)
	uv := make([]byte, 0, n*8)
	nrm := make([]byte, 0, n*4)
	tan := make([]byte, 0, n*4)
	col := make([]byte, 0, n*4)
	for i := range n {
		pos = appendFloats(pos, m.pos[i][0], m.pos[i][1], m.pos[i][2])
		uv = appendFloats(uv, m.uv[i][0], m.uv[i][1])
		nv := m.normal[i].Normalize()
		if e.normalSnorm8 {
			packed := gpu.PackSnorm8x4(nv[0], nv[1], nv[2], 0)
			nrm = append(nrm, packed[:]...)
		} else {
			nrm = binary.LittleEndian.AppendUint32(nrm, gpu.PackSnorm1010102(nv[0], nv[1], nv[2], 0))
		}
		tv := m.tangent[i].Normalize()
		packed := gpu.PackSnorm8x4(tv[0], tv[1], tv[2], 0)
		tan = append(tan, packed[:]...)
		col = append(col, m.color[i][:]...)
	}

	cmd := &evaluator.DrawCommand{
		Cull:     cull,
		Modulate: mod,
		Topology: gputypes.PrimitiveTopologyTriangleList,
		Indices:  m.indices,
	}
	cmd.Attributes[evaluator.AttributePosition] = evaluator.AttributeBuffer{Data: pos, Stride: 12}
	cmd.Attributes[evaluator.AttributeTexcoord] = evaluator.AttributeBuffer{Data: uv, Stride: 8}
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

// decalQuad is a 2D textured quad in bake space. Only position and
// texcoord streams are emitted, as the bake pass is unlit.
func decalQuad(center [2]float64, size [2]float64, angle float64, mirror bool, mod evaluator.ModulateParam) *evaluator.DrawCommand {
	sin, cos := math.Sincos(angle)
	hx, hy := size[0]/2, size[1]/2
	corners := [4][2]float64{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}}
	uvs := [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	var pos, uv []byte
	for i, c := range corners {
		x := center[0] + c[0]*cos - c[1]*sin
		y := center[1] + c[0]*sin + c[1]*cos
		pos = appendFloats(pos, x, y, 0)
		u := uvs[i][0]
		if mirror {
			u = 1 - u
		}
		uv = appendFloats(uv, u, uvs[i][1])
	}
	cmd := &evaluator.DrawCommand{
		Cull:     evaluator.CullNone,
		Modulate: mod,
		Topology: gputypes.PrimitiveTopologyTriangleList,
		Indices:  []uint16{0, 1, 2, 0, 2, 3},
	}
	cmd.Attributes[evaluator.AttributePosition] = evaluator.AttributeBuffer{Data: pos, Stride: 12}
	cmd.Attributes[evaluator.AttributeTexcoord] = evaluator.AttributeBuffer{Data: uv, Stride: 8}
	return cmd
}
