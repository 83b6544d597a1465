package render

import (
	"encoding/binary"
	"log/slog"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/gpu/gputest"
	"mii-renderer/internal/shader"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func float32Bytes(vs ...float64) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}
	return out
}

// quadCommand covers clip space with two counter-clockwise triangles.
func quadCommand(t evaluator.ModulateType, mode evaluator.ModulateMode) *evaluator.DrawCommand {
	white := &evaluator.Color{R: 1, G: 1, B: 1, A: 1}
	cmd := &evaluator.DrawCommand{
		Cull: evaluator.CullNone,
		Modulate: evaluator.ModulateParam{
			Mode: mode, Type: t,
			ColorR: white, ColorG: white, ColorB: white,
		},
		Topology: gputypes.PrimitiveTopologyTriangleList,
		Indices:  []uint16{0, 1, 2, 0, 2, 3},
	}
	cmd.Attributes[evaluator.AttributePosition] = evaluator.AttributeBuffer{
		Data:   float32Bytes(-1, -1, 0, 1, -1, 0, 1, 1, 0, -1, 1, 0),
		Stride: 12,
	}
	cmd.Attributes[evaluator.AttributeTexcoord] = evaluator.AttributeBuffer{
		Data:   float32Bytes(0, 0, 1, 0, 1, 1, 0, 1),
		Stride: 8,
	}
	return cmd
}

// fakeModel draws one quad per entry point and records what it was asked.
type fakeModel struct {
	res      int
	exprs    evaluator.ExpressionSet
	expr     evaluator.Expression
	faceline bool
	color    evaluator.Color

	calls    []string
	masks    []evaluator.Expression
	setCalls int
	scratch  bool
	deleted  bool
}

var _ evaluator.Model = (*fakeModel)(nil)

func newFakeModel(t *testing.T, res int, es ...evaluator.Expression) *fakeModel {
	t.Helper()
	set, err := evaluator.NewExpressionSet(es...)
	if err != nil {
		t.Fatalf("NewExpressionSet: %v", err)
	}
	return &fakeModel{
		res:      res,
		exprs:    set,
		faceline: true,
		color:    evaluator.Color{R: 1, G: 0.8, B: 0.6, A: 1},
	}
}

func (m *fakeModel) Resolution() int                          { return m.res }
func (m *fakeModel) Expressions() evaluator.ExpressionSet     { return m.exprs }
func (m *fakeModel) Expression() evaluator.Expression         { return m.expr }
func (m *fakeModel) NeedsFaceline() bool                      { return m.faceline }
func (m *fakeModel) FacelineColor() evaluator.Color           { return m.color }
func (m *fakeModel) ReleaseTextureScratch()                   { m.scratch = true; m.calls = append(m.calls, "scratch") }
func (m *fakeModel) PartsTransform() evaluator.PartsTransform { return evaluator.PartsTransform{} }
func (m *fakeModel) BodyInfo() (int, int)                     { return 64, 64 }
func (m *fakeModel) Delete()                                  { m.deleted = true }

func (m *fakeModel) SetExpression(e evaluator.Expression) {
	m.setCalls++
	m.expr = e
}

func (m *fakeModel) DrawFaceline(cb evaluator.ShaderCallback) {
	m.calls = append(m.calls, "faceline")
	cb.Draw(quadCommand(evaluator.TextureFaceMake, evaluator.ModulateAlpha))
}

func (m *fakeModel) DrawMask(e evaluator.Expression, cb evaluator.ShaderCallback) {
	m.calls = append(m.calls, "mask")
	m.masks = append(m.masks, e)
	cb.Draw(quadCommand(evaluator.TextureEye, evaluator.ModulateTexture))
}

func (m *fakeModel) DrawOpa(cb evaluator.ShaderCallback) {
	m.calls = append(m.calls, "opa")
	cb.Draw(quadCommand(evaluator.ShapeFaceline, evaluator.ModulateTexture))
}

func (m *fakeModel) DrawXlu(cb evaluator.ShaderCallback) {
	m.calls = append(m.calls, "xlu")
	cb.Draw(quadCommand(evaluator.ShapeMask, evaluator.ModulateTexture))
}

func newRecorded(t *testing.T, style shader.Style) (*RenderContext, *gputest.Recorder) {
	t.Helper()
	rec := gputest.NewRecorder(320, 240)
	rc, err := New(rec, Options{Style: style, Light: true, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rc, rec
}

func lastDraw(t *testing.T, rec *gputest.Recorder) gputest.Draw {
	t.Helper()
	if len(rec.Draws) == 0 {
		t.Fatal("no draw recorded")
	}
	return rec.Draws[len(rec.Draws)-1]
}

var _ gpu.Backend = (*gputest.Recorder)(nil)
