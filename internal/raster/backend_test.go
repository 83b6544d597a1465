package raster

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

// flatKernel draws positions as-is in a single uniform color.
type flatKernel struct{}

func (flatKernel) Uniforms() []string   { return []string{"u_color", "u_alpha"} }
func (flatKernel) Attributes() []string { return []string{"a_position"} }

func (flatKernel) Vertex(u gpu.Uniforms, attrs []mathutil.Vec4) (mathutil.Vec4, gpu.Varyings) {
	return attrs[0], gpu.Varyings{}
}

func (flatKernel) Fragment(u gpu.Uniforms, in *gpu.Varyings, tex gpu.Sampler) (mathutil.Vec4, bool) {
	c := u.Vec3(0)
	return mathutil.Vec4{c[0], c[1], c[2], float64(u.Float(1))}, false
}

func float32Bytes(vs ...float64) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}
	return out
}

func uint16Bytes(vs ...uint16) []byte {
	out := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

type fixture struct {
	b      *Backend
	prog   gpu.Handle
	vbuf   gpu.Handle
	ibuf   gpu.Handle
	color  int
	alpha  int
	attrib int
}

func newFixture(t *testing.T, w, h int) *fixture {
	t.Helper()
	b := New(w, h, nil)
	prog, err := b.CreateProgram(gpu.ProgramSource{Name: "flat", Kernel: flatKernel{}})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	f := &fixture{
		b:      b,
		prog:   prog,
		vbuf:   b.CreateBuffer(),
		ibuf:   b.CreateBuffer(),
		color:  b.UniformLocation(prog, "u_color"),
		alpha:  b.UniformLocation(prog, "u_alpha"),
		attrib: b.AttribLocation(prog, "a_position"),
	}
	b.UseProgram(prog)
	return f
}

// quad draws an axis-aligned rectangle in NDC at depth z, counter-clockwise.
func (f *fixture) quad(x0, y0, x1, y1, z float64, c mathutil.Vec3, a float32) {
	f.b.BufferData(f.vbuf, float32Bytes(x0, y0, z, x1, y0, z, x1, y1, z, x0, y1, z))
	f.b.EnableAttrib(f.attrib, f.vbuf, gpu.VertexLayout{Format: gputypes.VertexFormatFloat32x3, Stride: 12})
	f.b.BufferData(f.ibuf, uint16Bytes(0, 1, 2, 0, 2, 3))
	f.b.SetUniformVec3(f.color, c)
	f.b.SetUniformFloat(f.alpha, a)
	f.b.DrawIndexed(gputypes.PrimitiveTopologyTriangleList, f.ibuf, 6)
}

func pixel(t *testing.T, b *Backend, fb gpu.Handle, x, y int) [4]uint8 {
	t.Helper()
	img, err := b.ReadPixels(fb)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	i := img.PixOffset(x, y)
	return [4]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

func TestClear(t *testing.T) {
	b := New(2, 2, nil)
	b.Clear(gputypes.Color{R: 1, G: 0.5, B: 0, A: 1})
	if got, want := pixel(t, b, 0, 1, 1), [4]uint8{255, 128, 0, 255}; got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestSharedEdgeDrawnOnce(t *testing.T) {
	f := newFixture(t, 4, 4)
	f.b.SetBlend(&gputypes.BlendState{
		Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationAdd},
		Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationAdd},
	})
	f.quad(-1, -1, 1, 1, 0, mathutil.Vec3{0.25, 0.25, 0.25}, 0.25)

	if got := f.b.Stats().Fragments; got != 16 {
		t.Errorf("fragments = %d, want 16", got)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := pixel(t, f.b, 0, x, y); got[0] != 64 {
				t.Errorf("pixel (%d,%d) red = %d, want 64", x, y, got[0])
			}
		}
	}
}

func TestCulling(t *testing.T) {
	tests := []struct {
		name  string
		cull  gputypes.CullMode
		cw    bool
		drawn bool
	}{
		{"back culls clockwise", gputypes.CullModeBack, true, false},
		{"back keeps counter-clockwise", gputypes.CullModeBack, false, true},
		{"front culls counter-clockwise", gputypes.CullModeFront, false, false},
		{"none keeps clockwise", gputypes.CullModeNone, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 4, 4)
			f.b.SetCullMode(tc.cull)
			x0, x1 := -1.0, 1.0
			if tc.cw {
				x0, x1 = x1, x0
			}
			f.quad(x0, -1, x1, 1, 0, mathutil.Vec3{1, 1, 1}, 1)
			if got := f.b.Stats().Fragments > 0; got != tc.drawn {
				t.Errorf("drawn = %v, want %v", got, tc.drawn)
			}
		})
	}
}

func TestDepthTest(t *testing.T) {
	f := newFixture(t, 2, 2)
	f.quad(-1, -1, 1, 1, 0.5, mathutil.Vec3{1, 0, 0}, 1)
	f.quad(-1, -1, 1, 1, -0.5, mathutil.Vec3{0, 1, 0}, 1)
	f.quad(-1, -1, 1, 1, 0, mathutil.Vec3{0, 0, 1}, 1)
	if got, want := pixel(t, f.b, 0, 0, 0), [4]uint8{0, 255, 0, 255}; got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestDepthWriteDisabled(t *testing.T) {
	f := newFixture(t, 2, 2)
	f.b.SetDepthWrite(false)
	f.quad(-1, -1, 1, 1, -0.5, mathutil.Vec3{1, 0, 0}, 1)
	f.quad(-1, -1, 1, 1, 0.5, mathutil.Vec3{0, 0, 1}, 1)
	if got, want := pixel(t, f.b, 0, 1, 1), [4]uint8{0, 0, 255, 255}; got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestDestinationAlphaBlend(t *testing.T) {
	f := newFixture(t, 2, 2)
	f.b.SetBlend(&gputypes.BlendState{
		Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOneMinusDstAlpha, DstFactor: gputypes.BlendFactorDstAlpha, Operation: gputypes.BlendOperationAdd},
		Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorDstAlpha, Operation: gputypes.BlendOperationAdd},
	})
	f.b.Clear(gputypes.Color{})
	f.quad(-1, -1, 1, 1, 0, mathutil.Vec3{1, 0, 0}, 0.5)
	// rgb = src·(1-0) + dst·0; a = 0.5·0.5 + 0·0
	if got, want := pixel(t, f.b, 0, 0, 0), [4]uint8{255, 0, 0, 64}; got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestViewportLimitsCoverage(t *testing.T) {
	f := newFixture(t, 4, 4)
	f.b.SetViewport(gpu.Rect{X: 0, Y: 0, Width: 2, Height: 2})
	f.quad(-1, -1, 1, 1, 0, mathutil.Vec3{1, 1, 1}, 1)
	if got := f.b.Stats().Fragments; got != 4 {
		t.Errorf("fragments = %d, want 4", got)
	}
	if got := pixel(t, f.b, 0, 3, 3); got[3] != 0 {
		t.Errorf("pixel outside viewport alpha = %d, want 0", got[3])
	}
}

func TestNearPlaneClipping(t *testing.T) {
	f := newFixture(t, 4, 4)
	// Entirely behind the near plane.
	f.quad(-1, -1, 1, 1, -2, mathutil.Vec3{1, 1, 1}, 1)
	if got := f.b.Stats().Fragments; got != 0 {
		t.Errorf("fragments = %d, want 0", got)
	}
}

func TestRenderTargetTextureSharesPixels(t *testing.T) {
	f := newFixture(t, 4, 4)
	rt, err := f.b.CreateRenderTarget(2, 2)
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	f.b.BindFramebuffer(rt.Framebuffer)
	f.b.SetViewport(gpu.Rect{Width: 2, Height: 2})
	f.quad(-1, -1, 1, 1, 0, mathutil.Vec3{1, 0, 0}, 1)

	tex, ok := f.b.Texture(rt.Texture)
	if !ok {
		t.Fatal("render target texture missing")
	}
	if got := tex.Sample(0.5, 0.5); got != (mathutil.Vec4{1, 0, 0, 1}) {
		t.Errorf("sample = %v, want red", got)
	}
	if got := pixel(t, f.b, 0, 0, 0); got[3] != 0 {
		t.Errorf("default framebuffer touched: %v", got)
	}

	f.b.DeleteRenderTarget(rt)
	if _, ok := f.b.Texture(rt.Texture); ok {
		t.Error("texture survived DeleteRenderTarget")
	}
	if _, err := f.b.ReadPixels(rt.Framebuffer); err == nil {
		t.Error("ReadPixels on deleted target succeeded")
	}
}

func TestDisabledAttributeReadsDefault(t *testing.T) {
	f := newFixture(t, 2, 2)
	f.quad(-1, -1, 1, 1, 0, mathutil.Vec3{1, 1, 1}, 1)
	f.b.ResetStats()
	f.b.DisableAttrib(f.attrib)
	f.b.DrawIndexed(gputypes.PrimitiveTopologyTriangleList, f.ibuf, 6)
	// Every vertex collapses to (0,0,0,1): degenerate, nothing rasterized.
	if got := f.b.Stats(); got.Draws != 1 || got.Fragments != 0 {
		t.Errorf("stats = %+v, want one draw with no fragments", got)
	}
}

func TestCreateTextureExpandsChannels(t *testing.T) {
	b := New(1, 1, nil)
	tests := []struct {
		format gputypes.TextureFormat
		pixels []byte
		want   []uint8
	}{
		{gputypes.TextureFormatR8Unorm, []byte{10}, []uint8{10, 0, 0, 255}},
		{gputypes.TextureFormatRG8Unorm, []byte{10, 20}, []uint8{10, 20, 0, 255}},
		{gputypes.TextureFormatRGBA8Unorm, []byte{10, 20, 30, 40}, []uint8{10, 20, 30, 40}},
	}
	for _, tc := range tests {
		h, err := b.CreateTexture(gpu.TextureDesc{Width: 1, Height: 1, Format: tc.format, Pixels: tc.pixels})
		if err != nil {
			t.Fatalf("%v: CreateTexture: %v", tc.format, err)
		}
		tex, _ := b.Texture(h)
		for i := range tc.want {
			if tex.Pix[i] != tc.want[i] {
				t.Errorf("%v: pix = %v, want %v", tc.format, tex.Pix, tc.want)
				break
			}
		}
	}

	_, err := b.CreateTexture(gpu.TextureDesc{Width: 1, Height: 1, Format: gputypes.TextureFormatBGRA8Unorm, Pixels: make([]byte, 4)})
	if !errors.Is(err, ErrTextureFormat) {
		t.Errorf("BGRA8 err = %v, want ErrTextureFormat", err)
	}
	_, err = b.CreateTexture(gpu.TextureDesc{Width: 2, Height: 2, Format: gputypes.TextureFormatRGBA8Unorm, Pixels: make([]byte, 4)})
	if !errors.Is(err, ErrTextureSize) {
		t.Errorf("short data err = %v, want ErrTextureSize", err)
	}
}
