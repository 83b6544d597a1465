package shader

import (
	"testing"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/gpu/gputest"
	"mii-renderer/internal/mathutil"
)

func newTestBinder(t *testing.T, style Style, opts Options) (*Binder, *gputest.Recorder) {
	t.Helper()
	rec := gputest.NewRecorder(64, 64)
	sb, err := NewBinder(rec, style, opts)
	if err != nil {
		t.Fatalf("NewBinder: %v", err)
	}
	return sb, rec
}

func TestNewBinderFailure(t *testing.T) {
	rec := gputest.NewRecorder(8, 8)
	rec.FailPrograms = true
	if _, err := NewBinder(rec, StyleLit, Options{}); err == nil {
		t.Fatal("NewBinder succeeded with failing backend")
	}
}

func TestBindDisablesEveryAttribute(t *testing.T) {
	sb, rec := newTestBinder(t, StyleLit, Options{})
	rec.EnableAttrib(sb.AttribLocation(evaluator.AttributeNormal), 99, gpu.VertexLayout{Format: gputypes.VertexFormatFloat32x3, Stride: 12})

	sb.Bind(true)
	if n := len(rec.Enabled()); n != 0 {
		t.Errorf("enabled attributes after Bind = %d, want 0", n)
	}
	if got := rec.Count("DisableAttrib"); got != int(attribCount) {
		t.Errorf("DisableAttrib calls = %d, want %d", got, attribCount)
	}
}

func TestBindLitWritesLightAndResetsSkinning(t *testing.T) {
	sb, rec := newTestBinder(t, StyleLit, Options{})
	sb.Bind(true)
	sb.SetSkinning([]mathutil.Mat4{mathutil.Mat4Identity()})
	sb.Bind(true)

	p := sb.Program()
	if v, _ := rec.Uniform(p, "skinningEnabled"); v != int32(0) {
		t.Errorf("skinningEnabled = %v, want 0", v)
	}
	if v, _ := rec.Uniform(p, "u_light_enable"); v != int32(1) {
		t.Errorf("u_light_enable = %v, want 1", v)
	}
	if v, _ := rec.Uniform(p, "u_light_dir"); v != DefaultLight.Dir {
		t.Errorf("u_light_dir = %v, want %v", v, DefaultLight.Dir)
	}
	if v, _ := rec.Uniform(p, "u_rim_power"); v != float32(2) {
		t.Errorf("u_rim_power = %v, want 2", v)
	}
}

func TestBindUnlitSkipsLightConstants(t *testing.T) {
	sb, rec := newTestBinder(t, StyleLit, Options{})
	sb.Bind(false)
	p := sb.Program()
	if v, _ := rec.Uniform(p, "u_light_enable"); v != int32(0) {
		t.Errorf("u_light_enable = %v, want 0", v)
	}
	if _, ok := rec.Uniform(p, "u_light_ambient"); ok {
		t.Error("light ambient written with lighting disabled")
	}
}

func TestBasicBindTouchesNoLitUniforms(t *testing.T) {
	sb, rec := newTestBinder(t, StyleBasic, Options{})
	sb.Bind(true)
	if rec.Count("SetUniformInt") != 0 || rec.Count("SetUniformVec3") != 0 {
		t.Errorf("basic Bind wrote uniforms: %v", rec.Ops())
	}
	if got := sb.AttribLocation(evaluator.AttributeNormal); got != -1 {
		t.Errorf("basic normal location = %d, want -1", got)
	}
	if got := sb.ColorFormat(); got != gputypes.VertexFormatFloat32x4 {
		t.Errorf("basic color format = %v, want float32x4", got)
	}
}

func TestSetModulateConstantCount(t *testing.T) {
	c1 := &evaluator.Color{R: 1, G: 0, B: 0, A: 1}
	c2 := &evaluator.Color{R: 0, G: 1, B: 0, A: 1}
	c3 := &evaluator.Color{R: 0, G: 0, B: 1, A: 1}

	tests := []struct {
		mode evaluator.ModulateMode
		want int
	}{
		{evaluator.ModulateConstant, 1},
		{evaluator.ModulateTexture, 0},
		{evaluator.ModulateRGBLayered, 3},
		{evaluator.ModulateAlpha, 1},
		{evaluator.ModulateLuminanceAlpha, 1},
		{evaluator.ModulateAlphaOpa, 1},
	}
	for _, tc := range tests {
		t.Run(tc.mode.String(), func(t *testing.T) {
			sb, rec := newTestBinder(t, StyleBasic, Options{})
			sb.Bind(false)
			rec.Reset()
			sb.SetModulate(tc.mode, c1, c2, c3)
			if got := rec.Count("SetUniformVec3"); got != tc.want {
				t.Errorf("constants written = %d, want %d", got, tc.want)
			}
			if v, _ := rec.Uniform(sb.Program(), "u_mode"); v != int32(tc.mode) {
				t.Errorf("u_mode = %v, want %d", v, tc.mode)
			}
		})
	}
}

func TestSetMaterial(t *testing.T) {
	sb, rec := newTestBinder(t, StyleLit, Options{})
	sb.Bind(true)
	sb.SetMaterial(int(evaluator.ShapeHair))

	p := sb.Program()
	if v, _ := rec.Uniform(p, "u_material_specular_power"); v != float32(10) {
		t.Errorf("specular power = %v, want 10", v)
	}
	if v, _ := rec.Uniform(p, "u_material_specular_mode"); v != int32(SpecularAniso) {
		t.Errorf("specular mode = %v, want aniso", v)
	}
}

func TestSetMaterialBlinnOnly(t *testing.T) {
	sb, rec := newTestBinder(t, StyleLit, Options{BlinnOnly: true})
	sb.Bind(true)
	sb.SetMaterial(int(evaluator.ShapeHair))
	if v, _ := rec.Uniform(sb.Program(), "u_material_specular_mode"); v != int32(SpecularBlinn) {
		t.Errorf("specular mode = %v, want blinn", v)
	}
}

func TestSetMaterialOutOfRangePanics(t *testing.T) {
	sb, _ := newTestBinder(t, StyleLit, Options{})
	sb.Bind(true)
	defer func() {
		if recover() == nil {
			t.Error("SetMaterial(11) did not panic")
		}
	}()
	sb.SetMaterial(MaterialCount)
}

func TestSetSkinningPaletteLimit(t *testing.T) {
	sb, _ := newTestBinder(t, StyleLit, Options{})
	sb.Bind(true)
	defer func() {
		if recover() == nil {
			t.Error("SetSkinning with 81 bones did not panic")
		}
	}()
	sb.SetSkinning(make([]mathutil.Mat4, MaxBones+1))
}

func TestSetBakeTransform(t *testing.T) {
	sb, rec := newTestBinder(t, StyleBasic, Options{})
	sb.Bind(false)
	mvp := mathutil.Mat4Scale(2, 2, 1)
	sb.SetBakeTransform(mvp)

	p := sb.Program()
	if v, _ := rec.Uniform(p, "u_model"); v != mathutil.Mat4Identity() {
		t.Errorf("u_model = %v, want identity", v)
	}
	if v, _ := rec.Uniform(p, "u_proj"); v != mvp {
		t.Errorf("u_proj = %v, want %v", v, mvp)
	}
}

func TestCloseDeletesProgram(t *testing.T) {
	sb, rec := newTestBinder(t, StyleLit, Options{})
	sb.Close()
	sb.Close()
	if got := rec.Count("DeleteProgram"); got != 1 {
		t.Errorf("DeleteProgram calls = %d, want 1", got)
	}
}
