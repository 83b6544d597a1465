package shader

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

// Style selects one of the two shading programs.
type Style int

const (
	// StyleBasic is unlit modulate only.
	StyleBasic Style = iota
	// StyleLit adds per-fragment lighting, rim and skinning.
	StyleLit
)

func (s Style) String() string {
	if s == StyleLit {
		return "lit"
	}
	return "basic"
}

// Source returns the program source for s.
func Source(s Style) gpu.ProgramSource {
	if s == StyleLit {
		return gpu.ProgramSource{Name: "avatar-lit", Vertex: litVertexGLSL, Fragment: litFragmentGLSL, Kernel: litKernel{}}
	}
	return gpu.ProgramSource{Name: "avatar-basic", Vertex: basicVertexGLSL, Fragment: basicFragmentGLSL, Kernel: basicKernel{}}
}

// Options tune a Binder.
type Options struct {
	Light Light
	// BlinnOnly forces every material onto the isotropic specular model.
	BlinnOnly bool
	Logger    *slog.Logger
}

// Binder owns one shader program and writes its uniforms.
type Binder struct {
	b       gpu.Backend
	style   Style
	program gpu.Handle
	opts    Options
	log     *slog.Logger

	uniforms [uniformCount]int
	attribs  [attribCount]int
}

// NewBinder compiles the program for style on b.
func NewBinder(b gpu.Backend, style Style, opts Options) (*Binder, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Light == (Light{}) {
		opts.Light = DefaultLight
	}
	prog, err := b.CreateProgram(Source(style))
	if err != nil {
		return nil, fmt.Errorf("shader: create %s program: %w", style, err)
	}
	sb := &Binder{b: b, style: style, program: prog, opts: opts, log: opts.Logger}
	for i, name := range uniformNames {
		sb.uniforms[i] = b.UniformLocation(prog, name)
	}
	for i, name := range attribNames {
		sb.attribs[i] = b.AttribLocation(prog, name)
	}
	sb.log.Debug("shader program ready", "style", style, "program", prog)
	return sb, nil
}

// Style returns the shader variant the binder compiled.
func (sb *Binder) Style() Style { return sb.style }

// Program returns the linked program handle.
func (sb *Binder) Program() gpu.Handle { return sb.program }

// Light returns the light constants uploaded by lit binds.
func (sb *Binder) Light() Light { return sb.opts.Light }

// AttribLocation returns the slot for a vertex semantic, or -1 if the
// program does not consume it.
func (sb *Binder) AttribLocation(a evaluator.Attribute) int {
	return sb.attribs[a]
}

// SkinLocations returns the bone id and weight slots.
func (sb *Binder) SkinLocations() (ids, weights int) {
	return sb.attribs[aBoneIDs], sb.attribs[aBoneWeights]
}

// ColorFormat is the vertex color encoding the program expects.
func (sb *Binder) ColorFormat() gputypes.VertexFormat {
	if sb.style == StyleLit {
		return gputypes.VertexFormatUnorm8x4
	}
	return gputypes.VertexFormatFloat32x4
}

// Bind activates the program, disables every attribute slot and resets
// per-frame state. Lighting constants are written only when light is set;
// skinning starts disabled.
func (sb *Binder) Bind(light bool) {
	sb.b.UseProgram(sb.program)
	for _, loc := range sb.attribs {
		if loc >= 0 {
			sb.b.DisableAttrib(loc)
		}
	}
	if sb.style != StyleLit {
		return
	}
	enable := int32(0)
	if light {
		enable = 1
	}
	sb.b.SetUniformInt(sb.uniforms[uLightEnable], enable)
	if light {
		l := sb.opts.Light
		sb.b.SetUniformVec3(sb.uniforms[uLightDir], l.Dir)
		sb.b.SetUniformVec3(sb.uniforms[uLightAmbient], l.Ambient)
		sb.b.SetUniformVec3(sb.uniforms[uLightDiffuse], l.Diffuse)
		sb.b.SetUniformVec3(sb.uniforms[uLightSpecular], l.Specular)
		sb.b.SetUniformVec3(sb.uniforms[uRimColor], l.RimColor)
		sb.b.SetUniformFloat(sb.uniforms[uRimPower], float32(l.RimPower))
	}
	sb.b.SetUniformInt(sb.uniforms[uSkinning], 0)
}

// Use activates the program without touching any other state.
func (sb *Binder) Use() {
	sb.b.UseProgram(sb.program)
}

// Unbind deactivates the program.
func (sb *Binder) Unbind() {
	sb.b.UseProgram(0)
}

// SetSceneTransform writes separate model, view and projection matrices.
func (sb *Binder) SetSceneTransform(model, view, proj mathutil.Mat4) {
	sb.b.SetUniformMat4(sb.uniforms[uModel], model)
	sb.b.SetUniformMat4(sb.uniforms[uView], view)
	sb.b.SetUniformMat4(sb.uniforms[uProj], proj)
}

// SetBakeTransform writes one combined model-view-projection matrix, with
// model and view reset to identity.
func (sb *Binder) SetBakeTransform(mvp mathutil.Mat4) {
	id := mathutil.Mat4Identity()
	sb.SetSceneTransform(id, id, mvp)
}

// SetModulate writes the mode selector and the color constants the mode
// reads: one for the constant and alpha family, three for RGB-layered,
// none for direct texture.
func (sb *Binder) SetModulate(mode evaluator.ModulateMode, c1, c2, c3 *evaluator.Color) {
	sb.b.SetUniformInt(sb.uniforms[uMode], int32(mode))
	switch mode {
	case evaluator.ModulateConstant, evaluator.ModulateAlpha,
		evaluator.ModulateLuminanceAlpha, evaluator.ModulateAlphaOpa:
		sb.setColor(uConst1, c1)
	case evaluator.ModulateRGBLayered:
		sb.setColor(uConst1, c1)
		sb.setColor(uConst2, c2)
		sb.setColor(uConst3, c3)
	}
}

func (sb *Binder) setColor(slot int, c *evaluator.Color) {
	if c == nil {
		return
	}
	sb.b.SetUniformVec3(sb.uniforms[slot], c.RGB())
}

// SetTextureUnit points the sampler at unit.
func (sb *Binder) SetTextureUnit(unit int) {
	sb.b.SetUniformInt(sb.uniforms[uTexture], int32(unit))
}

// SetMaterial writes Materials[index]. An out-of-range index panics.
func (sb *Binder) SetMaterial(index int) {
	m := LookupMaterial(index)
	if sb.style != StyleLit {
		return
	}
	mode := m.SpecularMode
	if sb.opts.BlinnOnly {
		mode = SpecularBlinn
	}
	sb.b.SetUniformVec3(sb.uniforms[uMaterialAmbient], m.Ambient)
	sb.b.SetUniformVec3(sb.uniforms[uMaterialDiffuse], m.Diffuse)
	sb.b.SetUniformVec3(sb.uniforms[uMaterialSpecular], m.Specular)
	sb.b.SetUniformInt(sb.uniforms[uMaterialSpecularMode], int32(mode))
	sb.b.SetUniformFloat(sb.uniforms[uMaterialSpecularPower], float32(m.SpecularPower))
}

// SetRimColor overrides the rim color until the next Bind.
func (sb *Binder) SetRimColor(c mathutil.Vec3) {
	sb.b.SetUniformVec3(sb.uniforms[uRimColor], c)
}

// SetSkinning uploads the bone palette and enables skinning; nil disables it.
func (sb *Binder) SetSkinning(bones []mathutil.Mat4) {
	if bones == nil {
		sb.b.SetUniformInt(sb.uniforms[uSkinning], 0)
		return
	}
	if len(bones) > MaxBones {
		panic(fmt.Sprintf("shader: %d bones exceeds palette of %d", len(bones), MaxBones))
	}
	sb.b.SetUniformMat4Array(sb.uniforms[uBones], bones)
	sb.b.SetUniformInt(sb.uniforms[uSkinning], 1)
}

// Close deletes the program.
func (sb *Binder) Close() {
	if sb.program != 0 {
		sb.b.DeleteProgram(sb.program)
		sb.program = 0
	}
}
