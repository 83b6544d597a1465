// Package gputest provides a gpu.Backend that records every call for
// call-sequence assertions in tests.
package gputest

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

// Call is one recorded backend invocation.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

// Attrib is an enabled vertex attribute slot.
type Attrib struct {
	Buffer gpu.Handle
	Layout gpu.VertexLayout
}

// AttribRead is what a draw would fetch from one enabled slot.
type AttribRead struct {
	Format   gputypes.VertexFormat
	Stride   int
	Bytes    int
	Vertices int
	Data     []byte
}

// Draw is a snapshot of pipeline state at DrawIndexed time.
type Draw struct {
	Program     gpu.Handle
	Topology    gputypes.PrimitiveTopology
	Indices     []uint16
	Texture     gpu.Handle
	Framebuffer gpu.Handle
	Blend       *gputypes.BlendState
	Cull        gputypes.CullMode
	DepthWrite  bool
	Attribs     map[int]AttribRead
	Uniforms    map[int]any
}

// Recorder is a gpu.Backend with no rendering.
type Recorder struct {
	Calls []Call
	Draws []Draw

	// FailPrograms makes CreateProgram return an error.
	FailPrograms bool

	next        gpu.Handle
	programs    map[gpu.Handle]gpu.ProgramSource
	uniforms    map[gpu.Handle]map[int]any
	buffers     map[gpu.Handle][]byte
	textures    map[gpu.Handle]gpu.TextureDesc
	samplers    map[gpu.Handle]gputypes.SamplerDescriptor
	targets     map[gpu.Handle]gpu.RenderTarget
	enabled     map[int]Attrib
	program     gpu.Handle
	texture     gpu.Handle
	framebuffer gpu.Handle
	viewport    gpu.Rect
	blend       *gputypes.BlendState
	cull        gputypes.CullMode
	depthWrite  bool
	clear       map[gpu.Handle]gputypes.Color
}

var _ gpu.Backend = (*Recorder)(nil)

// NewRecorder returns a recorder whose default framebuffer is width×height.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		programs: make(map[gpu.Handle]gpu.ProgramSource),
		uniforms: make(map[gpu.Handle]map[int]any),
		buffers:  make(map[gpu.Handle][]byte),
		textures: make(map[gpu.Handle]gpu.TextureDesc),
		samplers: make(map[gpu.Handle]gputypes.SamplerDescriptor),
		targets:  make(map[gpu.Handle]gpu.RenderTarget),
		enabled:  make(map[int]Attrib),
		clear:    make(map[gpu.Handle]gputypes.Color),
		viewport: gpu.Rect{Width: width, Height: height},
	}
}

func (r *Recorder) record(op string, args ...any) {
	r.Calls = append(r.Calls, Call{Op: op, Args: args})
}

func (r *Recorder) alloc() gpu.Handle {
	r.next++
	return r.next
}

// Ops returns the recorded operation names in order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls and draws but keeps object state.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.Draws = nil
}

func (r *Recorder) CreateProgram(src gpu.ProgramSource) (gpu.Handle, error) {
	r.record("CreateProgram", src.Name)
	if r.FailPrograms {
		return 0, errors.New("gputest: program creation disabled")
	}
	h := r.alloc()
	r.programs[h] = src
	r.uniforms[h] = make(map[int]any)
	return h, nil
}

func (r *Recorder) DeleteProgram(p gpu.Handle) {
	r.record("DeleteProgram", p)
	delete(r.programs, p)
	delete(r.uniforms, p)
}

func (r *Recorder) UseProgram(p gpu.Handle) {
	r.record("UseProgram", p)
	r.program = p
}

func (r *Recorder) UniformLocation(p gpu.Handle, name string) int {
	src, ok := r.programs[p]
	if !ok || src.Kernel == nil {
		return -1
	}
	return gpu.Location(src.Kernel.Uniforms(), name)
}

func (r *Recorder) AttribLocation(p gpu.Handle, name string) int {
	src, ok := r.programs[p]
	if !ok || src.Kernel == nil {
		return -1
	}
	return gpu.Location(src.Kernel.Attributes(), name)
}

func (r *Recorder) setUniform(op string, loc int, v any) {
	r.record(op, loc, v)
	if loc < 0 || r.program == 0 {
		return
	}
	r.uniforms[r.program][loc] = v
}

func (r *Recorder) SetUniformInt(loc int, v int32)          { r.setUniform("SetUniformInt", loc, v) }
func (r *Recorder) SetUniformFloat(loc int, v float32)      { r.setUniform("SetUniformFloat", loc, v) }
func (r *Recorder) SetUniformVec3(loc int, v mathutil.Vec3) { r.setUniform("SetUniformVec3", loc, v) }
func (r *Recorder) SetUniformMat4(loc int, m mathutil.Mat4) { r.setUniform("SetUniformMat4", loc, m) }
func (r *Recorder) SetUniformMat4Array(loc int, ms []mathutil.Mat4) {
	r.setUniform("SetUniformMat4Array", loc, append([]mathutil.Mat4(nil), ms...))
}

// Uniform returns the last value written to name on program p.
func (r *Recorder) Uniform(p gpu.Handle, name string) (any, bool) {
	loc := r.UniformLocation(p, name)
	if loc < 0 {
		return nil, false
	}
	v, ok := r.uniforms[p][loc]
	return v, ok
}

func (r *Recorder) CreateBuffer() gpu.Handle {
	h := r.alloc()
	r.buffers[h] = nil
	r.record("CreateBuffer", h)
	return h
}

func (r *Recorder) BufferData(b gpu.Handle, data []byte) {
	r.record("BufferData", b, len(data))
	r.buffers[b] = append([]byte(nil), data...)
}

func (r *Recorder) DeleteBuffer(b gpu.Handle) {
	r.record("DeleteBuffer", b)
	delete(r.buffers, b)
}

func (r *Recorder) EnableAttrib(loc int, b gpu.Handle, layout gpu.VertexLayout) {
	r.record("EnableAttrib", loc, layout.Format)
	if loc >= 0 {
		r.enabled[loc] = Attrib{Buffer: b, Layout: layout}
	}
}

func (r *Recorder) DisableAttrib(loc int) {
	r.record("DisableAttrib", loc)
	delete(r.enabled, loc)
}

// Enabled returns the currently enabled attribute slots.
func (r *Recorder) Enabled() map[int]Attrib {
	out := make(map[int]Attrib, len(r.enabled))
	for k, v := range r.enabled {
		out[k] = v
	}
	return out
}

func (r *Recorder) CreateTexture(desc gpu.TextureDesc) (gpu.Handle, error) {
	h := r.alloc()
	r.record("CreateTexture", h, desc.Width, desc.Height, desc.Format)
	r.textures[h] = desc
	return h, nil
}

func (r *Recorder) DeleteTexture(t gpu.Handle) {
	r.record("DeleteTexture", t)
	delete(r.textures, t)
	delete(r.samplers, t)
}

func (r *Recorder) BindTexture(unit int, t gpu.Handle) {
	r.record("BindTexture", unit, t)
	r.texture = t
}

// BoundTexture returns the texture on unit 0.
func (r *Recorder) BoundTexture() gpu.Handle { return r.texture }

func (r *Recorder) SetSampler(s gputypes.SamplerDescriptor) {
	r.record("SetSampler", s.AddressModeU, s.AddressModeV, s.MinFilter)
	if r.texture != 0 {
		r.samplers[r.texture] = s
	}
}

// Sampler returns the sampler state last applied to texture t.
func (r *Recorder) Sampler(t gpu.Handle) (gputypes.SamplerDescriptor, bool) {
	s, ok := r.samplers[t]
	return s, ok
}

// Texture returns the descriptor t was created with.
func (r *Recorder) Texture(t gpu.Handle) (gpu.TextureDesc, bool) {
	d, ok := r.textures[t]
	return d, ok
}

// LiveTextures counts textures not yet deleted, render target textures included.
func (r *Recorder) LiveTextures() int { return len(r.textures) }

// LiveTargets counts render targets not yet deleted.
func (r *Recorder) LiveTargets() int { return len(r.targets) }

// LiveBuffers counts buffers not yet deleted.
func (r *Recorder) LiveBuffers() int { return len(r.buffers) }

func (r *Recorder) CreateRenderTarget(width, height int) (gpu.RenderTarget, error) {
	rt := gpu.RenderTarget{Framebuffer: r.alloc(), Texture: r.alloc(), Width: width, Height: height}
	r.record("CreateRenderTarget", rt.Framebuffer, width, height)
	r.targets[rt.Framebuffer] = rt
	r.textures[rt.Texture] = gpu.TextureDesc{Width: width, Height: height, Format: gputypes.TextureFormatRGBA8Unorm}
	return rt, nil
}

func (r *Recorder) DeleteRenderTarget(rt gpu.RenderTarget) {
	r.record("DeleteRenderTarget", rt.Framebuffer)
	delete(r.targets, rt.Framebuffer)
	delete(r.textures, rt.Texture)
}

// Target returns the live render target for framebuffer fb.
func (r *Recorder) Target(fb gpu.Handle) (gpu.RenderTarget, bool) {
	rt, ok := r.targets[fb]
	return rt, ok
}

func (r *Recorder) BindFramebuffer(fb gpu.Handle) {
	r.record("BindFramebuffer", fb)
	r.framebuffer = fb
}

// Framebuffer returns the bound framebuffer; 0 is the default target.
func (r *Recorder) Framebuffer() gpu.Handle { return r.framebuffer }

func (r *Recorder) ReadPixels(fb gpu.Handle) (*image.NRGBA, error) {
	r.record("ReadPixels", fb)
	w, h := r.viewport.Width, r.viewport.Height
	if rt, ok := r.targets[fb]; ok {
		w, h = rt.Width, rt.Height
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	c := r.clear[fb]
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(c.R*255 + 0.5)
		img.Pix[i+1] = uint8(c.G*255 + 0.5)
		img.Pix[i+2] = uint8(c.B*255 + 0.5)
		img.Pix[i+3] = uint8(c.A*255 + 0.5)
	}
	return img, nil
}

func (r *Recorder) Viewport() gpu.Rect { return r.viewport }

func (r *Recorder) SetViewport(v gpu.Rect) {
	r.record("SetViewport", v)
	r.viewport = v
}

func (r *Recorder) Clear(c gputypes.Color) {
	r.record("Clear", c)
	r.clear[r.framebuffer] = c
}

// ClearColor returns the last clear color of framebuffer fb.
func (r *Recorder) ClearColor(fb gpu.Handle) gputypes.Color { return r.clear[fb] }

func (r *Recorder) SetCullMode(m gputypes.CullMode) {
	r.record("SetCullMode", m)
	r.cull = m
}

// CullMode returns the current cull mode.
func (r *Recorder) CullMode() gputypes.CullMode { return r.cull }

func (r *Recorder) SetBlend(b *gputypes.BlendState) {
	if b != nil {
		cp := *b
		b = &cp
	}
	r.record("SetBlend", b)
	r.blend = b
}

// Blend returns the current blend state; nil means blending is off.
func (r *Recorder) Blend() *gputypes.BlendState { return r.blend }

func (r *Recorder) SetDepthWrite(enabled bool) {
	r.record("SetDepthWrite", enabled)
	r.depthWrite = enabled
}

func (r *Recorder) DrawIndexed(topology gputypes.PrimitiveTopology, indices gpu.Handle, count int) {
	r.record("DrawIndexed", topology, count)
	d := Draw{
		Program:     r.program,
		Topology:    topology,
		Texture:     r.texture,
		Framebuffer: r.framebuffer,
		Blend:       r.blend,
		Cull:        r.cull,
		DepthWrite:  r.depthWrite,
		Attribs:     make(map[int]AttribRead, len(r.enabled)),
		Uniforms:    make(map[int]any),
	}
	raw := r.buffers[indices]
	for i := 0; i+1 < len(raw) && i/2 < count; i += 2 {
		d.Indices = append(d.Indices, uint16(raw[i])|uint16(raw[i+1])<<8)
	}
	for loc, a := range r.enabled {
		data := r.buffers[a.Buffer]
		read := AttribRead{Format: a.Layout.Format, Stride: a.Layout.Stride, Bytes: len(data), Data: data}
		if a.Layout.Stride > 0 {
			read.Vertices = len(data) / a.Layout.Stride
		}
		d.Attribs[loc] = read
	}
	for k, v := range r.uniforms[r.program] {
		d.Uniforms[k] = v
	}
	r.Draws = append(r.Draws, d)
}
