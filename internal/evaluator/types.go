// Package evaluator describes the contract between the avatar model
// evaluator and the renderer: the draw commands it emits, the callbacks it
// invokes, and the model handle it exposes.
package evaluator

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

var (
	// ErrResourceRejected is returned when the shared resource blob fails validation.
	ErrResourceRejected = errors.New("evaluator: resource rejected")
	// ErrDescriptor is returned for a malformed avatar descriptor.
	ErrDescriptor = errors.New("evaluator: invalid descriptor")
)

// ModulateMode selects the fragment coloring formula.
type ModulateMode int32

const (
	ModulateConstant ModulateMode = iota
	ModulateTexture
	ModulateRGBLayered
	ModulateAlpha
	ModulateLuminanceAlpha
	ModulateAlphaOpa
)

var modulateModeNames = [...]string{"constant", "texture", "rgb-layered", "alpha", "luminance-alpha", "alpha-opa"}

func (m ModulateMode) String() string {
	if m < 0 || int(m) >= len(modulateModeNames) {
		return fmt.Sprintf("ModulateMode(%d)", int32(m))
	}
	return modulateModeNames[m]
}

// ModulateType is the semantic class of the surface being drawn.
type ModulateType int32

const (
	ShapeFaceline ModulateType = iota
	ShapeBeard
	ShapeNose
	ShapeForehead
	ShapeHair
	ShapeCap
	ShapeMask
	ShapeNoseline
	ShapeGlass
	TextureMustache
	TextureMouth
	TextureEyebrow
	TextureEye
	TextureMole
	TextureFaceMake
	TextureFacelineWrinkle
	TextureFacelineBeard
	TextureFill
	// ShapeBody and ShapePants are used by the body meshes; the model
	// evaluator never emits them.
	ShapeBody
	ShapePants
)

// ShapeMax bounds the shape classes emitted by the model evaluator.
const ShapeMax = TextureMustache

// IsShape reports whether t is a mesh shape class rather than a 2D decal.
func (t ModulateType) IsShape() bool {
	return (t >= 0 && t < ShapeMax) || t == ShapeBody || t == ShapePants
}

// CullMode mirrors the evaluator's face culling request.
type CullMode int32

const (
	CullBack CullMode = iota
	CullFront
	CullNone
)

// Attribute is a vertex attribute semantic.
type Attribute int

const (
	AttributePosition Attribute = iota
	AttributeTexcoord
	AttributeNormal
	AttributeTangent
	AttributeColor
	AttributeCount
)

var attributeNames = [AttributeCount]string{"position", "texcoord", "normal", "tangent", "color"}

func (a Attribute) String() string {
	if a < 0 || a >= AttributeCount {
		return fmt.Sprintf("Attribute(%d)", int(a))
	}
	return attributeNames[a]
}

// AttributeBuffer is one interleaved-free vertex stream. A zero Stride or
// nil Data means the semantic is absent from the command.
type AttributeBuffer struct {
	Data   []byte
	Stride int
}

// Present reports whether the buffer carries data.
func (b AttributeBuffer) Present() bool {
	return len(b.Data) > 0 && b.Stride > 0
}

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// RGB drops alpha.
func (c Color) RGB() mathutil.Vec3 {
	return mathutil.Vec3{c.R, c.G, c.B}
}

// ModulateParam selects how the surface is colored.
type ModulateParam struct {
	Mode ModulateMode
	Type ModulateType
	// ColorR, ColorG, ColorB are the color constants; ColorG and ColorB are
	// only read by the RGB-layered mode.
	ColorR *Color
	ColorG *Color
	ColorB *Color
	// Texture is the evaluator-resolved texture. Ignored for the faceline
	// and mask classes, which always sample the baked targets.
	Texture gpu.Handle
}

// Skin carries linear-blend skinning inputs: four float32 bone indices and
// four float32 weights per vertex.
type Skin struct {
	BoneIDs     AttributeBuffer
	BoneWeights AttributeBuffer
	Bones       []mathutil.Mat4
}

// DrawCommand is one primitive submission.
type DrawCommand struct {
	Cull       CullMode
	Modulate   ModulateParam
	Attributes [AttributeCount]AttributeBuffer
	Topology   gputypes.PrimitiveTopology
	// Indices are 16-bit; nil means state setup only.
	Indices []uint16
	Skin    *Skin
}
