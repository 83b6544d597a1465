package shader

import (
	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/gpu"
	"mii-renderer/internal/mathutil"
)

// Uniform names shared by both programs. The basic program declares a
// prefix of this list.
const (
	uModel = iota
	uView
	uProj
	uMode
	uConst1
	uConst2
	uConst3
	uTexture
	// lit only
	uLightEnable
	uLightAmbient
	uLightDiffuse
	uLightSpecular
	uLightDir
	uMaterialAmbient
	uMaterialDiffuse
	uMaterialSpecular
	uMaterialSpecularMode
	uMaterialSpecularPower
	uRimColor
	uRimPower
	uSkinning
	uBones
	uniformCount
)

var uniformNames = [uniformCount]string{
	"u_model", "u_view", "u_proj", "u_mode", "u_const1", "u_const2", "u_const3", "s_texture",
	"u_light_enable", "u_light_ambient", "u_light_diffuse", "u_light_specular", "u_light_dir",
	"u_material_ambient", "u_material_diffuse", "u_material_specular",
	"u_material_specular_mode", "u_material_specular_power",
	"u_rim_color", "u_rim_power", "skinningEnabled", "boneMatrices",
}

// Attribute names, indexed by evaluator.Attribute, then the skinning inputs.
const (
	aBoneIDs = int(evaluator.AttributeCount) + iota
	aBoneWeights
	attribCount
)

var attribNames = [attribCount]string{
	evaluator.AttributePosition: "a_position",
	evaluator.AttributeTexcoord: "a_texCoord",
	evaluator.AttributeNormal:   "a_normal",
	evaluator.AttributeTangent:  "a_tangent",
	evaluator.AttributeColor:    "a_color",
	aBoneIDs:                    "a_boneIds",
	aBoneWeights:                "a_boneWeights",
}

// Varying slots.
const (
	vPos     = 0 // view-space xyz
	vNormal  = 3
	vTangent = 6
	vUV      = 9
	vColor   = 11
)

func constants(u gpu.Uniforms) [3]mathutil.Vec3 {
	return [3]mathutil.Vec3{u.Vec3(uConst1), u.Vec3(uConst2), u.Vec3(uConst3)}
}

func sampleUnlessConstant(mode evaluator.ModulateMode, tex gpu.Sampler, uv0, uv1 float64) mathutil.Vec4 {
	if mode == evaluator.ModulateConstant || tex == nil {
		return mathutil.Vec4{0, 0, 0, 1}
	}
	return tex.Sample(uv0, uv1)
}

// basicKernel is the unlit modulate-only program.
type basicKernel struct{}

func (basicKernel) Uniforms() []string {
	return uniformNames[:uTexture+1]
}

func (basicKernel) Attributes() []string {
	return attribNames[:evaluator.AttributeTexcoord+1]
}

func (basicKernel) Vertex(u gpu.Uniforms, attrs []mathutil.Vec4) (mathutil.Vec4, gpu.Varyings) {
	mvp := mathutil.Mat4Mul(u.Mat4(uProj), mathutil.Mat4Mul(u.Mat4(uView), u.Mat4(uModel)))
	var out gpu.Varyings
	out[vUV] = attrs[evaluator.AttributeTexcoord][0]
	out[vUV+1] = attrs[evaluator.AttributeTexcoord][1]
	return mvp.MulVec4(attrs[evaluator.AttributePosition]), out
}

func (basicKernel) Fragment(u gpu.Uniforms, in *gpu.Varyings, tex gpu.Sampler) (mathutil.Vec4, bool) {
	mode := evaluator.ModulateMode(u.Int(uMode))
	texel := sampleUnlessConstant(mode, tex, in[vUV], in[vUV+1])
	return Modulate(mode, texel, constants(u))
}

// litKernel adds lighting, rim and skinning.
type litKernel struct{}

func (litKernel) Uniforms() []string   { return uniformNames[:] }
func (litKernel) Attributes() []string { return attribNames[:] }

func (litKernel) Vertex(u gpu.Uniforms, attrs []mathutil.Vec4) (mathutil.Vec4, gpu.Varyings) {
	pos := attrs[evaluator.AttributePosition]
	normal := attrs[evaluator.AttributeNormal].XYZ()
	if u.Int(uSkinning) == 1 {
		pos, normal = SkinVertex(pos, normal, attrs[aBoneIDs], attrs[aBoneWeights], u.Mat4Array(uBones))
	}

	mv := mathutil.Mat4Mul(u.Mat4(uView), u.Mat4(uModel))
	nm := mathutil.NormalMatrix(mv)
	viewPos := mv.MulVec4(pos)
	n := nm.MulVec3(normal).Normalize()
	t := nm.MulVec3(attrs[evaluator.AttributeTangent].XYZ()).Normalize()
	uv := attrs[evaluator.AttributeTexcoord]
	c := attrs[evaluator.AttributeColor]

	var out gpu.Varyings
	copy(out[vPos:], viewPos[:3])
	copy(out[vNormal:], n[:])
	copy(out[vTangent:], t[:])
	out[vUV], out[vUV+1] = uv[0], uv[1]
	copy(out[vColor:], c[:])
	return u.Mat4(uProj).MulVec4(viewPos), out
}

func (litKernel) Fragment(u gpu.Uniforms, in *gpu.Varyings, tex gpu.Sampler) (mathutil.Vec4, bool) {
	mode := evaluator.ModulateMode(u.Int(uMode))
	texel := sampleUnlessConstant(mode, tex, in[vUV], in[vUV+1])
	color, discard := Modulate(mode, texel, constants(u))
	if discard || u.Int(uLightEnable) == 0 {
		return color, discard
	}

	light := Light{
		Ambient:  u.Vec3(uLightAmbient),
		Diffuse:  u.Vec3(uLightDiffuse),
		Specular: u.Vec3(uLightSpecular),
		Dir:      u.Vec3(uLightDir),
		RimColor: u.Vec3(uRimColor),
		RimPower: float64(u.Float(uRimPower)),
	}
	mat := Material{
		Ambient:       u.Vec3(uMaterialAmbient),
		Diffuse:       u.Vec3(uMaterialDiffuse),
		Specular:      u.Vec3(uMaterialSpecular),
		SpecularPower: float64(u.Float(uMaterialSpecularPower)),
		SpecularMode:  SpecularMode(u.Int(uMaterialSpecularMode)),
	}
	surf := Surface{
		Position:    mathutil.Vec3{in[vPos], in[vPos+1], in[vPos+2]},
		Normal:      mathutil.Vec3{in[vNormal], in[vNormal+1], in[vNormal+2]},
		Tangent:     mathutil.Vec3{in[vTangent], in[vTangent+1], in[vTangent+2]},
		VertexColor: mathutil.Vec4{in[vColor], in[vColor+1], in[vColor+2], in[vColor+3]},
	}
	return Shade(color, light, mat, surf), false
}
