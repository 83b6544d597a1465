package evaluator

import "mii-renderer/internal/mathutil"

// Config is applied once when the evaluator is initialized.
type Config struct {
	// FlipY renders baked textures upside down to match the bake target's
	// row order.
	FlipY bool
	// NormalSnorm8 delivers normals as 4×int8 instead of packed 10-10-10-2.
	NormalSnorm8 bool
	// Textures, when set, receives ownership of every evaluator texture.
	Textures TextureCallback
}

// ModelDesc requests a model instance.
type ModelDesc struct {
	// Data is the opaque avatar descriptor.
	Data        []byte
	Resolution  int
	Expressions ExpressionSet
}

// PartsTransform places accessories relative to the head.
type PartsTransform struct {
	HatTranslate       mathutil.Vec3
	HeadFrontTranslate mathutil.Vec3
	HeadFrontRotate    mathutil.Vec3
	HeadSideTranslate  mathutil.Vec3
	HeadSideRotate     mathutil.Vec3
}

// Library is an initialized evaluator.
type Library interface {
	NewModel(desc ModelDesc) (Model, error)
	Close()
}

// Model is one evaluated avatar. Every draw entry point reports its
// primitives to cb.
type Model interface {
	Resolution() int
	Expressions() ExpressionSet
	Expression() Expression
	SetExpression(e Expression)

	NeedsFaceline() bool
	FacelineColor() Color
	DrawFaceline(cb ShaderCallback)
	DrawMask(e Expression, cb ShaderCallback)
	DrawOpa(cb ShaderCallback)
	DrawXlu(cb ShaderCallback)

	// ReleaseTextureScratch frees CPU-side composition state once baking is done.
	ReleaseTextureScratch()
	PartsTransform() PartsTransform
	// BodyInfo returns the height and build sliders (0-127).
	BodyInfo() (height, build int)
	Delete()
}
