package procedural

import "mii-renderer/internal/evaluator"

func rgb(r, g, b float64) evaluator.Color { return evaluator.Color{R: r, G: g, B: b, A: 1} }

var facelineColors = []evaluator.Color{
	rgb(1.000000, 0.827451, 0.678431),
	rgb(1.000000, 0.713726, 0.501961),
	rgb(0.870588, 0.474510, 0.258824),
	rgb(1.000000, 0.666667, 0.549020),
	rgb(0.670588, 0.372549, 0.203922),
	rgb(0.356863, 0.188235, 0.094118),
}

// hairColors also colors eyebrows and beards.
var hairColors = []evaluator.Color{
	rgb(0.117647, 0.101961, 0.094118),
	rgb(0.250980, 0.125490, 0.062745),
	rgb(0.360784, 0.094118, 0.078431),
	rgb(0.486275, 0.227451, 0.078431),
	rgb(0.470588, 0.470588, 0.501961),
	rgb(0.305882, 0.239216, 0.047059),
	rgb(0.533333, 0.345098, 0.094118),
	rgb(0.815686, 0.627451, 0.290196),
}

var eyeColors = []evaluator.Color{
	rgb(0.000000, 0.000000, 0.000000),
	rgb(0.423529, 0.439216, 0.439216),
	rgb(0.400000, 0.235294, 0.172549),
	rgb(0.376471, 0.368627, 0.188235),
	rgb(0.274510, 0.329412, 0.658824),
	rgb(0.219608, 0.439216, 0.345098),
}

var mouthColors = []evaluator.Color{
	rgb(0.847059, 0.321569, 0.031373),
	rgb(0.941176, 0.047059, 0.031373),
	rgb(0.960784, 0.282353, 0.282353),
	rgb(0.941176, 0.603922, 0.454902),
	rgb(0.549020, 0.313725, 0.250980),
}

var glassColors = []evaluator.Color{
	rgb(0.094118, 0.094118, 0.094118),
	rgb(0.376471, 0.219608, 0.094118),
	rgb(0.658824, 0.062745, 0.031373),
	rgb(0.156863, 0.219608, 0.658824),
	rgb(0.658824, 0.376471, 0.000000),
	rgb(0.470588, 0.439216, 0.376471),
}

// FavoriteColors is indexed by Descriptor.FavoriteColor.
var FavoriteColors = []evaluator.Color{
	rgb(0.823529, 0.117647, 0.078431),
	rgb(1.000000, 0.431373, 0.098039),
	rgb(1.000000, 0.847059, 0.125490),
	rgb(0.470588, 0.823529, 0.125490),
	rgb(0.000000, 0.470588, 0.188235),
	rgb(0.039216, 0.282353, 0.705882),
	rgb(0.235294, 0.666667, 0.870588),
	rgb(0.960784, 0.352941, 0.490196),
	rgb(0.450980, 0.156863, 0.678431),
	rgb(0.282353, 0.219608, 0.094118),
	rgb(0.878431, 0.878431, 0.878431),
	rgb(0.094118, 0.094118, 0.078431),
}

var (
	white     = rgb(1, 1, 1)
	black     = rgb(0, 0, 0)
	mouthDark = rgb(0.25, 0.02, 0.02)
)

// pick clamps i into table.
func pick(table []evaluator.Color, i int) *evaluator.Color {
	i = max(0, min(i, len(table)-1))
	c := table[i]
	return &c
}
