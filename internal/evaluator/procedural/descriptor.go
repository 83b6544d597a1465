package procedural

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"mii-renderer/internal/evaluator"
)

// DescriptorSize is the length of a version 3 store data record.
const DescriptorSize = 96

const descriptorVersion = 3

// Descriptor is the subset of a store data record the evaluator reads.
// Every field is the raw slider value.
type Descriptor struct {
	Name          string
	Author        string
	Female        bool
	FavoriteColor int
	Height        int
	Build         int

	FaceType  int
	SkinColor int
	Wrinkle   int
	Makeup    int

	HairType  int
	HairColor int
	HairFlip  bool

	EyeType    int
	EyeColor   int
	EyeScale   int
	EyeAspect  int
	EyeRotate  int
	EyeSpacing int
	EyeY       int

	EyebrowType    int
	EyebrowColor   int
	EyebrowScale   int
	EyebrowAspect  int
	EyebrowRotate  int
	EyebrowSpacing int
	EyebrowY       int

	NoseType  int
	NoseScale int
	NoseY     int

	MouthType   int
	MouthColor  int
	MouthScale  int
	MouthAspect int
	MouthY      int

	MustacheType  int
	BeardType     int
	BeardColor    int
	MustacheScale int
	MustacheY     int

	GlassType  int
	GlassColor int
	GlassScale int
	GlassY     int

	Mole      bool
	MoleScale int
	MoleX     int
	MoleY     int
}

// bits extracts n bits of v starting at bit off.
func bits(v uint32, off, n uint) int {
	return int(v >> off & (1<<n - 1))
}

// ParseDescriptor validates and decodes a store data record.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	if len(data) != DescriptorSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", evaluator.ErrDescriptor, len(data), DescriptorSize)
	}
	if data[0] != descriptorVersion {
		return nil, fmt.Errorf("%w: version %d", evaluator.ErrDescriptor, data[0])
	}
	if got, want := crc16(data[:DescriptorSize-2]), binary.BigEndian.Uint16(data[DescriptorSize-2:]); got != want {
		return nil, fmt.Errorf("%w: checksum %#04x, want %#04x", evaluator.ErrDescriptor, got, want)
	}

	le16 := func(off int) uint32 { return uint32(binary.LittleEndian.Uint16(data[off:])) }
	le32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }

	// The creator name follows a reserved word at 0x48 and runs up to the CRC.
	d := &Descriptor{
		Name:   utf16String(data[0x1A:0x2E]),
		Author: utf16String(data[0x4A:0x5E]),
		Height: int(data[0x2E]),
		Build:  int(data[0x2F]),
	}

	info := le16(0x18)
	d.Female = bits(info, 0, 1) == 1
	d.FavoriteColor = bits(info, 10, 4)

	face := uint32(data[0x30])
	d.FaceType = bits(face, 1, 4)
	d.SkinColor = bits(face, 5, 3)
	d.Wrinkle = bits(uint32(data[0x31]), 0, 4)
	d.Makeup = bits(uint32(data[0x31]), 4, 4)

	d.HairType = int(data[0x32])
	d.HairColor = bits(uint32(data[0x33]), 0, 3)
	d.HairFlip = bits(uint32(data[0x33]), 3, 1) == 1

	eye := le32(0x34)
	d.EyeType = bits(eye, 0, 6)
	d.EyeColor = bits(eye, 6, 3)
	d.EyeScale = bits(eye, 9, 4)
	d.EyeAspect = bits(eye, 13, 3)
	d.EyeRotate = bits(eye, 16, 5)
	d.EyeSpacing = bits(eye, 21, 4)
	d.EyeY = bits(eye, 25, 5)

	brow := le32(0x38)
	d.EyebrowType = bits(brow, 0, 5)
	d.EyebrowColor = bits(brow, 5, 3)
	d.EyebrowScale = bits(brow, 8, 4)
	d.EyebrowAspect = bits(brow, 12, 3)
	d.EyebrowRotate = bits(brow, 16, 5)
	d.EyebrowSpacing = bits(brow, 21, 4)
	d.EyebrowY = bits(brow, 25, 5)

	nose := le16(0x3C)
	d.NoseType = bits(nose, 0, 5)
	d.NoseScale = bits(nose, 5, 4)
	d.NoseY = bits(nose, 9, 5)

	mouth := le16(0x3E)
	d.MouthType = bits(mouth, 0, 6)
	d.MouthColor = bits(mouth, 6, 3)
	d.MouthScale = bits(mouth, 9, 4)
	d.MouthAspect = bits(mouth, 13, 3)

	mustache := le16(0x40)
	d.MouthY = bits(mustache, 0, 5)
	d.MustacheType = bits(mustache, 5, 3)

	beard := le16(0x42)
	d.BeardType = bits(beard, 0, 3)
	d.BeardColor = bits(beard, 3, 3)
	d.MustacheScale = bits(beard, 6, 4)
	d.MustacheY = bits(beard, 10, 5)

	glass := le16(0x44)
	d.GlassType = bits(glass, 0, 4)
	d.GlassColor = bits(glass, 4, 3)
	d.GlassScale = bits(glass, 7, 4)
	d.GlassY = bits(glass, 11, 5)

	mole := le16(0x46)
	d.Mole = bits(mole, 0, 1) == 1
	d.MoleScale = bits(mole, 1, 4)
	d.MoleX = bits(mole, 5, 5)
	d.MoleY = bits(mole, 10, 5)

	return d, nil
}

func utf16String(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// crc16 is CRC-16/XMODEM: polynomial 0x1021, zero initial value.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
