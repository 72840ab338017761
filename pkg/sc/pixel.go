package sc

import (
	"encoding/binary"
	"fmt"
	"image"
)

// PixelType identifies the storage layout of texture pixels. Uncompressed
// layouts fit in the record's type byte; block-compressed identifiers are
// only seen through KTX containers and external texture files.
type PixelType uint16

// Uncompressed pixel layouts.
const (
	PixelRGBA8888    PixelType = 0
	PixelRGBA8888Alt PixelType = 1
	PixelRGBA4444    PixelType = 2
	PixelRGBA5551    PixelType = 3
	PixelRGB565      PixelType = 4
	PixelLA88        PixelType = 6
	PixelL8          PixelType = 10
)

// Block-compressed pixel layouts.
const (
	PixelEACR11           PixelType = 170
	PixelEACSignedR11     PixelType = 172
	PixelEACRG11          PixelType = 174
	PixelEACSignedRG11    PixelType = 176
	PixelETC2EACRGBA8     PixelType = 178
	PixelETC2EACSRGBA8    PixelType = 179
	PixelETC2RGB8         PixelType = 180
	PixelETC2SRGB8        PixelType = 181
	PixelETC2RGB8A1       PixelType = 182
	PixelETC2SRGB8A1      PixelType = 183
	PixelASTCSRGBA8x4x4   PixelType = 186
	PixelASTCSRGBA8x12x12 PixelType = 200
	PixelASTCRGBA8x4x4    PixelType = 204
	PixelASTCRGBA8x12x12  PixelType = 218
	PixelETC1RGB8         PixelType = 263
)

const (
	astcSRGBAFirst = PixelASTCSRGBA8x4x4
	astcRGBAFirst  = PixelASTCRGBA8x4x4

	glCompressedSRGB8ASTC4x4 = 0x93D0
	glCompressedRGBAASTC4x4  = 0x93B0
)

var glFormats = map[PixelType]uint32{
	PixelETC1RGB8:      0x8D64,
	PixelEACR11:        0x9270,
	PixelEACSignedR11:  0x9271,
	PixelEACRG11:       0x9272,
	PixelEACSignedRG11: 0x9273,
	PixelETC2RGB8:      0x9274,
	PixelETC2SRGB8:     0x9275,
	PixelETC2RGB8A1:    0x9276,
	PixelETC2SRGB8A1:   0x9277,
	PixelETC2EACRGBA8:  0x9278,
	PixelETC2EACSRGBA8: 0x9279,
}

// astcBlockOrder lists ASTC footprints in identifier order. Identifiers 191
// and 209 are unused, so the 6x6 entry is followed by a gap.
var astcBlockOrder = []PixelType{0, 1, 2, 3, 4, 6, 7, 8, 9, 10, 11, 12, 13, 14}

// astcFootprints are the block dimensions matching astcBlockOrder.
var astcFootprints = [][2]int{
	{4, 4}, {5, 4}, {5, 5}, {6, 5}, {6, 6}, {8, 5}, {8, 6},
	{8, 8}, {10, 5}, {10, 6}, {10, 8}, {10, 10}, {12, 10}, {12, 12},
}

// BytesPerPixel returns the stored size of one pixel, or 0 for
// block-compressed and unknown layouts.
func (p PixelType) BytesPerPixel() int {
	switch p {
	case PixelRGBA8888, PixelRGBA8888Alt:
		return 4
	case PixelRGBA4444, PixelRGBA5551, PixelRGB565, PixelLA88:
		return 2
	case PixelL8:
		return 1
	}
	return 0
}

// Block returns the block width, height and byte size of a block-compressed
// layout. ok is false for uncompressed and unknown layouts.
func (p PixelType) Block() (width, height, size int, ok bool) {
	switch p {
	case PixelETC1RGB8, PixelETC2RGB8, PixelETC2SRGB8, PixelETC2RGB8A1,
		PixelETC2SRGB8A1, PixelEACR11, PixelEACSignedR11:
		return 4, 4, 8, true
	case PixelEACRG11, PixelEACSignedRG11, PixelETC2EACRGBA8, PixelETC2EACSRGBA8:
		return 4, 4, 16, true
	}
	for i, off := range astcBlockOrder {
		if p == astcSRGBAFirst+off || p == astcRGBAFirst+off {
			return astcFootprints[i][0], astcFootprints[i][1], 16, true
		}
	}
	return 0, 0, 0, false
}

// DataSize returns the stored size of a width x height texture, or 0 when
// the layout is unknown.
func (p PixelType) DataSize(width, height int) int {
	if bpp := p.BytesPerPixel(); bpp > 0 {
		return width * height * bpp
	}
	bw, bh, size, ok := p.Block()
	if !ok {
		return 0
	}
	return ((width + bw - 1) / bw) * ((height + bh - 1) / bh) * size
}

// Compressed reports whether p is a known block-compressed layout.
func (p PixelType) Compressed() bool {
	_, ok := p.GLInternalFormat()
	return ok
}

// GLInternalFormat returns the OpenGL internal format used to describe a
// block-compressed layout inside a KTX container.
func (p PixelType) GLInternalFormat() (uint32, bool) {
	if f, ok := glFormats[p]; ok {
		return f, true
	}
	for i, off := range astcBlockOrder {
		switch p {
		case astcSRGBAFirst + off:
			return glCompressedSRGB8ASTC4x4 + uint32(i), true
		case astcRGBAFirst + off:
			return glCompressedRGBAASTC4x4 + uint32(i), true
		}
	}
	return 0, false
}

// PixelTypeForGL maps an OpenGL internal format back to a pixel type.
func PixelTypeForGL(format uint32) (PixelType, bool) {
	for p, f := range glFormats {
		if f == format {
			return p, true
		}
	}
	for i, off := range astcBlockOrder {
		switch format {
		case glCompressedSRGB8ASTC4x4 + uint32(i):
			return astcSRGBAFirst + off, true
		case glCompressedRGBAASTC4x4 + uint32(i):
			return astcRGBAFirst + off, true
		}
	}
	return 0, false
}

func (p PixelType) String() string {
	switch p {
	case PixelRGBA8888, PixelRGBA8888Alt:
		return "RGBA8888"
	case PixelRGBA4444:
		return "RGBA4444"
	case PixelRGBA5551:
		return "RGBA5551"
	case PixelRGB565:
		return "RGB565"
	case PixelLA88:
		return "LA88"
	case PixelL8:
		return "L8"
	case PixelETC1RGB8:
		return "ETC1"
	}
	if p.Compressed() {
		if p >= PixelEACR11 && p <= PixelETC2SRGB8A1 {
			return fmt.Sprintf("ETC2/EAC(%d)", uint16(p))
		}
		return fmt.Sprintf("ASTC(%d)", uint16(p))
	}
	return fmt.Sprintf("PixelType(%d)", uint16(p))
}

// DecodePixels expands uncompressed texture data to an NRGBA image.
func DecodePixels(p PixelType, width, height int, data []byte) (*image.NRGBA, error) {
	bpp := p.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPixel, p)
	}
	if need := width * height * bpp; len(data) < need {
		return nil, fmt.Errorf("%w: %s %dx%d needs %d bytes, have %d",
			ErrTruncatedStream, p, width, height, need, len(data))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	pix := img.Pix
	for i := 0; i < width*height; i++ {
		o := i * 4
		switch bpp {
		case 4:
			copy(pix[o:o+4], data[i*4:i*4+4])
			continue
		case 1:
			l := data[i]
			pix[o], pix[o+1], pix[o+2], pix[o+3] = l, l, l, 0xFF
			continue
		}

		v := binary.LittleEndian.Uint16(data[i*2:])
		switch p {
		case PixelRGBA4444:
			pix[o] = expand(v>>12, 4)
			pix[o+1] = expand(v>>8, 4)
			pix[o+2] = expand(v>>4, 4)
			pix[o+3] = expand(v, 4)
		case PixelRGBA5551:
			pix[o] = expand(v>>11, 5)
			pix[o+1] = expand(v>>6, 5)
			pix[o+2] = expand(v>>1, 5)
			pix[o+3] = 0xFF * uint8(v&1)
		case PixelRGB565:
			pix[o] = expand(v>>11, 5)
			pix[o+1] = expand(v>>5, 6)
			pix[o+2] = expand(v, 5)
			pix[o+3] = 0xFF
		case PixelLA88:
			l := uint8(v >> 8)
			pix[o], pix[o+1], pix[o+2], pix[o+3] = l, l, l, uint8(v)
		}
	}
	return img, nil
}

// expand scales the low bits of v to the full 0..255 range.
func expand(v uint16, bits uint) uint8 {
	top := uint16(1)<<bits - 1
	return uint8(uint32(v&top) * 255 / uint32(top))
}
