package sc

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePixels(t *testing.T) {
	tests := []struct {
		name string
		pt   PixelType
		data []byte
		want color.NRGBA
	}{
		{"rgba8888", PixelRGBA8888, []byte{10, 20, 30, 40}, color.NRGBA{10, 20, 30, 40}},
		{"rgba4444", PixelRGBA4444, []byte{0x0F, 0xF0}, color.NRGBA{0xFF, 0x00, 0x00, 0xFF}},
		{"rgba5551", PixelRGBA5551, []byte{0x01, 0xF8}, color.NRGBA{0xFF, 0x00, 0x00, 0xFF}},
		{"rgb565", PixelRGB565, []byte{0xE0, 0x07}, color.NRGBA{0x00, 0xFF, 0x00, 0xFF}},
		{"la88", PixelLA88, []byte{0x40, 0x80}, color.NRGBA{0x80, 0x80, 0x80, 0x40}},
		{"l8", PixelL8, []byte{0x33}, color.NRGBA{0x33, 0x33, 0x33, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodePixels(tt.pt, 1, 1, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, img.NRGBAAt(0, 0))
		})
	}
}

func TestDecodePixelsErrors(t *testing.T) {
	_, err := DecodePixels(PixelETC2RGB8, 4, 4, make([]byte, 8))
	assert.ErrorIs(t, err, ErrUnsupportedPixel)

	_, err = DecodePixels(PixelRGBA8888, 2, 2, make([]byte, 15))
	assert.ErrorIs(t, err, ErrTruncatedStream)
}

func TestGLInternalFormat(t *testing.T) {
	tests := []struct {
		pt   PixelType
		want uint32
	}{
		{PixelETC1RGB8, 0x8D64},
		{PixelEACR11, 0x9270},
		{PixelETC2EACRGBA8, 0x9278},
		{PixelASTCRGBA8x4x4, 0x93B0},
		{PixelType(208), 0x93B4},
		{PixelType(210), 0x93B5},
		{PixelASTCRGBA8x12x12, 0x93BD},
		{PixelASTCSRGBA8x4x4, 0x93D0},
		{PixelASTCSRGBA8x12x12, 0x93DD},
	}

	for _, tt := range tests {
		got, ok := tt.pt.GLInternalFormat()
		require.True(t, ok, tt.pt.String())
		assert.Equal(t, tt.want, got, tt.pt.String())
		assert.True(t, tt.pt.Compressed())
		assert.Equal(t, 0, tt.pt.BytesPerPixel())

		back, ok := PixelTypeForGL(got)
		require.True(t, ok)
		assert.Equal(t, tt.pt, back)
	}

	for _, pt := range []PixelType{PixelRGBA8888, PixelL8, 191, 209, 99} {
		_, ok := pt.GLInternalFormat()
		assert.False(t, ok, pt.String())
	}
}

func TestDataSize(t *testing.T) {
	tests := []struct {
		pt            PixelType
		width, height int
		want          int
	}{
		{PixelRGBA8888, 3, 2, 24},
		{PixelRGB565, 3, 2, 12},
		{PixelL8, 3, 2, 6},
		{PixelETC2RGB8, 4, 4, 8},
		{PixelETC2RGB8, 5, 4, 16},
		{PixelETC2EACRGBA8, 8, 8, 64},
		{PixelASTCRGBA8x4x4, 4, 4, 16},
		{PixelType(208), 12, 12, 64},
		{PixelType(210), 16, 5, 32},
		{PixelASTCSRGBA8x12x12, 13, 12, 32},
		{PixelType(99), 4, 4, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.pt.DataSize(tt.width, tt.height), "%s %dx%d", tt.pt, tt.width, tt.height)
	}
}
