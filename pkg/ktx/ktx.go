// Package ktx reads and writes single-image KTX 1.1 containers, the form in
// which block-compressed SC textures are handed to external decoders.
package ktx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Identifier is the KTX 1.1 file signature.
var Identifier = []byte{0xAB, 0x4B, 0x54, 0x58, 0x20, 0x31, 0x31, 0xBB, 0x0D, 0x0A, 0x1A, 0x0A}

const (
	endianness = 0x04030201
	headerSize = 64

	// glRGBA is used as the base internal format for every compressed image.
	glRGBA = 0x1908
)

// Parsing errors.
var (
	ErrInvalidIdentifier = errors.New("invalid KTX identifier")
	ErrTruncated         = errors.New("truncated KTX data")
	ErrUnsupported       = errors.New("unsupported KTX layout")
)

// Texture is the first image of a KTX container.
type Texture struct {
	GLInternalFormat uint32
	Width            uint32
	Height           uint32
	Data             []byte
}

// Encode writes t as a KTX 1.1 container with one face and one mip level.
func Encode(t *Texture) []byte {
	var buf bytes.Buffer
	buf.Grow(headerSize + 4 + len(t.Data))
	buf.Write(Identifier)

	header := []uint32{
		endianness,
		0, // glType
		1, // glTypeSize
		0, // glFormat
		t.GLInternalFormat,
		glRGBA,
		t.Width,
		t.Height,
		0, // pixelDepth
		0, // numberOfArrayElements
		1, // numberOfFaces
		1, // numberOfMipmapLevels
		0, // bytesOfKeyValueData
	}
	binary.Write(&buf, binary.LittleEndian, header)
	binary.Write(&buf, binary.LittleEndian, uint32(len(t.Data)))
	buf.Write(t.Data)
	return buf.Bytes()
}

// Decode reads the first mip level of the first face.
func Decode(data []byte) (*Texture, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if !bytes.Equal(data[:len(Identifier)], Identifier) {
		return nil, ErrInvalidIdentifier
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch binary.LittleEndian.Uint32(data[12:]) {
	case endianness:
	case 0x01020304:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad endianness marker", ErrUnsupported)
	}

	field := func(i int) uint32 { return order.Uint32(data[12+i*4:]) }
	t := &Texture{
		GLInternalFormat: field(4),
		Width:            field(6),
		Height:           field(7),
	}
	if depth := field(8); depth > 1 {
		return nil, fmt.Errorf("%w: 3D texture", ErrUnsupported)
	}

	pos := headerSize + int(field(12))
	if pos+4 > len(data) {
		return nil, fmt.Errorf("%w: key/value data", ErrTruncated)
	}
	size := int(order.Uint32(data[pos:]))
	pos += 4
	if size < 0 || pos+size > len(data) {
		return nil, fmt.Errorf("%w: image needs %d bytes", ErrTruncated, size)
	}
	t.Data = data[pos : pos+size]
	return t, nil
}
