package ktx

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	in := &Texture{GLInternalFormat: 0x9274, Width: 8, Height: 4, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}}
	data := Encode(in)

	assert.Equal(t, Identifier, data[:12])
	assert.Equal(t, uint32(0x04030201), binary.LittleEndian.Uint32(data[12:]))
	assert.Len(t, data, headerSize+4+len(in.Data))

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeErrors(t *testing.T) {
	valid := Encode(&Texture{GLInternalFormat: 0x93B0, Width: 4, Height: 4, Data: make([]byte, 16)})

	_, err := Decode(valid[:20])
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Decode(valid[:len(valid)-1])
	assert.ErrorIs(t, err, ErrTruncated)

	bad := append([]byte(nil), valid...)
	bad[1] = 'X'
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}
