package codec

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleStream returns a compressible byte stream that looks like an SC body.
func sampleStream() []byte {
	var buf bytes.Buffer
	for i := 0; i < 512; i++ {
		buf.WriteByte(byte(i % 7))
		binary.Write(&buf, binary.LittleEndian, uint32(i))
		buf.WriteString("shape")
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	raw := sampleStream()

	for _, kind := range []Kind{KindLZMA, KindSC, KindV1} {
		t.Run(kind.String(), func(t *testing.T) {
			packed, err := Compress(raw, kind)
			require.NoError(t, err)

			c, err := DecompressKind(packed, kind)
			require.NoError(t, err)
			assert.Equal(t, raw, c.Data)
			assert.Equal(t, kind, c.Kind)

			detected, err := Detect(packed)
			require.NoError(t, err)
			assert.Equal(t, kind, detected)

			auto, err := Decompress(packed)
			require.NoError(t, err)
			assert.Equal(t, raw, auto.Data)
		})
	}
}

func TestCompressSCHeader(t *testing.T) {
	raw := sampleStream()

	tests := []struct {
		kind    Kind
		version uint32
	}{
		{KindV1, 1},
		{KindSC, 3},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			packed, err := Compress(raw, tt.kind)
			require.NoError(t, err)

			assert.Equal(t, "SC", string(packed[:2]))
			assert.Equal(t, tt.version, binary.BigEndian.Uint32(packed[2:6]))
			assert.Equal(t, uint32(16), binary.BigEndian.Uint32(packed[6:10]))

			want := md5.Sum(raw)
			assert.Equal(t, want[:], packed[10:26])

			c, err := DecompressKind(packed, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.version, c.Version)
			assert.Equal(t, want[:], c.Hash)
		})
	}
}

func TestCompressLZMAShortHeader(t *testing.T) {
	raw := sampleStream()
	packed, err := Compress(raw, KindLZMA)
	require.NoError(t, err)

	assert.Equal(t, byte(0x5D), packed[0])
	assert.Equal(t, uint32(lzmaDictCap), binary.LittleEndian.Uint32(packed[1:5]))
	assert.Equal(t, uint32(len(raw)), binary.LittleEndian.Uint32(packed[5:9]))
}

func TestCompressRejectsImplicitKinds(t *testing.T) {
	for _, kind := range []Kind{KindNone, KindZstd, Kind(99)} {
		_, err := Compress([]byte("data"), kind)
		assert.ErrorIs(t, err, ErrUnsupportedKind, kind.String())
	}
}

func TestDecompressUnknownFormat(t *testing.T) {
	_, err := Decompress([]byte("definitely not compressed"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Decompress(nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecompressTruncated(t *testing.T) {
	raw := sampleStream()

	for _, kind := range []Kind{KindLZMA, KindSC, KindV1} {
		t.Run(kind.String(), func(t *testing.T) {
			packed, err := Compress(raw, kind)
			require.NoError(t, err)

			_, err = DecompressKind(packed[:len(packed)/2], kind)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTruncatedStream)
			assert.False(t, errors.Is(err, ErrUnknownFormat))
		})
	}
}

func TestDecompressHeaderTooShort(t *testing.T) {
	_, err := DecompressKind([]byte("SC\x00\x00"), KindSC)
	assert.ErrorIs(t, err, ErrTruncatedStream)

	_, err = DecompressKind([]byte{0x5D, 0x00, 0x00, 0x04}, KindLZMA)
	assert.ErrorIs(t, err, ErrTruncatedStream)
}

func TestDecompressKindMismatch(t *testing.T) {
	packed, err := Compress(sampleStream(), KindV1)
	require.NoError(t, err)

	_, err = DecompressKind(packed, KindSC)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = DecompressKind(packed, KindLZMA)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecompressVersion4Metadata(t *testing.T) {
	raw := sampleStream()
	payload := compressZstd(raw)
	hash := md5.Sum(raw)

	var buf bytes.Buffer
	buf.WriteString("SC")
	binary.Write(&buf, binary.BigEndian, uint32(4))
	binary.Write(&buf, binary.BigEndian, uint32(1))
	binary.Write(&buf, binary.BigEndian, uint32(len(hash)))
	buf.Write(hash[:])
	buf.Write(payload)
	buf.WriteString("START")
	buf.WriteString("metadata-blob")

	c, err := Decompress(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, KindSC, c.Kind)
	assert.Equal(t, uint32(4), c.Version)
	assert.Equal(t, raw, c.Data)
	assert.Equal(t, []byte("metadata-blob"), c.Metadata)
}

func TestDecompressBareZstd(t *testing.T) {
	raw := sampleStream()
	c, err := Decompress(compressZstd(raw))
	require.NoError(t, err)
	assert.Equal(t, KindZstd, c.Kind)
	assert.Equal(t, raw, c.Data)
}

func TestDecompressSCLZUnsupported(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("SC")
	binary.Write(&buf, binary.BigEndian, uint32(3))
	binary.Write(&buf, binary.BigEndian, uint32(0))
	buf.WriteString("SCLZ....")

	_, err := Decompress(buf.Bytes())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecompressNone(t *testing.T) {
	c, err := DecompressKind([]byte("plain"), KindNone)
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), c.Data)
}

func TestFileVersion(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		version uint32
		ok      bool
	}{
		{"big endian sc1", []byte("SC\x00\x00\x00\x01"), 1, true},
		{"little endian sc2", []byte("SC\x05\x00\x00\x00"), 5, true},
		{"big endian sc2", []byte("SC\x00\x00\x00\x06"), 6, true},
		{"bad magic", []byte("XX\x00\x00\x00\x01"), 0, false},
		{"out of range", []byte("SC\x00\x00\x00\x09"), 0, false},
		{"short", []byte("SC"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, ok := FileVersion(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.version, version)
		})
	}

	assert.True(t, IsSC2(5))
	assert.False(t, IsSC2(4))
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"lzma", KindLZMA},
		{"SC", KindSC},
		{" v1 ", KindV1},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseKind("zip")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}
