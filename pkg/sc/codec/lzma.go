package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

const (
	// Supercell streams shorten the 8-byte size of the LZMA-alone header to 4 bytes.
	lzmaPropsLen     = 5
	lzmaShortHdrLen  = lzmaPropsLen + 4
	lzmaAloneHdrLen  = lzmaPropsLen + 8
	lzmaDictCap      = 1 << 18
	lzmaUnknownSize  = 0xFFFFFFFF
	lzmaMaxTrustSize = 1 << 31
)

func decompressLZMA(payload []byte) ([]byte, error) {
	if len(payload) < lzmaShortHdrLen {
		return nil, fmt.Errorf("%w: LZMA header needs %d bytes, have %d", ErrTruncatedStream, lzmaShortHdrLen, len(payload))
	}

	size := binary.LittleEndian.Uint32(payload[lzmaPropsLen:lzmaShortHdrLen])

	header := make([]byte, lzmaAloneHdrLen)
	copy(header, payload[:lzmaPropsLen])
	if size == lzmaUnknownSize {
		for i := lzmaPropsLen; i < lzmaAloneHdrLen; i++ {
			header[i] = 0xFF
		}
	} else {
		binary.LittleEndian.PutUint64(header[lzmaPropsLen:], uint64(size))
	}

	r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header), bytes.NewReader(payload[lzmaShortHdrLen:])))
	if err != nil {
		return nil, fmt.Errorf("%w: LZMA header: %v", ErrUnknownFormat, err)
	}

	var out bytes.Buffer
	if size != lzmaUnknownSize && size < lzmaMaxTrustSize {
		out.Grow(int(size))
	}
	if _, err := io.Copy(&out, r); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: LZMA payload ended early", ErrTruncatedStream)
		}
		return nil, fmt.Errorf("%w: LZMA payload: %v", ErrTruncatedStream, err)
	}

	if size != lzmaUnknownSize && out.Len() != int(size) {
		return nil, fmt.Errorf("%w: LZMA produced %d bytes, header declares %d", ErrTruncatedStream, out.Len(), size)
	}
	return out.Bytes(), nil
}

func compressLZMA(raw []byte) ([]byte, error) {
	if uint64(len(raw)) >= lzmaUnknownSize {
		return nil, fmt.Errorf("%w: stream of %d bytes does not fit a 4-byte LZMA size", ErrUnsupportedKind, len(raw))
	}

	var buf bytes.Buffer
	cfg := lzma.WriterConfig{
		Properties:   &lzma.Properties{LC: 3, LP: 0, PB: 2},
		DictCap:      lzmaDictCap,
		SizeInHeader: true,
		Size:         int64(len(raw)),
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzma writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("lzma compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzma compress: %w", err)
	}

	alone := buf.Bytes()
	out := make([]byte, 0, len(alone)-4)
	out = append(out, alone[:lzmaPropsLen]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(raw)))
	return append(out, alone[lzmaAloneHdrLen:]...), nil
}
