package codec

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

const (
	scMagic       = "SC"
	sclzMagic     = "SCLZ"
	metadataStart = "START"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// scHeader is a parsed "SC" container header.
type scHeader struct {
	kind     Kind
	version  uint32
	hash     []byte
	payload  []byte
	metadata []byte
	zstd     bool
}

// Detect inspects the header of data and reports its container kind.
func Detect(data []byte) (Kind, error) {
	switch {
	case len(data) >= 2 && string(data[:2]) == scMagic:
		header, err := readSCHeader(data)
		if err != nil {
			return KindNone, err
		}
		return header.kind, nil
	case hasZstdMagic(data):
		return KindZstd, nil
	case hasLZMAHeader(data):
		return KindLZMA, nil
	default:
		return KindNone, ErrUnknownFormat
	}
}

// FileVersion reports the SC file version stored after the "SC" magic. The
// word is accepted in either byte order; versions 1..4 are SC1 files and
// 5..6 are SC2 files.
func FileVersion(data []byte) (uint32, bool) {
	if len(data) < 6 || string(data[:2]) != scMagic {
		return 0, false
	}
	be := binary.BigEndian.Uint32(data[2:6])
	le := binary.LittleEndian.Uint32(data[2:6])
	switch {
	case be >= 1 && be <= 6:
		return be, true
	case le >= 1 && le <= 6:
		return le, true
	default:
		return 0, false
	}
}

// IsSC2 reports whether version belongs to the SC2 file generation.
func IsSC2(version uint32) bool {
	return version == 5 || version == 6
}

func hasZstdMagic(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// hasLZMAHeader matches the properties byte (lc=3 lp=0 pb=2) followed by the
// low bytes of a dictionary size, which is what Supercell tooling emits.
func hasLZMAHeader(data []byte) bool {
	return len(data) >= 3 && data[0] == 0x5D && data[1] == 0x00 && data[2] == 0x00
}

func readSCHeader(data []byte) (*scHeader, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("%w: SC header needs 10 bytes, have %d", ErrTruncatedStream, len(data))
	}
	if string(data[:2]) != scMagic {
		return nil, fmt.Errorf("%w: missing SC magic", ErrUnknownFormat)
	}

	h := &scHeader{version: binary.BigEndian.Uint32(data[2:6])}
	offset := 6

	if h.version == 4 {
		if len(data) < 14 {
			return nil, fmt.Errorf("%w: SC v4 header needs 14 bytes, have %d", ErrTruncatedStream, len(data))
		}
		// Inner version word; the payload layout is the same either way.
		offset += 4
	} else if h.version < 1 || h.version > 3 {
		return nil, fmt.Errorf("%w: unsupported SC container version %d", ErrUnknownFormat, h.version)
	}

	hashLen := int(binary.BigEndian.Uint32(data[offset:]))
	offset += 4
	if hashLen < 0 || hashLen > len(data)-offset {
		return nil, fmt.Errorf("%w: hash length %d exceeds container", ErrTruncatedStream, hashLen)
	}
	h.hash = data[offset : offset+hashLen]
	h.payload = data[offset+hashLen:]

	if h.version == 4 {
		if idx := bytes.LastIndex(h.payload, []byte(metadataStart)); idx >= 0 {
			h.metadata = h.payload[idx+len(metadataStart):]
			h.payload = h.payload[:idx]
		}
	}

	switch {
	case bytes.HasPrefix(h.payload, []byte(sclzMagic)):
		return nil, fmt.Errorf("%w: LZHAM (SCLZ) payloads are not supported", ErrUnknownFormat)
	case hasZstdMagic(h.payload):
		h.zstd = true
	}

	if h.version == 1 && !h.zstd {
		h.kind = KindV1
	} else {
		h.kind = KindSC
	}
	return h, nil
}

func writeSCHeader(version uint32, raw, payload []byte) []byte {
	hash := md5.Sum(raw)

	out := make([]byte, 0, 10+len(hash)+len(payload))
	out = append(out, scMagic...)
	out = binary.BigEndian.AppendUint32(out, version)
	out = binary.BigEndian.AppendUint32(out, uint32(len(hash)))
	out = append(out, hash[:]...)
	return append(out, payload...)
}
