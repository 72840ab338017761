// Package codec implements the compression layer of Supercell .sc containers.
//
// Three compressed layouts are produced and consumed:
//
//	LZMA  bare LZMA stream with a 4-byte uncompressed size in the header
//	V1    "SC" header (version 1, MD5 of the raw stream) + LZMA payload
//	SC    "SC" header (version 3, MD5 of the raw stream) + zstd payload
//
// Version 4 "SC" headers (an inner version word and a "START" metadata trailer)
// and bare zstd frames are accepted on decompression only.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

// Codec errors.
var (
	ErrUnknownFormat   = errors.New("unknown compression format")
	ErrTruncatedStream = errors.New("truncated compressed stream")
	ErrUnsupportedKind = errors.New("unsupported compression kind")
)

// Kind identifies the compression framing of a container.
type Kind uint8

const (
	// KindNone is the identity transform.
	KindNone Kind = iota
	// KindLZMA is a bare LZMA stream with a shortened size field.
	KindLZMA
	// KindSC is an "SC" container with a zstd payload.
	KindSC
	// KindV1 is an "SC" container (version 1) with an LZMA payload.
	KindV1
	// KindZstd is a bare zstd frame. Decompression only.
	KindZstd
)

// String returns the kind name as used on the command line.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindLZMA:
		return "LZMA"
	case KindSC:
		return "SC"
	case KindV1:
		return "V1"
	case KindZstd:
		return "ZSTD"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses one of the compressible kinds (LZMA, SC, V1). Matching is
// case-insensitive.
func ParseKind(name string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "LZMA":
		return KindLZMA, nil
	case "SC":
		return KindSC, nil
	case "V1":
		return KindV1, nil
	default:
		return KindNone, fmt.Errorf("%w: %q (expected LZMA, SC or V1)", ErrUnsupportedKind, name)
	}
}

// Container is a decompressed container together with its framing details.
type Container struct {
	Kind Kind

	// Version is the "SC" header version (1, 3 or 4); zero for bare streams.
	Version uint32

	// Hash is the digest stored in the "SC" header.
	Hash []byte

	// Metadata is the trailer following "START" in version 4 containers.
	Metadata []byte

	// Data is the decompressed stream.
	Data []byte
}

// Decompress detects the container kind from its header and decompresses it.
func Decompress(data []byte) (*Container, error) {
	kind, err := Detect(data)
	if err != nil {
		return nil, err
	}
	return DecompressKind(data, kind)
}

// DecompressKind decompresses data framed as kind. A header that does not
// match kind is reported as ErrUnknownFormat.
func DecompressKind(data []byte, kind Kind) (*Container, error) {
	switch kind {
	case KindNone:
		return &Container{Kind: KindNone, Data: data}, nil

	case KindLZMA:
		if !hasLZMAHeader(data) {
			return nil, fmt.Errorf("%w: missing LZMA header", ErrUnknownFormat)
		}
		raw, err := decompressLZMA(data)
		if err != nil {
			return nil, err
		}
		return &Container{Kind: KindLZMA, Data: raw}, nil

	case KindZstd:
		if !hasZstdMagic(data) {
			return nil, fmt.Errorf("%w: missing zstd magic", ErrUnknownFormat)
		}
		raw, err := decompressZstd(data)
		if err != nil {
			return nil, err
		}
		return &Container{Kind: KindZstd, Data: raw}, nil

	case KindSC, KindV1:
		header, err := readSCHeader(data)
		if err != nil {
			return nil, err
		}
		if header.kind != kind {
			return nil, fmt.Errorf("%w: header declares %s, not %s", ErrUnknownFormat, header.kind, kind)
		}

		var raw []byte
		if header.zstd {
			raw, err = decompressZstd(header.payload)
		} else {
			raw, err = decompressLZMA(header.payload)
		}
		if err != nil {
			return nil, err
		}
		return &Container{
			Kind:     header.kind,
			Version:  header.version,
			Hash:     header.hash,
			Metadata: header.metadata,
			Data:     raw,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
}

// Compress frames raw as kind. The kind must be chosen explicitly; it is
// never inferred.
func Compress(raw []byte, kind Kind) ([]byte, error) {
	switch kind {
	case KindLZMA:
		return compressLZMA(raw)

	case KindV1:
		payload, err := compressLZMA(raw)
		if err != nil {
			return nil, err
		}
		return writeSCHeader(1, raw, payload), nil

	case KindSC:
		return writeSCHeader(3, raw, compressZstd(raw)), nil

	default:
		return nil, fmt.Errorf("%w: cannot compress as %s", ErrUnsupportedKind, kind)
	}
}
