// Package texture binds SC texture records to pixel data. A texture is
// looked up in the same stream first, then in the <name>_tex.sc companion,
// then in external .sctx or .ktx files decoded by external tools.
package texture

import (
	"errors"
	"fmt"
	"image"

	"github.com/Faultbox/sc2fla/pkg/sc"
)

// ErrUnresolvedTexture is matched by every *UnresolvedError.
var ErrUnresolvedTexture = errors.New("unresolved texture")

// UnresolvedError reports a texture no source could provide.
type UnresolvedError struct {
	ID    int
	Cause error
}

func (e *UnresolvedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v %d: %v", ErrUnresolvedTexture, e.ID, e.Cause)
	}
	return fmt.Sprintf("%v %d", ErrUnresolvedTexture, e.ID)
}

func (e *UnresolvedError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrUnresolvedTexture, e.Cause}
	}
	return []error{ErrUnresolvedTexture}
}

// Source says where a texture's data came from.
type Source uint8

const (
	Embedded Source = iota
	Companion
	External
)

func (s Source) String() string {
	switch s {
	case Embedded:
		return "embedded"
	case Companion:
		return "companion"
	default:
		return "external"
	}
}

// Resolved is a texture bound to its data.
type Resolved struct {
	Index     int
	PixelType sc.PixelType
	Width     int
	Height    int

	// Raw is the texture as stored: pixels in PixelType layout, a KTX
	// container, or the bytes of an external file.
	Raw []byte

	// Image is the decoded sheet. It is nil when only raw data was asked
	// for.
	Image *image.NRGBA

	Source Source

	// Origin is the file the data was read from.
	Origin string
}
