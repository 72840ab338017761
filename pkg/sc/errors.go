package sc

import (
	"errors"
	"fmt"
)

// Parser errors.
var (
	ErrTruncatedStream     = errors.New("truncated SC stream")
	ErrChunkLengthMismatch = errors.New("chunk length mismatch")
	ErrUnsupportedPixel    = errors.New("unsupported pixel type")
)

// LengthMismatchError reports a record whose decoded size differs from the
// length declared in its header.
type LengthMismatchError struct {
	Offset   int
	Tag      uint8
	Declared int
	Consumed int

	// Unit names what Declared counts. Empty means bytes.
	Unit string
}

func (e *LengthMismatchError) Error() string {
	unit := e.Unit
	if unit == "" {
		unit = "bytes"
	}
	return fmt.Sprintf("%v: tag %d at offset %d declares %d %s, decoded %d",
		ErrChunkLengthMismatch, e.Tag, e.Offset, e.Declared, unit, e.Consumed)
}

func (e *LengthMismatchError) Unwrap() error {
	return ErrChunkLengthMismatch
}
