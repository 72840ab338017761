package sc

import (
	"encoding/binary"
	"errors"

	"github.com/Faultbox/sc2fla/pkg/encoding"
)

var errShort = errors.New("short read")

// reader is a forward-only cursor over an SC stream. The first failed read
// sticks; later reads return zero values.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || n > r.remaining() {
		r.err = errShort
		return false
	}
	return true
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) i32() int32 {
	return int32(r.u32())
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}

// str reads a length-prefixed string. A length of 0xFF encodes "no string".
func (r *reader) str() (string, bool) {
	b, ok := r.rawStr()
	if !ok {
		return "", false
	}
	return encoding.DecodeString(b), true
}

// rawStr reads a length-prefixed string without decoding it.
func (r *reader) rawStr() ([]byte, bool) {
	n := r.u8()
	if r.err != nil || n == 0xFF {
		return nil, false
	}
	b := r.bytes(int(n))
	if r.err != nil {
		return nil, false
	}
	return b, true
}

// twip reads a coordinate stored in twentieths of a pixel.
func (r *reader) twip() float64 {
	return float64(r.i32()) / 20
}
