package sc

import (
	"bytes"
	"encoding/binary"

	"github.com/Faultbox/sc2fla/pkg/encoding"
)

// Bank is one matrix bank: the transforms a movie clip's frame elements
// index into. A stream starts in bank 0; each matrix bank record opens a
// new one.
type Bank struct {
	Matrices []Matrix
	Colors   []ColorTransform
}

// Matrix returns transform i, or the identity when i is out of range.
func (b *Bank) Matrix(i uint16) Matrix {
	if b == nil || i == NoIndex || int(i) >= len(b.Matrices) {
		return Identity
	}
	return b.Matrices[i]
}

// Color returns colour transform i, or nil when i is out of range.
func (b *Bank) Color(i uint16) *ColorTransform {
	if b == nil || i == NoIndex || int(i) >= len(b.Colors) {
		return nil
	}
	return &b.Colors[i]
}

// Textures returns texture records in stream order.
func (s *Stream) Textures() []*TextureRef {
	var out []*TextureRef
	for _, rec := range s.Records {
		if t, ok := rec.(*TextureRef); ok {
			out = append(out, t)
		}
	}
	return out
}

// Shapes returns shape definitions keyed by symbol id.
func (s *Stream) Shapes() map[uint16]*ShapeDef {
	out := make(map[uint16]*ShapeDef)
	for _, rec := range s.Records {
		if sh, ok := rec.(*ShapeDef); ok {
			out[sh.ID] = sh
		}
	}
	return out
}

// MovieClips returns movie clip definitions keyed by symbol id.
func (s *Stream) MovieClips() map[uint16]*MovieClipDef {
	out := make(map[uint16]*MovieClipDef)
	for _, rec := range s.Records {
		if mc, ok := rec.(*MovieClipDef); ok {
			out[mc.ID] = mc
		}
	}
	return out
}

// TextFields returns the ids of text field and modifier symbols.
func (s *Stream) TextFields() map[uint16]bool {
	out := make(map[uint16]bool)
	for _, rec := range s.Records {
		if m, ok := rec.(*MetadataBlock); ok && (m.Kind == MetaTextField || m.Kind == MetaModifier) {
			out[m.ID] = true
		}
	}
	return out
}

// Banks splits the stream's transforms into matrix banks.
func (s *Stream) Banks() []*Bank {
	banks := []*Bank{{}}
	cur := banks[0]
	for _, rec := range s.Records {
		m, ok := rec.(*MetadataBlock)
		if !ok {
			continue
		}
		switch {
		case m.Kind == MetaMatrixBank:
			cur = &Bank{}
			banks = append(banks, cur)
		case m.Matrix != nil:
			cur.Matrices = append(cur.Matrices, *m.Matrix)
		case m.ColorTransform != nil:
			cur.Colors = append(cur.Colors, *m.ColorTransform)
		}
	}
	return banks
}

// Encode serializes the stream back to its uncompressed form. Record
// payloads are written as read, so unknown records survive unchanged.
func (s *Stream) Encode() []byte {
	var buf bytes.Buffer
	if h := s.Header; h != nil {
		for _, v := range []uint16{h.ShapeCount, h.MovieClipCount, h.TextureCount,
			h.TextFieldCount, h.MatrixCount, h.ColorTransformCount} {
			binary.Write(&buf, binary.LittleEndian, v)
		}
		buf.Write(h.Reserved[:])
		binary.Write(&buf, binary.LittleEndian, uint16(len(h.Exports)))
		for _, e := range h.Exports {
			binary.Write(&buf, binary.LittleEndian, e.ID)
		}
		for i, e := range h.Exports {
			writeName(&buf, h, i, e.Name)
		}
	}

	for _, rec := range s.Records {
		rh := rec.Header()
		buf.WriteByte(rh.Tag)
		binary.Write(&buf, binary.LittleEndian, int32(len(rh.Payload)))
		buf.Write(rh.Payload)
	}

	if s.Terminated {
		buf.Write([]byte{tagEnd, 0, 0, 0, 0})
		buf.Write(s.Trailer)
	}
	return buf.Bytes()
}

// writeName writes export name i. A name still matching what was parsed is
// written as stored, keeping null markers and its original encoding.
func writeName(buf *bytes.Buffer, h *Header, i int, name string) {
	if i < len(h.rawNames) {
		raw := h.rawNames[i]
		switch {
		case raw == nil && name == "":
			buf.WriteByte(0xFF)
			return
		case raw != nil && encoding.DecodeString(raw) == name:
			buf.WriteByte(byte(len(raw)))
			buf.Write(raw)
			return
		}
	}
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
}
