// Package sc parses decompressed Supercell .sc streams into typed records.
package sc

import (
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/sc2fla/pkg/encoding"
)

const (
	tagEnd          = 0
	recordHeaderLen = 5 // u8 tag + i32 length
	textureHeadLen  = 5 // u8 pixel type + u16 width + u16 height
	tileSize        = 32
)

// Stream is a parsed SC stream. Records keep their on-disk order.
type Stream struct {
	// Header is nil for texture-only (_tex.sc) streams.
	Header  *Header
	Records []Record

	// Terminated is set when the stream ended with an end record.
	Terminated bool

	// Trailer holds any bytes after the end record.
	Trailer []byte
}

// Parse parses a main .sc stream: header, exports, then records.
func Parse(data []byte) (*Stream, error) {
	r := &reader{data: data}
	header, err := parseHeader(r)
	if err != nil {
		return nil, err
	}
	s := &Stream{Header: header}
	if err := s.parseRecords(r); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseTextures parses a texture companion (_tex.sc) stream, which has no
// header.
func ParseTextures(data []byte) (*Stream, error) {
	s := &Stream{}
	if err := s.parseRecords(&reader{data: data}); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseFile reads and parses an already decompressed stream from disk.
func ParseFile(path string) (*Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading SC stream: %w", err)
	}
	return Parse(data)
}

func parseHeader(r *reader) (*Header, error) {
	h := &Header{
		ShapeCount:          r.u16(),
		MovieClipCount:      r.u16(),
		TextureCount:        r.u16(),
		TextFieldCount:      r.u16(),
		MatrixCount:         r.u16(),
		ColorTransformCount: r.u16(),
	}
	copy(h.Reserved[:], r.bytes(len(h.Reserved)))

	exportCount := int(r.u16())
	if r.err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedStream)
	}

	ids := make([]uint16, exportCount)
	for i := range ids {
		ids[i] = r.u16()
	}
	h.Exports = make([]Export, exportCount)
	h.rawNames = make([][]byte, exportCount)
	for i := range h.Exports {
		raw, ok := r.rawStr()
		if ok {
			h.rawNames[i] = raw
			h.Exports[i].Name = encoding.DecodeString(raw)
		}
		h.Exports[i].ID = ids[i]
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: reading %d exports", ErrTruncatedStream, exportCount)
	}
	return h, nil
}

// parseRecords walks records forward until the end tag or end of data.
func (s *Stream) parseRecords(r *reader) error {
	textureIndex := 0

	for r.remaining() > 0 {
		offset := r.pos
		if r.remaining() < recordHeaderLen {
			return fmt.Errorf("%w: record header at offset %d", ErrTruncatedStream, offset)
		}
		tag := r.u8()
		length := int(r.i32())

		if tag == tagEnd {
			if length != 0 {
				return &LengthMismatchError{Offset: offset, Tag: tag, Declared: length}
			}
			s.Terminated = true
			s.Trailer = r.data[r.pos:]
			return nil
		}

		rec, err := decodeRecord(r, tag, offset, length, &textureIndex)
		if err != nil {
			return err
		}
		s.Records = append(s.Records, rec)
	}
	return nil
}

// decodeRecord decodes one record body. Known bodies are decoded against
// the rest of the stream and then checked against the declared length.
func decodeRecord(r *reader, tag uint8, offset, length int, textureIndex *int) (Record, error) {
	start := r.pos
	h := RecordHeader{Tag: tag, Offset: offset, Length: length}

	var rec Record
	switch {
	case isTextureTag(tag):
		t := &TextureRef{RecordHeader: h, Index: *textureIndex}
		decodeTexture(r, t, length)
		*textureIndex++
		rec = t
	case tag == 2 || tag == 18:
		sh := &ShapeDef{RecordHeader: h}
		if err := decodeShape(r, sh); err != nil {
			return nil, err
		}
		rec = sh
	case tag == 10 || tag == 12 || tag == 35 || tag == 49:
		mc := &MovieClipDef{RecordHeader: h}
		if err := decodeMovieClip(r, mc); err != nil {
			return nil, err
		}
		rec = mc
	case metadataKind(tag) != MetaOther || isRawMetadataTag(tag):
		m := &MetadataBlock{RecordHeader: h, Kind: metadataKind(tag)}
		decodeMetadata(r, m, length)
		rec = m
	default:
		r.bytes(length)
		rec = &Unknown{RecordHeader: h}
	}

	if err := checkConsumed(r, tag, offset, start, length); err != nil {
		return nil, err
	}

	payload := r.data[start : start+length]
	switch v := rec.(type) {
	case *TextureRef:
		v.Payload = payload
	case *ShapeDef:
		v.Payload = payload
	case *MovieClipDef:
		v.Payload = payload
	case *MetadataBlock:
		v.Payload = payload
	case *Unknown:
		v.Payload = payload
	}
	return rec, nil
}

// checkConsumed turns the reader state after a body decode into the
// matching error. A body that needs more bytes than the stream holds is a
// truncation only when the declared length also overruns the stream.
func checkConsumed(r *reader, tag uint8, offset, start, declared int) error {
	available := len(r.data) - start
	if r.err != nil {
		if errors.Is(r.err, errShort) && declared >= 0 && declared <= available {
			return &LengthMismatchError{Offset: offset, Tag: tag, Declared: declared, Consumed: r.pos - start}
		}
		return fmt.Errorf("%w: tag %d at offset %d declares %d bytes, %d available",
			ErrTruncatedStream, tag, offset, declared, available)
	}
	if consumed := r.pos - start; consumed != declared {
		return &LengthMismatchError{Offset: offset, Tag: tag, Declared: declared, Consumed: consumed}
	}
	return nil
}

func isTextureTag(tag uint8) bool {
	switch tag {
	case 1, 16, 19, 24, 27, 28, 29, 34, 45, 47:
		return true
	}
	return false
}

func decodeTexture(r *reader, t *TextureRef, length int) {
	t.PixelType = PixelType(r.u8())
	t.Width = r.u16()
	t.Height = r.u16()
	if length <= textureHeadLen || r.err != nil {
		return
	}

	switch t.Tag {
	case 45:
		n := int(r.u32())
		t.KTX = r.bytes(n)
	case 47:
		t.ExternalFile, _ = r.str()
	default:
		bpp := t.PixelType.BytesPerPixel()
		size := t.PixelType.DataSize(int(t.Width), int(t.Height))
		if size == 0 {
			// Unknown layouts carry no size of their own; the record length
			// is the only bound.
			size = length - textureHeadLen
		}
		data := r.bytes(size)
		if r.err != nil {
			return
		}
		t.Tiled = t.Tag == 27 || t.Tag == 28 || t.Tag == 29
		if t.Tiled && bpp > 0 {
			data = untile(data, int(t.Width), int(t.Height), bpp)
		}
		t.Pixels = data
	}
}

// untile reorders 32x32 block storage into row-major order.
func untile(data []byte, width, height, bpp int) []byte {
	out := make([]byte, len(data))
	src := 0
	for by := 0; by < height; by += tileSize {
		for bx := 0; bx < width; bx += tileSize {
			for y := by; y < by+tileSize && y < height; y++ {
				for x := bx; x < bx+tileSize && x < width; x++ {
					dst := (y*width + x) * bpp
					copy(out[dst:dst+bpp], data[src:src+bpp])
					src += bpp
				}
			}
		}
	}
	return out
}

// subRecords reads nested sub-records until the end tag, handing each to fn
// and checking its declared length.
func subRecords(r *reader, fn func(tag uint8, offset, length int)) error {
	for {
		offset := r.pos
		tag := r.u8()
		length := int(r.i32())
		if r.err != nil {
			return fmt.Errorf("%w: sub-record header at offset %d", ErrTruncatedStream, offset)
		}
		if tag == tagEnd {
			if length != 0 {
				return &LengthMismatchError{Offset: offset, Tag: tag, Declared: length}
			}
			return nil
		}

		start := r.pos
		fn(tag, offset, length)
		if err := checkConsumed(r, tag, offset, start, length); err != nil {
			return err
		}
	}
}

func rawSubRecord(r *reader, tag uint8, offset, length int) Unknown {
	payload := r.bytes(length)
	return Unknown{RecordHeader{Tag: tag, Offset: offset, Length: length, Payload: payload}}
}

func decodeShape(r *reader, sh *ShapeDef) error {
	sh.ID = r.u16()
	commandCount := int(r.u16())
	if sh.Tag == 18 {
		r.u16() // total point count, recomputed from commands
	}
	if r.err != nil {
		return nil
	}

	sh.Commands = make([]BitmapCommand, 0, commandCount)
	err := subRecords(r, func(tag uint8, offset, length int) {
		switch tag {
		case 4, 17, 22:
			cmd := BitmapCommand{Tag: tag, TextureIndex: r.u8()}
			points := 4
			if tag == 22 {
				points = int(r.u8())
			}
			cmd.Points = make([]ShapePoint, points)
			for i := range cmd.Points {
				cmd.Points[i].X = r.twip()
				cmd.Points[i].Y = r.twip()
			}
			for i := range cmd.Points {
				cmd.Points[i].U = r.u16()
				cmd.Points[i].V = r.u16()
			}
			sh.Commands = append(sh.Commands, cmd)
		default:
			sh.Extra = append(sh.Extra, rawSubRecord(r, tag, offset, length))
		}
	})
	if err != nil {
		return err
	}
	if r.err == nil && len(sh.Commands) != commandCount {
		return &LengthMismatchError{
			Offset:   sh.Offset,
			Tag:      sh.Tag,
			Declared: commandCount,
			Consumed: len(sh.Commands),
			Unit:     "commands",
		}
	}
	return nil
}

func decodeMovieClip(r *reader, mc *MovieClipDef) error {
	mc.ID = r.u16()
	mc.FrameRate = r.u8()
	mc.FrameCount = r.u16()

	if mc.Tag == 49 {
		n := int(r.u8())
		mc.Properties = make([]CustomProperty, n)
		for i := range mc.Properties {
			mc.Properties[i] = CustomProperty{Type: r.u8(), Value: r.u8()}
		}
	}

	elementCount := int(r.i32())
	if r.err != nil || elementCount < 0 || elementCount*6 > r.remaining() {
		r.need(elementCount * 6)
		return nil
	}
	mc.Elements = make([]FrameElement, elementCount)
	for i := range mc.Elements {
		mc.Elements[i] = FrameElement{BindIndex: r.u16(), MatrixIndex: r.u16(), ColorIndex: r.u16()}
	}

	bindCount := int(r.u16())
	if r.err != nil || bindCount*2 > r.remaining() {
		r.need(bindCount * 2)
		return nil
	}
	mc.Binds = make([]Bind, bindCount)
	for i := range mc.Binds {
		mc.Binds[i].ID = r.u16()
	}
	if mc.Tag == 12 || mc.Tag == 35 || mc.Tag == 49 {
		for i := range mc.Binds {
			mc.Binds[i].Blend = r.u8()
		}
	}
	for i := range mc.Binds {
		mc.Binds[i].Name, _ = r.str()
	}
	if r.err != nil {
		return nil
	}

	mc.Frames = make([]Frame, 0, mc.FrameCount)
	return subRecords(r, func(tag uint8, offset, length int) {
		switch tag {
		case 11:
			f := Frame{ElementCount: r.u16()}
			f.Label, _ = r.str()
			mc.Frames = append(mc.Frames, f)
		case 31:
			mc.ScalingGrid = &Rect{Left: r.twip(), Top: r.twip(), Right: r.twip(), Bottom: r.twip()}
		case 41:
			mc.MatrixBank = r.u8()
		default:
			mc.Extra = append(mc.Extra, rawSubRecord(r, tag, offset, length))
		}
	})
}

func metadataKind(tag uint8) MetadataKind {
	switch tag {
	case 8, 36:
		return MetaMatrix
	case 9:
		return MetaColorTransform
	case 7, 15, 20, 21, 25, 33, 43, 44:
		return MetaTextField
	case 23, 26, 30, 32:
		return MetaFlag
	case 38, 39, 40:
		return MetaModifier
	case 42:
		return MetaMatrixBank
	default:
		return MetaOther
	}
}

// isRawMetadataTag reports timeline tags kept as opaque metadata.
func isRawMetadataTag(tag uint8) bool {
	return tag == 13 || tag == 37
}

func decodeMetadata(r *reader, m *MetadataBlock, length int) {
	switch m.Kind {
	case MetaMatrix:
		div := 1024.0
		if m.Tag == 36 {
			div = 65535.0
		}
		m.Matrix = &Matrix{
			A:  float64(r.i32()) / div,
			B:  float64(r.i32()) / div,
			C:  float64(r.i32()) / div,
			D:  float64(r.i32()) / div,
			TX: r.twip(),
			TY: r.twip(),
		}
	case MetaColorTransform:
		m.ColorTransform = &ColorTransform{
			RAdd: r.u8(), GAdd: r.u8(), BAdd: r.u8(),
			AMul: r.u8(),
			RMul: r.u8(), GMul: r.u8(), BMul: r.u8(),
		}
	case MetaFlag:
		// Flags carry no payload.
	case MetaMatrixBank:
		r.u16() // matrix count
		r.u16() // colour transform count
	case MetaTextField:
		m.ID = r.u16()
		m.TextField = decodeTextField(r, m.Tag)
	case MetaModifier:
		m.ID = r.u16()
	default:
		r.bytes(length)
	}
}

// decodeTextField reads a text field body after its id. Each tag adds
// fields to the layout of the tags below it.
func decodeTextField(r *reader, tag uint8) *TextField {
	tf := &TextField{}
	tf.Font, _ = r.str()
	tf.Color = r.u32()
	tf.Bold = r.u8() != 0
	tf.Italic = r.u8() != 0
	tf.Multiline = r.u8() != 0
	r.u8() // unused
	tf.Align = r.u8()
	tf.FontSize = r.u8()
	for i := range tf.Bounds {
		tf.Bounds[i] = int16(r.u16())
	}
	tf.Outlined = r.u8() != 0
	tf.Text, _ = r.str()
	if tag == 7 {
		return tf
	}

	tf.DeviceFont = r.u8() != 0
	if tag > 20 {
		tf.OutlineColor = r.u32()
	}
	if tag > 25 {
		r.u16()
		r.u16()
	}
	if tag > 33 {
		tf.BendAngle = int16(r.u16())
	}
	if tag > 43 {
		tf.AutoAdjust = r.u8() != 0
	}
	return tf
}
