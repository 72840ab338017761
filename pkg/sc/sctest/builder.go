// Package sctest builds synthetic SC streams for tests.
package sctest

import (
	"bytes"
	"encoding/binary"
)

// Point is a shape vertex: pixel position plus raw texture coordinate.
type Point struct {
	X, Y float64
	U, V uint16
}

// Element places bind Bind with matrix and colour indexes on a frame.
type Element struct {
	Bind, Matrix, Color uint16
}

// Frame is a run of elements with an optional label.
type Frame struct {
	Elements []Element
	Label    string
}

// Builder accumulates header counts, exports and records.
type Builder struct {
	shapes, clips, textures, texts, matrices, colors uint16

	exports []export
	records bytes.Buffer
}

type export struct {
	id   uint16
	name string
	null bool
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// Export adds an export name for symbol id. name is written byte for byte.
func (b *Builder) Export(id uint16, name string) *Builder {
	b.exports = append(b.exports, export{id: id, name: name})
	return b
}

// NullExport adds an export whose name is the 0xFF null marker.
func (b *Builder) NullExport(id uint16) *Builder {
	b.exports = append(b.exports, export{id: id, null: true})
	return b
}

// Texture adds an RGBA8888 texture (tag 1) with the given pixels.
func (b *Builder) Texture(width, height uint16, pixels []byte) *Builder {
	return b.TextureTag(1, 0, width, height, pixels)
}

// TextureTag adds a texture record with an explicit tag and pixel type.
func (b *Builder) TextureTag(tag, pixelType uint8, width, height uint16, pixels []byte) *Builder {
	var body bytes.Buffer
	body.WriteByte(pixelType)
	le(&body, width)
	le(&body, height)
	body.Write(pixels)
	b.textures++
	return b.Raw(tag, body.Bytes())
}

// KTXTexture adds a tag 45 texture wrapping a KTX container.
func (b *Builder) KTXTexture(width, height uint16, container []byte) *Builder {
	var body bytes.Buffer
	body.WriteByte(0)
	le(&body, width)
	le(&body, height)
	le(&body, uint32(len(container)))
	body.Write(container)
	b.textures++
	return b.Raw(45, body.Bytes())
}

// TextureRef adds a texture record without pixel data.
func (b *Builder) TextureRef(width, height uint16) *Builder {
	return b.TextureTag(1, 0, width, height, nil)
}

// ExternalTexture adds a tag 47 texture naming an external file.
func (b *Builder) ExternalTexture(width, height uint16, file string) *Builder {
	var body bytes.Buffer
	body.WriteByte(0)
	le(&body, width)
	le(&body, height)
	writeString(&body, file)
	b.textures++
	return b.Raw(47, body.Bytes())
}

// Shape adds a shape (tag 18) with one four-point bitmap command (tag 17)
// per entry in commands.
func (b *Builder) Shape(id uint16, texture uint8, commands ...[]Point) *Builder {
	var body bytes.Buffer
	le(&body, id)
	le(&body, uint16(len(commands)))
	total := 0
	for _, c := range commands {
		total += len(c)
	}
	le(&body, uint16(total))

	for _, c := range commands {
		var cmd bytes.Buffer
		cmd.WriteByte(texture)
		for _, p := range c {
			le(&cmd, int32(p.X*20))
			le(&cmd, int32(p.Y*20))
		}
		for _, p := range c {
			le(&cmd, p.U)
			le(&cmd, p.V)
		}
		writeRecord(&body, 17, cmd.Bytes())
	}
	writeRecord(&body, 0, nil)

	b.shapes++
	return b.Raw(18, body.Bytes())
}

// Quad returns the four corners of an axis-aligned rectangle mapped to the
// texture rectangle (u0,v0)-(u1,v1).
func Quad(x0, y0, x1, y1 float64, u0, v0, u1, v1 uint16) []Point {
	return []Point{
		{x0, y0, u0, v0},
		{x1, y0, u1, v0},
		{x1, y1, u1, v1},
		{x0, y1, u0, v1},
	}
}

// Matrix adds a tag 8 affine transform.
func (b *Builder) Matrix(a, bb, c, d, tx, ty float64) *Builder {
	var body bytes.Buffer
	for _, v := range []float64{a, bb, c, d} {
		le(&body, int32(v*1024))
	}
	le(&body, int32(tx*20))
	le(&body, int32(ty*20))
	b.matrices++
	return b.Raw(8, body.Bytes())
}

// ColorTransform adds a tag 9 colour transform.
func (b *Builder) ColorTransform(rAdd, gAdd, bAdd, aMul, rMul, gMul, bMul uint8) *Builder {
	b.colors++
	return b.Raw(9, []byte{rAdd, gAdd, bAdd, aMul, rMul, gMul, bMul})
}

// MatrixBank adds a tag 42 record that opens a new matrix bank.
func (b *Builder) MatrixBank(matrices, colors uint16) *Builder {
	var body bytes.Buffer
	le(&body, matrices)
	le(&body, colors)
	return b.Raw(42, body.Bytes())
}

// TextField adds a tag 7 text field showing text.
func (b *Builder) TextField(id uint16, text string) *Builder {
	return b.TextFieldTag(7, id, text)
}

// TextFieldTag adds a text field record in the layout of tag. Fields the
// tag carries beyond the tag 7 layout are written as zero.
func (b *Builder) TextFieldTag(tag uint8, id uint16, text string) *Builder {
	var body bytes.Buffer
	le(&body, id)
	writeString(&body, "Arial")
	le(&body, uint32(0xFFFFFFFF)) // colour
	body.Write([]byte{0, 0, 0, 0}) // bold, italic, multiline, unused
	body.WriteByte(0)              // align
	body.WriteByte(12)             // font size
	for _, v := range []int16{0, 0, 100, 20} {
		le(&body, v)
	}
	body.WriteByte(0) // outlined
	writeString(&body, text)
	if tag != 7 {
		body.WriteByte(0) // device font
		if tag > 20 {
			le(&body, uint32(0))
		}
		if tag > 25 {
			le(&body, int32(0))
		}
		if tag > 33 {
			le(&body, int16(0))
		}
		if tag > 43 {
			body.WriteByte(0)
		}
	}
	b.texts++
	return b.Raw(tag, body.Bytes())
}

// Modifier adds a movie clip modifier record (tags 38 to 40).
func (b *Builder) Modifier(tag uint8, id uint16) *Builder {
	var body bytes.Buffer
	le(&body, id)
	return b.Raw(tag, body.Bytes())
}

// MovieClip adds a tag 12 movie clip. Binds are child symbol ids; names
// may be shorter than binds.
func (b *Builder) MovieClip(id uint16, fps uint8, binds []uint16, names []string, frames []Frame) *Builder {
	var body bytes.Buffer
	le(&body, id)
	body.WriteByte(fps)
	le(&body, uint16(len(frames)))

	var elements []Element
	for _, f := range frames {
		elements = append(elements, f.Elements...)
	}
	le(&body, int32(len(elements)))
	for _, e := range elements {
		le(&body, e.Bind)
		le(&body, e.Matrix)
		le(&body, e.Color)
	}

	le(&body, uint16(len(binds)))
	for _, id := range binds {
		le(&body, id)
	}
	for range binds {
		body.WriteByte(0) // blend
	}
	for i := range binds {
		if i < len(names) && names[i] != "" {
			writeString(&body, names[i])
		} else {
			body.WriteByte(0xFF)
		}
	}

	for _, f := range frames {
		var fb bytes.Buffer
		le(&fb, uint16(len(f.Elements)))
		if f.Label != "" {
			writeString(&fb, f.Label)
		} else {
			fb.WriteByte(0xFF)
		}
		writeRecord(&body, 11, fb.Bytes())
	}
	writeRecord(&body, 0, nil)

	b.clips++
	return b.Raw(12, body.Bytes())
}

// Raw adds a record with an arbitrary tag and payload.
func (b *Builder) Raw(tag uint8, payload []byte) *Builder {
	writeRecord(&b.records, tag, payload)
	return b
}

// RawLength adds a record whose declared length differs from its payload.
func (b *Builder) RawLength(tag uint8, declared int32, payload []byte) *Builder {
	b.records.WriteByte(tag)
	le(&b.records, declared)
	b.records.Write(payload)
	return b
}

// Bytes returns the main stream: header, exports, records and end tag.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	for _, v := range []uint16{b.shapes, b.clips, b.textures, b.texts, b.matrices, b.colors} {
		le(&buf, v)
	}
	buf.Write(make([]byte, 5))
	le(&buf, uint16(len(b.exports)))
	for _, e := range b.exports {
		le(&buf, e.id)
	}
	for _, e := range b.exports {
		if e.null {
			buf.WriteByte(0xFF)
			continue
		}
		writeString(&buf, e.name)
	}
	buf.Write(b.Body())
	return buf.Bytes()
}

// Body returns only the records and end tag, the layout of a _tex.sc
// stream.
func (b *Builder) Body() []byte {
	var buf bytes.Buffer
	buf.Write(b.records.Bytes())
	writeRecord(&buf, 0, nil)
	return buf.Bytes()
}

// Solid returns width*height RGBA8888 pixels of one colour.
func Solid(width, height int, r, g, b, a byte) []byte {
	return bytes.Repeat([]byte{r, g, b, a}, width*height)
}

func writeRecord(buf *bytes.Buffer, tag uint8, payload []byte) {
	buf.WriteByte(tag)
	le(buf, int32(len(payload)))
	buf.Write(payload)
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
}

func le(buf *bytes.Buffer, v any) {
	binary.Write(buf, binary.LittleEndian, v)
}
