package sc

// Record is one tagged unit of an SC stream. The set of implementations is
// closed: *TextureRef, *ShapeDef, *MovieClipDef, *MetadataBlock and *Unknown.
type Record interface {
	Header() RecordHeader
	isRecord()
}

// RecordHeader is shared by every record.
type RecordHeader struct {
	Tag uint8

	// Offset is the position of the tag byte in the decompressed stream.
	Offset int

	// Length is the declared payload length.
	Length int

	// Payload holds the raw payload bytes exactly as read.
	Payload []byte
}

// Header returns the record header.
func (h RecordHeader) Header() RecordHeader { return h }

// Export binds a symbol id to an exported linkage name.
type Export struct {
	ID   uint16
	Name string
}

// Header is the preamble of a main .sc stream. Texture files have none.
type Header struct {
	ShapeCount          uint16
	MovieClipCount      uint16
	TextureCount        uint16
	TextFieldCount      uint16
	MatrixCount         uint16
	ColorTransformCount uint16
	Reserved            [5]byte
	Exports             []Export

	// rawNames holds export names as stored, nil for a null name, so
	// Encode can write them back unchanged.
	rawNames [][]byte
}

// TextureRef describes a texture sheet. Pixels are present only when the
// texture is stored in the same stream.
type TextureRef struct {
	RecordHeader

	// Index is the position of this texture among the stream's textures.
	Index     int
	PixelType PixelType
	Width     uint16
	Height    uint16

	// Pixels holds the texture data in PixelType layout, already untiled.
	Pixels []byte

	// Tiled is set for sheets stored as 32x32 blocks.
	Tiled bool

	// KTX holds an embedded KTX container (tag 45).
	KTX []byte

	// ExternalFile names a companion texture file (tag 47).
	ExternalFile string
}

// HasPixels reports whether decodable pixel data is embedded in the record.
func (t *TextureRef) HasPixels() bool {
	return len(t.Pixels) > 0 || len(t.KTX) > 0
}

// ShapePoint is one vertex of a bitmap command. X and Y are in pixels,
// U and V are the raw stored texture coordinates.
type ShapePoint struct {
	X, Y float64
	U, V uint16
}

// BitmapCommand draws a textured polygon from one texture sheet.
type BitmapCommand struct {
	Tag          uint8
	TextureIndex uint8
	Points       []ShapePoint
}

// UV returns the texture coordinate of point i in texture pixels.
func (c *BitmapCommand) UV(i int, width, height int) (float64, float64) {
	p := c.Points[i]
	if c.Tag == 22 {
		return float64(p.U) / 0xFFFF * float64(width), float64(p.V) / 0xFFFF * float64(height)
	}
	return float64(p.U), float64(p.V)
}

// ShapeDef is a shape symbol built from bitmap commands.
type ShapeDef struct {
	RecordHeader
	ID       uint16
	Commands []BitmapCommand

	// Extra holds sub-records that are not bitmap commands.
	Extra []Unknown
}

// FrameElement places one bind of a movie clip on a frame.
type FrameElement struct {
	BindIndex   uint16
	MatrixIndex uint16
	ColorIndex  uint16
}

// NoIndex marks an absent matrix or colour transform.
const NoIndex = 0xFFFF

// Bind is a child symbol slot of a movie clip.
type Bind struct {
	ID    uint16
	Blend uint8
	Name  string
}

// Frame is a movie clip frame: a run of ElementCount elements and a label.
type Frame struct {
	ElementCount uint16
	Label        string
}

// Rect is a scaling grid rectangle in pixels.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// CustomProperty is a typed flag attached to a movie clip (tag 49).
type CustomProperty struct {
	Type  uint8
	Value uint8
}

// MovieClipDef is an animated symbol.
type MovieClipDef struct {
	RecordHeader
	ID          uint16
	FrameRate   uint8
	FrameCount  uint16
	Properties  []CustomProperty
	Elements    []FrameElement
	Binds       []Bind
	Frames      []Frame
	ScalingGrid *Rect
	MatrixBank  uint8
	Extra       []Unknown
}

// FrameElements returns the elements shown on frame i in draw order.
func (m *MovieClipDef) FrameElements(i int) []FrameElement {
	start := 0
	for j := 0; j < i && j < len(m.Frames); j++ {
		start += int(m.Frames[j].ElementCount)
	}
	if i >= len(m.Frames) || start >= len(m.Elements) {
		return nil
	}
	end := start + int(m.Frames[i].ElementCount)
	if end > len(m.Elements) {
		end = len(m.Elements)
	}
	return m.Elements[start:end]
}

// MetadataKind classifies MetadataBlock records.
type MetadataKind uint8

const (
	MetaOther MetadataKind = iota
	MetaMatrix
	MetaColorTransform
	MetaTextField
	MetaFlag
	MetaModifier
	MetaMatrixBank
)

// String returns the kind name.
func (k MetadataKind) String() string {
	switch k {
	case MetaMatrix:
		return "matrix"
	case MetaColorTransform:
		return "color_transform"
	case MetaTextField:
		return "text_field"
	case MetaFlag:
		return "flag"
	case MetaModifier:
		return "modifier"
	case MetaMatrixBank:
		return "matrix_bank"
	default:
		return "other"
	}
}

// Matrix is a 2x3 affine transform.
type Matrix struct {
	A, B, C, D float64
	TX, TY     float64
}

// Identity is the identity transform.
var Identity = Matrix{A: 1, D: 1}

// ColorTransform is an additive and multiplicative colour adjustment.
type ColorTransform struct {
	RAdd, GAdd, BAdd uint8
	AMul             uint8
	RMul, GMul, BMul uint8
}

// TextField is the body of a text field record. Later tags extend the
// tag 7 layout with trailing fields; those a tag lacks stay zero.
type TextField struct {
	Font      string
	Color     uint32
	Bold      bool
	Italic    bool
	Multiline bool
	Align     uint8
	FontSize  uint8

	// Bounds is left, top, right, bottom in pixels.
	Bounds   [4]int16
	Outlined bool
	Text     string

	DeviceFont   bool
	OutlineColor uint32
	BendAngle    int16
	AutoAdjust   bool
}

// MetadataBlock carries transforms, text fields, flags and timeline data.
type MetadataBlock struct {
	RecordHeader
	Kind MetadataKind

	// ID is set for text fields and modifiers, which are bindable symbols.
	ID             uint16
	Matrix         *Matrix
	ColorTransform *ColorTransform
	TextField      *TextField
}

// Unknown preserves a record whose tag is not understood.
type Unknown struct {
	RecordHeader
}

func (*TextureRef) isRecord()    {}
func (*ShapeDef) isRecord()      {}
func (*MovieClipDef) isRecord()  {}
func (*MetadataBlock) isRecord() {}
func (*Unknown) isRecord()       {}
