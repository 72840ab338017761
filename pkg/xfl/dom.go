package xfl

import (
	"encoding/xml"
	"path"
	"strconv"
)

const (
	xflNamespace = "http://ns.adobe.com/xfl/2008/"
	xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"
	xflVersion   = "2.971"
)

type domDocument struct {
	XMLName         xml.Name      `xml:"DOMDocument"`
	XMLNS           string        `xml:"xmlns,attr"`
	XSI             string        `xml:"xmlns:xsi,attr"`
	Width           string        `xml:"width,attr"`
	Height          string        `xml:"height,attr"`
	FrameRate       string        `xml:"frameRate,attr"`
	CurrentTimeline int           `xml:"currentTimeline,attr"`
	XFLVersion      string        `xml:"xflVersion,attr"`
	CreatorInfo     string        `xml:"creatorInfo,attr"`
	Media           []domBitmap   `xml:"media>DOMBitmapItem"`
	Symbols         []domInclude  `xml:"symbols>Include"`
	Timelines       []domTimeline `xml:"timelines>DOMTimeline"`
}

type domBitmap struct {
	Name            string `xml:"name,attr"`
	Href            string `xml:"href,attr"`
	SourceFilePath  string `xml:"sourceExternalFilepath,attr"`
	AllowSmoothing  bool   `xml:"allowSmoothing,attr"`
	UseImportedJPEG bool   `xml:"useImportedJPEGData,attr"`
	Compression     string `xml:"compressionType,attr"`
	FrameRight      int    `xml:"frameRight,attr"`
	FrameBottom     int    `xml:"frameBottom,attr"`
}

type domInclude struct {
	Href          string `xml:"href,attr"`
	LoadImmediate bool   `xml:"loadImmediate,attr"`
}

type domSymbolItem struct {
	XMLName      xml.Name    `xml:"DOMSymbolItem"`
	XMLNS        string      `xml:"xmlns,attr"`
	XSI          string      `xml:"xmlns:xsi,attr"`
	Name         string      `xml:"name,attr"`
	SymbolType   string      `xml:"symbolType,attr,omitempty"`
	ExportForAS  bool        `xml:"linkageExportForAS,attr,omitempty"`
	ClassName    string      `xml:"linkageClassName,attr,omitempty"`
	ScaleGridOn  bool        `xml:"scaleGrid,attr,omitempty"`
	GridLeft     string      `xml:"scaleGridLeft,attr,omitempty"`
	GridRight    string      `xml:"scaleGridRight,attr,omitempty"`
	GridTop      string      `xml:"scaleGridTop,attr,omitempty"`
	GridBottom   string      `xml:"scaleGridBottom,attr,omitempty"`
	Timeline     domTimeline `xml:"timeline>DOMTimeline"`
}

type domTimeline struct {
	Name   string     `xml:"name,attr"`
	Layers []domLayer `xml:"layers>DOMLayer"`
}

type domLayer struct {
	Name   string     `xml:"name,attr"`
	Color  string     `xml:"color,attr"`
	Frames []domFrame `xml:"frames>DOMFrame"`
}

type domFrame struct {
	Index     int          `xml:"index,attr"`
	Duration  int          `xml:"duration,attr,omitempty"`
	KeyMode   int          `xml:"keyMode,attr"`
	Name      string       `xml:"name,attr,omitempty"`
	LabelType string       `xml:"labelType,attr,omitempty"`
	Elements  *domElements `xml:"elements"`
}

// domElements keeps mixed instance kinds in draw order; each instance
// carries its own element name.
type domElements struct {
	Items []domInstance
}

type domInstance struct {
	XMLName     xml.Name
	LibraryItem string     `xml:"libraryItemName,attr"`
	Name        string     `xml:"name,attr,omitempty"`
	SymbolType  string     `xml:"symbolType,attr,omitempty"`
	Loop        string     `xml:"loop,attr,omitempty"`
	BlendMode   string     `xml:"blendMode,attr,omitempty"`
	Matrix      *domMatrix `xml:"matrix>Matrix"`
	Color       *domColor  `xml:"color>Color"`
}

type domMatrix struct {
	A  string `xml:"a,attr,omitempty"`
	B  string `xml:"b,attr,omitempty"`
	C  string `xml:"c,attr,omitempty"`
	D  string `xml:"d,attr,omitempty"`
	TX string `xml:"tx,attr,omitempty"`
	TY string `xml:"ty,attr,omitempty"`
}

type domColor struct {
	AlphaMultiplier string `xml:"alphaMultiplier,attr,omitempty"`
	RedMultiplier   string `xml:"redMultiplier,attr,omitempty"`
	GreenMultiplier string `xml:"greenMultiplier,attr,omitempty"`
	BlueMultiplier  string `xml:"blueMultiplier,attr,omitempty"`
	RedOffset       int    `xml:"redOffset,attr,omitempty"`
	GreenOffset     int    `xml:"greenOffset,attr,omitempty"`
	BlueOffset      int    `xml:"blueOffset,attr,omitempty"`
}

var layerColors = []string{"#4FFF4F", "#FF4FFF", "#4FFFFF", "#FF800A", "#9933CC", "#FFFF4F", "#4F4FFF"}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BitmapPath returns the library file name of a bitmap item.
func BitmapPath(name string) string {
	return name + ".png"
}

// SymbolPath returns the library file name of a symbol.
func SymbolPath(name string) string {
	return name + ".xml"
}

func (d *Document) dom(creator string) *domDocument {
	doc := &domDocument{
		XMLNS:           xflNamespace,
		XSI:             xsiNamespace,
		Width:           num(d.Width),
		Height:          num(d.Height),
		FrameRate:       num(d.FrameRate),
		CurrentTimeline: 1,
		XFLVersion:      xflVersion,
		CreatorInfo:     creator,
	}
	for _, b := range d.Bitmaps {
		bounds := b.Image.Bounds()
		doc.Media = append(doc.Media, domBitmap{
			Name:           BitmapPath(b.Name),
			Href:           BitmapPath(b.Name),
			SourceFilePath: path.Base(BitmapPath(b.Name)),
			AllowSmoothing: true,
			Compression:    "lossless",
			FrameRight:     bounds.Dx() * 20,
			FrameBottom:    bounds.Dy() * 20,
		})
	}
	for _, s := range d.Symbols {
		doc.Symbols = append(doc.Symbols, domInclude{Href: SymbolPath(s.Name)})
	}
	if d.Timeline != nil {
		doc.Timelines = append(doc.Timelines, d.Timeline.dom())
	}
	return doc
}

func (s *Symbol) dom() *domSymbolItem {
	item := &domSymbolItem{
		XMLNS:    xflNamespace,
		XSI:      xsiNamespace,
		Name:     s.Name,
		Timeline: s.Timeline.dom(),
	}
	if s.Kind == Graphic {
		item.SymbolType = "graphic"
	}
	if s.Linkage != "" {
		item.ExportForAS = true
		item.ClassName = s.Linkage
	}
	if g := s.ScalingGrid; g != nil {
		item.ScaleGridOn = true
		item.GridLeft = num(g.Left)
		item.GridRight = num(g.Right)
		item.GridTop = num(g.Top)
		item.GridBottom = num(g.Bottom)
	}
	return item
}

func (t *Timeline) dom() domTimeline {
	out := domTimeline{Name: t.Name}
	for i, l := range t.Layers {
		dl := domLayer{Name: l.Name, Color: layerColors[i%len(layerColors)]}
		for _, f := range l.Frames {
			dl.Frames = append(dl.Frames, f.dom())
		}
		out.Layers = append(out.Layers, dl)
	}
	return out
}

func (f *Frame) dom() domFrame {
	df := domFrame{Index: f.Index, KeyMode: 9728}
	if f.Duration > 1 {
		df.Duration = f.Duration
	}
	if f.Label != "" {
		df.Name = f.Label
		df.LabelType = "name"
	}
	df.Elements = &domElements{}
	for _, e := range f.Elements {
		inst := domInstance{
			LibraryItem: e.LibraryItem,
			Matrix:      e.Matrix.dom(),
			Color:       e.Color.dom(),
		}
		if e.Kind == BitmapInstance {
			inst.XMLName.Local = "DOMBitmapInstance"
			inst.LibraryItem = BitmapPath(e.LibraryItem)
			df.Elements.Items = append(df.Elements.Items, inst)
			continue
		}
		inst.XMLName.Local = "DOMSymbolInstance"
		inst.Name = e.Name
		inst.SymbolType = "graphic"
		inst.Loop = "loop"
		inst.BlendMode = e.Blend
		df.Elements.Items = append(df.Elements.Items, inst)
	}
	return df
}

func (m Matrix) dom() *domMatrix {
	if m == IdentityMatrix {
		return nil
	}
	dm := &domMatrix{B: zero(m.B), C: zero(m.C), TX: zero(m.TX), TY: zero(m.TY)}
	if m.A != 1 {
		dm.A = num(m.A)
	}
	if m.D != 1 {
		dm.D = num(m.D)
	}
	return dm
}

func zero(v float64) string {
	if v == 0 {
		return ""
	}
	return num(v)
}

func (c *Color) dom() *domColor {
	if c == nil {
		return nil
	}
	one := func(v float64) string {
		if v == 1 {
			return ""
		}
		return num(v)
	}
	return &domColor{
		AlphaMultiplier: one(c.AlphaMultiplier),
		RedMultiplier:   one(c.RedMultiplier),
		GreenMultiplier: one(c.GreenMultiplier),
		BlueMultiplier:  one(c.BlueMultiplier),
		RedOffset:       c.RedOffset,
		GreenOffset:     c.GreenOffset,
		BlueOffset:      c.BlueOffset,
	}
}
