// Package xfl models an Adobe Animate project and writes it as a .fla zip
// or an unpacked XFL directory.
package xfl

import (
	"errors"
	"fmt"
	"image"
)

// ErrDanglingReference is returned when an element names a library item
// the document does not contain.
var ErrDanglingReference = errors.New("element references missing library item")

// Document is the in-memory project.
type Document struct {
	Width     float64
	Height    float64
	FrameRate float64

	Bitmaps  []*BitmapItem
	Symbols  []*Symbol
	Timeline *Timeline
}

// BitmapItem is an image in the library.
type BitmapItem struct {
	// Name is the library path without extension, e.g. "bitmaps/bitmap_3".
	Name string

	// TextureIndex is the SC texture sheet the image was cut from.
	TextureIndex int
	Image        image.Image
}

// SymbolKind is the Animate symbol type.
type SymbolKind uint8

const (
	Graphic SymbolKind = iota
	MovieClip
)

func (k SymbolKind) String() string {
	if k == MovieClip {
		return "movie clip"
	}
	return "graphic"
}

// Symbol is a library symbol with its own timeline.
type Symbol struct {
	Name        string
	Kind        SymbolKind
	Linkage     string
	ScalingGrid *Rect
	Timeline    *Timeline
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// Timeline is an ordered list of layers. The first layer is drawn on top.
type Timeline struct {
	Name   string
	Layers []*Layer
}

// FrameCount returns the length of the longest layer.
func (t *Timeline) FrameCount() int {
	n := 0
	for _, l := range t.Layers {
		if end := l.End(); end > n {
			n = end
		}
	}
	return n
}

// Layer is one timeline layer.
type Layer struct {
	Name string

	// Order is the layer's position in stream order.
	Order int

	// Priority is the draw rank, 0 being topmost. It is only meaningful when
	// HasPriority is set.
	Priority    int
	HasPriority bool

	Frames []*Frame
}

// End returns the index one past the layer's last frame.
func (l *Layer) End() int {
	if len(l.Frames) == 0 {
		return 0
	}
	f := l.Frames[len(l.Frames)-1]
	return f.Index + f.Duration
}

// Frame is a keyframe spanning Duration frames.
type Frame struct {
	Index    int
	Duration int
	Label    string
	Elements []*Element
}

// ElementKind distinguishes bitmap and symbol instances.
type ElementKind uint8

const (
	BitmapInstance ElementKind = iota
	SymbolInstance
)

// Element is an instance of a library item on a frame.
type Element struct {
	Kind        ElementKind
	LibraryItem string
	Name        string
	Matrix      Matrix
	Color       *Color
	Blend       string
}

// Matrix is a 2x3 affine transform.
type Matrix struct {
	A, B, C, D float64
	TX, TY     float64
}

// IdentityMatrix is the identity transform.
var IdentityMatrix = Matrix{A: 1, D: 1}

// Color is a colour transform in Animate's terms: multipliers in 0..1,
// offsets in -255..255.
type Color struct {
	RedMultiplier, GreenMultiplier, BlueMultiplier, AlphaMultiplier float64
	RedOffset, GreenOffset, BlueOffset                             int
}

// Bitmap returns the bitmap item with the given name.
func (d *Document) Bitmap(name string) *BitmapItem {
	for _, b := range d.Bitmaps {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Symbol returns the symbol with the given name.
func (d *Document) Symbol(name string) *Symbol {
	for _, s := range d.Symbols {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Validate checks that every element names an item of the matching kind.
func (d *Document) Validate() error {
	bitmaps := make(map[string]bool, len(d.Bitmaps))
	for _, b := range d.Bitmaps {
		bitmaps[b.Name] = true
	}
	symbols := make(map[string]bool, len(d.Symbols))
	for _, s := range d.Symbols {
		symbols[s.Name] = true
	}

	check := func(t *Timeline) error {
		if t == nil {
			return nil
		}
		for _, l := range t.Layers {
			for _, f := range l.Frames {
				for _, e := range f.Elements {
					ok := symbols[e.LibraryItem]
					if e.Kind == BitmapInstance {
						ok = bitmaps[e.LibraryItem]
					}
					if !ok {
						return fmt.Errorf("%w: %q in %s/%s frame %d",
							ErrDanglingReference, e.LibraryItem, t.Name, l.Name, f.Index)
					}
				}
			}
		}
		return nil
	}

	for _, s := range d.Symbols {
		if err := check(s.Timeline); err != nil {
			return err
		}
	}
	return check(d.Timeline)
}
