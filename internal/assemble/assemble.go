// Package assemble builds an Animate project from a parsed SC stream and
// its resolved textures.
package assemble

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/sc2fla/internal/texture"
	"github.com/Faultbox/sc2fla/pkg/encoding"
	"github.com/Faultbox/sc2fla/pkg/sc"
	"github.com/Faultbox/sc2fla/pkg/xfl"
)

// ErrAssembly is returned for streams that cannot form a consistent
// project, such as binds to undefined symbols.
var ErrAssembly = errors.New("assembly failed")

// Stage defaults used when the stream does not say otherwise.
const (
	DefaultWidth     = 1280
	DefaultHeight    = 720
	DefaultFrameRate = 30
)

// Options configures Assemble.
type Options struct {
	// SortLayers orders each timeline by draw priority. Without it layers
	// keep stream order.
	SortLayers bool

	// Name is the root timeline name.
	Name string

	Log *zap.Logger
}

type assembler struct {
	stream   *sc.Stream
	textures map[int]*texture.Resolved
	opts     Options
	log      *zap.Logger

	doc        *xfl.Document
	names      map[uint16]string
	textFields map[uint16]bool
	banks      []*sc.Bank
	bitmaps    map[[32]byte]string
}

// Assemble builds the project for stream. Every texture a shape draws from
// must be present in textures with a decoded image; otherwise Assemble
// fails with a *texture.UnresolvedError before building anything.
func Assemble(stream *sc.Stream, textures map[int]*texture.Resolved, opts Options) (*xfl.Document, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if err := checkTextures(stream, textures); err != nil {
		return nil, err
	}

	a := &assembler{
		stream:     stream,
		textures:   textures,
		opts:       opts,
		log:        log,
		doc:        &xfl.Document{Width: DefaultWidth, Height: DefaultHeight, FrameRate: DefaultFrameRate},
		textFields: stream.TextFields(),
		banks:      stream.Banks(),
		bitmaps:    make(map[[32]byte]string),
	}
	a.nameSymbols()

	for _, rec := range stream.Records {
		var (
			sym *xfl.Symbol
			err error
		)
		switch r := rec.(type) {
		case *sc.ShapeDef:
			sym, err = a.shape(r)
		case *sc.MovieClipDef:
			sym, err = a.movieClip(r)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		a.doc.Symbols = append(a.doc.Symbols, sym)
	}

	root, err := a.root()
	if err != nil {
		return nil, err
	}
	a.doc.Timeline = root

	if opts.SortLayers {
		for _, s := range a.doc.Symbols {
			SortLayers(s.Timeline.Layers)
		}
		SortLayers(root.Layers)
	}

	if err := a.doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssembly, err)
	}
	log.Debug("assembled project",
		zap.Int("symbols", len(a.doc.Symbols)),
		zap.Int("bitmaps", len(a.doc.Bitmaps)))
	return a.doc, nil
}

// checkTextures fails on the first texture record, in index order, that
// was not resolved to an image, then on the first shape command whose
// texture index names no record at all.
func checkTextures(stream *sc.Stream, textures map[int]*texture.Resolved) error {
	for _, ref := range stream.Textures() {
		res, ok := textures[ref.Index]
		if !ok {
			return &texture.UnresolvedError{ID: ref.Index}
		}
		if res.Image == nil {
			return &texture.UnresolvedError{ID: ref.Index, Cause: errors.New("texture not decoded")}
		}
	}
	for _, rec := range stream.Records {
		shape, ok := rec.(*sc.ShapeDef)
		if !ok {
			continue
		}
		for _, cmd := range shape.Commands {
			idx := int(cmd.TextureIndex)
			if res, ok := textures[idx]; !ok || res.Image == nil {
				return &texture.UnresolvedError{ID: idx, Cause: fmt.Errorf("shape %d", shape.ID)}
			}
		}
	}
	return nil
}

// nameSymbols assigns library names before any timeline is built so binds
// may refer forward. Exported movie clips take their export name.
func (a *assembler) nameSymbols() {
	a.names = make(map[uint16]string)
	used := make(map[string]bool)

	exports := make(map[uint16]string)
	if h := a.stream.Header; h != nil {
		for _, e := range h.Exports {
			if _, ok := exports[e.ID]; !ok {
				exports[e.ID] = e.Name
			}
		}
	}

	for _, rec := range a.stream.Records {
		var id uint16
		switch r := rec.(type) {
		case *sc.ShapeDef:
			id = r.ID
			a.names[id] = "shapes/shape_" + strconv.Itoa(int(id))
		case *sc.MovieClipDef:
			id = r.ID
			name := "movieclips/movieclip_" + strconv.Itoa(int(id))
			if export, ok := exports[id]; ok {
				if n := "exports/" + encoding.SanitizeName(export); !used[n] {
					name = n
				}
			}
			a.names[id] = name
		default:
			continue
		}
		used[a.names[id]] = true
	}
}

// lookup returns the library name for a bind target. skip is set for
// text fields, which have no library counterpart.
func (a *assembler) lookup(id uint16) (name string, skip bool, err error) {
	if name, ok := a.names[id]; ok {
		return name, false, nil
	}
	if a.textFields[id] {
		return "", true, nil
	}
	return "", false, fmt.Errorf("%w: symbol %d is not defined", ErrAssembly, id)
}

// root lays out one layer per export on the main timeline.
func (a *assembler) root() (*xfl.Timeline, error) {
	name := a.opts.Name
	if name == "" {
		name = "Scene 1"
	}
	tl := &xfl.Timeline{Name: name}
	if a.stream.Header == nil {
		return tl, nil
	}

	clips := a.stream.MovieClips()
	fpsSet := false
	for i, e := range a.stream.Header.Exports {
		lib, skip, err := a.lookup(e.ID)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", e.Name, err)
		}
		if skip {
			a.log.Debug("skipping exported text field", zap.String("export", e.Name))
			continue
		}

		duration := 1
		if sym := a.doc.Symbol(lib); sym != nil {
			if n := sym.Timeline.FrameCount(); n > duration {
				duration = n
			}
		}
		if mc, ok := clips[e.ID]; ok && !fpsSet && mc.FrameRate > 0 {
			a.doc.FrameRate = float64(mc.FrameRate)
			fpsSet = true
		}

		tl.Layers = append(tl.Layers, &xfl.Layer{
			Name:  encoding.SanitizeName(e.Name),
			Order: i,
			Frames: []*xfl.Frame{{
				Duration: duration,
				Elements: []*xfl.Element{{
					Kind:        xfl.SymbolInstance,
					LibraryItem: lib,
					Name:        e.Name,
					Matrix:      xfl.IdentityMatrix,
				}},
			}},
		})
	}
	return tl, nil
}
