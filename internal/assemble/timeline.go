package assemble

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/sc2fla/pkg/sc"
	"github.com/Faultbox/sc2fla/pkg/xfl"
)

// labelPriority keeps the frame label layer above every drawn layer.
const labelPriority = -1

// blendModes maps SC blend ids to Animate blend mode names. Normal is
// left empty.
var blendModes = []string{
	0: "", 1: "", 2: "layer", 3: "multiply", 4: "screen", 5: "lighten",
	6: "darken", 7: "difference", 8: "add", 9: "subtract", 10: "invert",
	11: "alpha", 12: "erase", 13: "overlay", 14: "hardlight",
}

// SortLayers orders layers by draw priority, topmost first. Layers
// without a priority follow in their current order. The sort is stable.
func SortLayers(layers []*xfl.Layer) {
	sort.SliceStable(layers, func(i, j int) bool {
		a, b := layers[i], layers[j]
		if a.HasPriority != b.HasPriority {
			return a.HasPriority
		}
		return a.HasPriority && a.Priority < b.Priority
	})
}

// shape builds a graphic symbol with one layer per bitmap command. The
// last command is drawn on top.
func (a *assembler) shape(def *sc.ShapeDef) (*xfl.Symbol, error) {
	sym := &xfl.Symbol{
		Name:     a.names[def.ID],
		Kind:     xfl.Graphic,
		Timeline: &xfl.Timeline{Name: a.names[def.ID]},
	}

	n := len(def.Commands)
	for i := range def.Commands {
		cmd := &def.Commands[i]
		if len(cmd.Points) == 0 {
			a.log.Debug("skipping empty bitmap command", zap.Uint16("shape", def.ID), zap.Int("command", i))
			continue
		}
		sheet := a.textures[int(cmd.TextureIndex)].Image.Bounds()
		name, origin := a.bitmap(cmd)

		sym.Timeline.Layers = append(sym.Timeline.Layers, &xfl.Layer{
			Name:        "command_" + strconv.Itoa(i),
			Order:       i,
			Priority:    n - 1 - i,
			HasPriority: true,
			Frames: []*xfl.Frame{{
				Duration: 1,
				Elements: []*xfl.Element{{
					Kind:        xfl.BitmapInstance,
					LibraryItem: name,
					Matrix:      placement(cmd, sheet.Dx(), sheet.Dy(), origin),
				}},
			}},
		})
	}
	return sym, nil
}

// bindLayer accumulates the per-frame instances of one bind.
type bindLayer struct {
	item   string
	layer  *xfl.Layer
	frames [][]*xfl.Element
}

// movieClip builds a movie clip symbol with one layer per bind. A bind's
// priority is its stacking rank the first time it is drawn.
func (a *assembler) movieClip(def *sc.MovieClipDef) (*xfl.Symbol, error) {
	name := a.names[def.ID]
	sym := &xfl.Symbol{
		Name:     name,
		Kind:     xfl.MovieClip,
		Timeline: &xfl.Timeline{Name: name},
	}
	if a.stream.Header != nil {
		for _, e := range a.stream.Header.Exports {
			if e.ID == def.ID {
				sym.Linkage = e.Name
				break
			}
		}
	}
	if g := def.ScalingGrid; g != nil {
		sym.ScalingGrid = &xfl.Rect{Left: g.Left, Top: g.Top, Right: g.Right, Bottom: g.Bottom}
	}

	if int(def.MatrixBank) >= len(a.banks) {
		return nil, fmt.Errorf("%w: movie clip %d uses matrix bank %d, stream has %d",
			ErrAssembly, def.ID, def.MatrixBank, len(a.banks))
	}
	bank := a.banks[def.MatrixBank]

	binds := make([]*bindLayer, len(def.Binds))
	for j, b := range def.Binds {
		lib, skip, err := a.lookup(b.ID)
		if err != nil {
			return nil, fmt.Errorf("movie clip %d bind %d: %w", def.ID, j, err)
		}
		if skip {
			a.log.Debug("skipping text field bind", zap.Uint16("clip", def.ID), zap.Uint16("bind", b.ID))
			continue
		}
		layerName := b.Name
		if layerName == "" {
			layerName = "bind_" + strconv.Itoa(j)
		}
		binds[j] = &bindLayer{
			item:   lib,
			layer:  &xfl.Layer{Name: layerName, Order: j},
			frames: make([][]*xfl.Element, len(def.Frames)),
		}
	}

	for f := range def.Frames {
		elements := def.FrameElements(f)
		for k, e := range elements {
			if int(e.BindIndex) >= len(binds) {
				return nil, fmt.Errorf("%w: movie clip %d frame %d references bind %d of %d",
					ErrAssembly, def.ID, f, e.BindIndex, len(binds))
			}
			bl := binds[e.BindIndex]
			if bl == nil {
				continue
			}
			if !bl.layer.HasPriority {
				bl.layer.Priority = len(elements) - 1 - k
				bl.layer.HasPriority = true
			}
			b := def.Binds[e.BindIndex]
			bl.frames[f] = append(bl.frames[f], &xfl.Element{
				Kind:        xfl.SymbolInstance,
				LibraryItem: bl.item,
				Name:        b.Name,
				Matrix:      matrix(bank.Matrix(e.MatrixIndex)),
				Color:       color(bank.Color(e.ColorIndex)),
				Blend:       blend(b.Blend),
			})
		}
	}

	if labels := labelLayer(def); labels != nil {
		sym.Timeline.Layers = append(sym.Timeline.Layers, labels)
	}
	for _, bl := range binds {
		if bl == nil {
			continue
		}
		bl.layer.Frames = keyframes(bl.frames)
		sym.Timeline.Layers = append(sym.Timeline.Layers, bl.layer)
	}
	return sym, nil
}

// keyframes merges runs of identical frames into keyframes with a
// duration.
func keyframes(frames [][]*xfl.Element) []*xfl.Frame {
	var out []*xfl.Frame
	for i, elements := range frames {
		if n := len(out); n > 0 && reflect.DeepEqual(out[n-1].Elements, elements) {
			out[n-1].Duration++
			continue
		}
		out = append(out, &xfl.Frame{Index: i, Duration: 1, Elements: elements})
	}
	return out
}

// labelLayer holds the clip's frame labels, one keyframe per label. It is
// nil for clips without labels.
func labelLayer(def *sc.MovieClipDef) *xfl.Layer {
	var frames []*xfl.Frame
	for i, f := range def.Frames {
		if f.Label == "" {
			if len(frames) == 0 {
				frames = append(frames, &xfl.Frame{Index: i, Duration: 1})
			} else {
				frames[len(frames)-1].Duration++
			}
			continue
		}
		frames = append(frames, &xfl.Frame{Index: i, Duration: 1, Label: f.Label})
	}

	labelled := false
	for _, f := range frames {
		if f.Label != "" {
			labelled = true
			break
		}
	}
	if !labelled {
		return nil
	}
	return &xfl.Layer{
		Name:        "labels",
		Order:       -1,
		Priority:    labelPriority,
		HasPriority: true,
		Frames:      frames,
	}
}

func matrix(m sc.Matrix) xfl.Matrix {
	return xfl.Matrix{A: m.A, B: m.B, C: m.C, D: m.D, TX: m.TX, TY: m.TY}
}

// color converts an SC colour transform. Identity transforms map to nil.
func color(c *sc.ColorTransform) *xfl.Color {
	if c == nil {
		return nil
	}
	if c.RMul == 0xFF && c.GMul == 0xFF && c.BMul == 0xFF && c.AMul == 0xFF &&
		c.RAdd == 0 && c.GAdd == 0 && c.BAdd == 0 {
		return nil
	}
	return &xfl.Color{
		RedMultiplier:   float64(c.RMul) / 0xFF,
		GreenMultiplier: float64(c.GMul) / 0xFF,
		BlueMultiplier:  float64(c.BMul) / 0xFF,
		AlphaMultiplier: float64(c.AMul) / 0xFF,
		RedOffset:       int(c.RAdd),
		GreenOffset:     int(c.GAdd),
		BlueOffset:      int(c.BAdd),
	}
}

func blend(id uint8) string {
	id &= 0x3F
	if int(id) < len(blendModes) {
		return blendModes[id]
	}
	return ""
}
