package texture

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"github.com/Faultbox/sc2fla/internal/tools"
	"github.com/Faultbox/sc2fla/pkg/ktx"
	"github.com/Faultbox/sc2fla/pkg/sc"
)

// decodeRecord decodes the pixel data carried by a texture record.
func (s *Session) decodeRecord(ctx context.Context, ref *sc.TextureRef) (*image.NRGBA, []byte, error) {
	if len(ref.KTX) > 0 {
		img, err := s.runTool(ctx, tools.PVRTexTool, ".ktx", ref.KTX, ref.Index)
		return img, ref.KTX, err
	}

	w, h := int(ref.Width), int(ref.Height)
	if ref.PixelType.BytesPerPixel() > 0 {
		img, err := sc.DecodePixels(ref.PixelType, w, h, ref.Pixels)
		return img, ref.Pixels, err
	}

	format, ok := ref.PixelType.GLInternalFormat()
	if !ok {
		return nil, ref.Pixels, fmt.Errorf("%w: %s", sc.ErrUnsupportedPixel, ref.PixelType)
	}
	container := ktx.Encode(&ktx.Texture{
		GLInternalFormat: format,
		Width:            uint32(w),
		Height:           uint32(h),
		Data:             ref.Pixels,
	})
	img, err := s.runTool(ctx, tools.PVRTexTool, ".ktx", container, ref.Index)
	return img, ref.Pixels, err
}

// decodeFile decodes an external texture file with the tool matching its
// extension.
func (s *Session) decodeFile(ctx context.Context, path string, index int) (*image.NRGBA, error) {
	var tool tools.ID
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sctx":
		tool = tools.SctxConverter
	case ".ktx":
		tool = tools.PVRTexTool
	case ".png":
		return loadPNG(path)
	default:
		return nil, fmt.Errorf("no decoder for %s", filepath.Base(path))
	}
	return s.invoke(ctx, tool, path, index)
}

// runTool writes data to a scratch file and decodes it with tool.
func (s *Session) runTool(ctx context.Context, tool tools.ID, ext string, data []byte, index int) (*image.NRGBA, error) {
	dir, err := s.scratch()
	if err != nil {
		return nil, err
	}
	in := filepath.Join(dir, "texture_"+strconv.Itoa(index)+ext)
	if err := os.WriteFile(in, data, 0644); err != nil {
		return nil, fmt.Errorf("writing scratch texture: %w", err)
	}
	return s.invoke(ctx, tool, in, index)
}

func (s *Session) invoke(ctx context.Context, tool tools.ID, in string, index int) (*image.NRGBA, error) {
	if s.r.invoker == nil {
		return nil, fmt.Errorf("%s needed for texture %d but no tool runner is configured", tool, index)
	}
	dir, err := s.scratch()
	if err != nil {
		return nil, err
	}
	out := filepath.Join(dir, "texture_"+strconv.Itoa(index)+"_decoded.png")
	if err := s.r.invoker.Invoke(ctx, tool, in, out); err != nil {
		return nil, err
	}
	return loadPNG(out)
}

func loadPNG(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to a zero-origin NRGBA.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// fitSize scales img to width x height when the decoder produced a sheet of
// a different size than the record declares.
func fitSize(img *image.NRGBA, width, height int) *image.NRGBA {
	if width <= 0 || height <= 0 {
		return img
	}
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		return img
	}
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}
