package assemble

import (
	"encoding/binary"
	"image"
	"math"
	"strconv"

	"github.com/zeebo/blake3"
	xdraw "golang.org/x/image/draw"

	"github.com/Faultbox/sc2fla/pkg/sc"
	"github.com/Faultbox/sc2fla/pkg/xfl"
)

// degenerate is the smallest UV determinant treated as a real mapping.
const degenerate = 1e-9

// bitmap cuts the UV bounding box of cmd out of its texture sheet and
// returns the library item name together with the bitmap's origin in
// sheet pixels. Identical crops share one library item.
func (a *assembler) bitmap(cmd *sc.BitmapCommand) (string, image.Point) {
	sheet := a.textures[int(cmd.TextureIndex)].Image
	bounds := sheet.Bounds()

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range cmd.Points {
		u, v := cmd.UV(i, bounds.Dx(), bounds.Dy())
		minX, maxX = math.Min(minX, u), math.Max(maxX, u)
		minY, maxY = math.Min(minY, v), math.Max(maxY, v)
	}

	r := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	if r.Dx() == 0 {
		r.Max.X++
	}
	if r.Dy() == 0 {
		r.Max.Y++
	}
	r = r.Add(bounds.Min).Intersect(bounds)
	if r.Empty() {
		r = image.Rect(0, 0, 1, 1).Add(bounds.Min)
	}

	crop := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(crop, crop.Bounds(), sheet, r.Min, xdraw.Src)

	sum := digest(crop)
	if name, ok := a.bitmaps[sum]; ok {
		return name, r.Min.Sub(bounds.Min)
	}
	name := "bitmaps/bitmap_" + strconv.Itoa(len(a.doc.Bitmaps))
	a.bitmaps[sum] = name
	a.doc.Bitmaps = append(a.doc.Bitmaps, &xfl.BitmapItem{
		Name:         name,
		TextureIndex: int(cmd.TextureIndex),
		Image:        crop,
	})
	return name, r.Min.Sub(bounds.Min)
}

func digest(img *image.NRGBA) [32]byte {
	h := blake3.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[:4], uint32(img.Rect.Dx()))
	binary.LittleEndian.PutUint32(dims[4:], uint32(img.Rect.Dy()))
	h.Write(dims[:])
	h.Write(img.Pix)

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// placement solves the affine transform taking bitmap pixels, relative to
// origin, onto the command's XY points. The first three point pairs fix
// the transform; fewer points or collinear UVs fall back to a translation
// of the first point.
func placement(cmd *sc.BitmapCommand, width, height int, origin image.Point) xfl.Matrix {
	if len(cmd.Points) == 0 {
		return xfl.IdentityMatrix
	}
	uv := func(i int) (float64, float64) {
		u, v := cmd.UV(i, width, height)
		return u - float64(origin.X), v - float64(origin.Y)
	}

	u0, v0 := uv(0)
	x0, y0 := cmd.Points[0].X, cmd.Points[0].Y
	translate := xfl.Matrix{A: 1, D: 1, TX: x0 - u0, TY: y0 - v0}
	if len(cmd.Points) < 3 {
		return translate
	}

	u1, v1 := uv(1)
	u2, v2 := uv(2)
	du1, dv1 := u1-u0, v1-v0
	du2, dv2 := u2-u0, v2-v0
	det := du1*dv2 - du2*dv1
	if math.Abs(det) < degenerate {
		return translate
	}

	dx1, dy1 := cmd.Points[1].X-x0, cmd.Points[1].Y-y0
	dx2, dy2 := cmd.Points[2].X-x0, cmd.Points[2].Y-y0
	m := xfl.Matrix{
		A: (dx1*dv2 - dx2*dv1) / det,
		B: (dy1*dv2 - dy2*dv1) / det,
		C: (du1*dx2 - du2*dx1) / det,
		D: (du1*dy2 - du2*dy1) / det,
	}
	m.TX = x0 - m.A*u0 - m.C*v0
	m.TY = y0 - m.B*u0 - m.D*v0
	return m
}
