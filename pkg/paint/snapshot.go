package paint

import (
	"bytes"
	"image"
	"image/draw"
)

// Snapshot is an immutable copy of a surface's pixels. The zero value is an
// empty 0x0 snapshot.
type Snapshot struct {
	width, height int
	pix           []byte // 4 bytes per pixel, NRGBA order, stride width*4
}

// SnapshotFromImage copies img into a new snapshot. The image is converted
// to non-premultiplied RGBA and rebased to the origin.
func SnapshotFromImage(img image.Image) Snapshot {
	if img == nil {
		return Snapshot{}
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
	return Snapshot{width: b.Dx(), height: b.Dy(), pix: n.Pix}
}

func (s Snapshot) Width() int  { return s.width }
func (s Snapshot) Height() int { return s.height }

// Size returns the snapshot dimensions as a point.
func (s Snapshot) Size() image.Point { return image.Pt(s.width, s.height) }

// Empty reports whether the snapshot holds no pixels.
func (s Snapshot) Empty() bool { return s.width == 0 || s.height == 0 }

// Equal reports byte-exact equality of dimensions and pixels.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.width == o.width && s.height == o.height && bytes.Equal(s.pix, o.pix)
}

// At returns the pixel at (x, y). Out of range coordinates panic.
func (s Snapshot) At(x, y int) RGBA {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		panic(outOfBounds(x, y, s.width, s.height))
	}
	i := (y*s.width + x) * 4
	return RGBA{s.pix[i], s.pix[i+1], s.pix[i+2], s.pix[i+3]}
}

// Image returns a fresh *image.NRGBA holding a copy of the pixels.
func (s Snapshot) Image() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	copy(out.Pix, s.pix)
	return out
}
