package paint

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

var (
	// ErrSnapshotSize is returned when a snapshot does not match the surface.
	ErrSnapshotSize = errors.New("snapshot size does not match surface")
	// ErrNoImage is returned when a surface is requested from an empty source.
	ErrNoImage = errors.New("source image is nil or empty")
)

// Surface is the live editable bitmap of a session. Its origin is (0,0).
type Surface struct {
	img *image.NRGBA
}

// FitSize returns the largest size with the aspect ratio of srcW x srcH that
// fits inside box. The width is tried first and the height bounds it.
func FitSize(srcW, srcH int, box image.Point) image.Point {
	if srcW <= 0 || srcH <= 0 || box.X <= 0 || box.Y <= 0 {
		return image.Point{}
	}
	aspect := float64(srcW) / float64(srcH)
	w := float64(box.X)
	h := w / aspect
	if h > float64(box.Y) {
		h = float64(box.Y)
		w = h * aspect
	}
	out := image.Pt(int(w), int(h))
	if out.X < 1 {
		out.X = 1
	}
	if out.Y < 1 {
		out.Y = 1
	}
	return out
}

// NewSurface returns a w x h surface filled with the opaque color bg.
func NewSurface(w, h int, bg RGB) *Surface {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = bg.R
		img.Pix[i+1] = bg.G
		img.Pix[i+2] = bg.B
		img.Pix[i+3] = 255
	}
	return &Surface{img: img}
}

// NewSurfaceFromImage sizes a surface to fit src inside box and draws src
// scaled into it over white paper.
func NewSurfaceFromImage(src image.Image, box image.Point) (*Surface, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, ErrNoImage
	}
	b := src.Bounds()
	size := FitSize(b.Dx(), b.Dy(), box)
	if size.X == 0 {
		return nil, fmt.Errorf("invalid bounding box %v", box)
	}
	scaled := imaging.Resize(src, size.X, size.Y, imaging.Lanczos)
	paper := imaging.New(size.X, size.Y, White.NRGBA())
	return &Surface{img: imaging.Overlay(paper, scaled, image.Point{}, 1.0)}, nil
}

// NewSurfaceFromSnapshot builds a surface holding a copy of snap.
func NewSurfaceFromSnapshot(snap Snapshot) *Surface {
	return &Surface{img: snap.Image()}
}

func (s *Surface) Width() int              { return s.img.Rect.Dx() }
func (s *Surface) Height() int             { return s.img.Rect.Dy() }
func (s *Surface) Bounds() image.Rectangle { return s.img.Rect }

// Size returns the surface dimensions as a point.
func (s *Surface) Size() image.Point { return s.img.Rect.Size() }

// Image exposes the live pixels for encoders and previews. Callers must not
// keep or mutate it.
func (s *Surface) Image() image.Image { return s.img }

// Contains reports whether (x, y) addresses a pixel.
func (s *Surface) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.img.Rect.Dx() && y < s.img.Rect.Dy()
}

// At returns the pixel at (x, y). Out of range coordinates panic.
func (s *Surface) At(x, y int) RGBA {
	s.mustContain(x, y)
	i := s.img.PixOffset(x, y)
	p := s.img.Pix[i : i+4 : i+4]
	return RGBA{p[0], p[1], p[2], p[3]}
}

// Set writes the pixel at (x, y). Out of range coordinates panic.
func (s *Surface) Set(x, y int, c RGBA) {
	s.mustContain(x, y)
	i := s.img.PixOffset(x, y)
	p := s.img.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

func (s *Surface) mustContain(x, y int) {
	if !s.Contains(x, y) {
		panic(outOfBounds(x, y, s.Width(), s.Height()))
	}
}

func outOfBounds(x, y, w, h int) string {
	return fmt.Sprintf("paint: pixel (%d,%d) out of bounds %dx%d", x, y, w, h)
}

// Clamp pulls (x, y) onto the nearest pixel of the surface.
func (s *Surface) Clamp(x, y int) (int, int) {
	return clampInt(x, 0, s.Width()-1), clampInt(y, 0, s.Height()-1)
}

// Capture returns an independent copy of every pixel.
func (s *Surface) Capture() Snapshot {
	pix := make([]byte, len(s.img.Pix))
	copy(pix, s.img.Pix)
	return Snapshot{width: s.Width(), height: s.Height(), pix: pix}
}

// Restore overwrites the surface with snap. The surface is never resized.
func (s *Surface) Restore(snap Snapshot) error {
	if snap.width != s.Width() || snap.height != s.Height() {
		return fmt.Errorf("%w: have %dx%d, got %dx%d", ErrSnapshotSize, s.Width(), s.Height(), snap.width, snap.height)
	}
	copy(s.img.Pix, snap.pix)
	return nil
}

// EncodePNG writes the surface as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	if err := imaging.Encode(w, s.img, imaging.PNG); err != nil {
		return fmt.Errorf("png encode failed: %w", err)
	}
	return nil
}

// PNG returns the surface encoded as PNG.
func (s *Surface) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pixels returns the raw buffer; used by the fill engine for bulk writes.
func (s *Surface) pixels() []byte { return s.img.Pix }

func (s *Surface) nrgba() *image.NRGBA { return s.img }

// clampInt clamps v to [lo,hi]
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
