package paint

import (
	"image"
	"math"
	"math/rand"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Point is a sub-pixel pointer position in surface coordinates.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{x, y} }

// Stroke is an open freehand path. Every LineTo renders the new segment at
// once with round caps and joins.
type Stroke struct {
	surface *Surface
	color   RGB
	width   float64
	last    Point
	open    bool
	touched bool
}

// BeginStroke starts a path at p. Nothing is painted until the first LineTo.
func BeginStroke(s *Surface, p Point, col RGB, width int) *Stroke {
	return &Stroke{surface: s, color: col, width: float64(width), last: p, open: true}
}

// LineTo extends the path to p and paints the segment.
func (st *Stroke) LineTo(p Point) {
	if !st.open {
		return
	}
	paintCapsule(st.surface, st.last, p, st.width/2, st.color)
	st.last = p
	st.touched = true
}

// Close ends the path; further LineTo calls are ignored.
func (st *Stroke) Close() { st.open = false }

// Touched reports whether any segment was painted.
func (st *Stroke) Touched() bool { return st.touched }

// SprayDensity is the number of dots per spray event for a given radius.
func SprayDensity(radius int) int {
	switch {
	case radius > 15:
		return 40
	case radius > 8:
		return 25
	default:
		return 15
	}
}

// Spray scatters SprayDensity(radius) unit dots uniformly in angle and
// radius around center.
func Spray(s *Surface, center Point, col RGB, radius int, rng *rand.Rand) {
	n := SprayDensity(radius)
	for i := 0; i < n; i++ {
		angle := rng.Float64() * 2 * math.Pi
		r := rng.Float64() * float64(radius)
		p := Pt(center.X+r*math.Cos(angle), center.Y+r*math.Sin(angle))
		paintCapsule(s, p, p, 1, col)
	}
}

// paintCapsule fills the set of points within r of the segment a-b: a thick
// line with round caps. a == b paints a disc.
func paintCapsule(s *Surface, a, b Point, r float64, col RGB) {
	if r <= 0 {
		return
	}
	minX := math.Floor(math.Min(a.X, b.X) - r - 1)
	minY := math.Floor(math.Min(a.Y, b.Y) - r - 1)
	maxX := math.Ceil(math.Max(a.X, b.X) + r + 1)
	maxY := math.Ceil(math.Max(a.Y, b.Y) + r + 1)
	box := image.Rect(int(minX), int(minY), int(maxX), int(maxY))
	if !box.Overlaps(s.Bounds()) {
		return
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	off := Pt(minX, minY)
	capsulePath(z, Pt(a.X-off.X, a.Y-off.Y), Pt(b.X-off.X, b.Y-off.Y), r)

	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	xdraw.DrawMask(s.nrgba(), box, image.NewUniform(col.NRGBA()), image.Point{}, mask, image.Point{}, xdraw.Over)
}

// capsulePath traces the outline of a capsule: a half circle around b, the
// far side, a half circle around a, and back.
func capsulePath(z *vector.Rasterizer, a, b Point, r float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	base := math.Atan2(dy, dx)
	if dx == 0 && dy == 0 {
		base = 0
	}
	steps := int(math.Max(8, math.Ceil(r*2)))

	first := true
	emit := func(x, y float64) {
		if first {
			z.MoveTo(float32(x), float32(y))
			first = false
			return
		}
		z.LineTo(float32(x), float32(y))
	}
	arc := func(c Point, from float64) {
		for i := 0; i <= steps; i++ {
			t := from + math.Pi*float64(i)/float64(steps)
			emit(c.X+r*math.Cos(t), c.Y+r*math.Sin(t))
		}
	}
	// angles measured from the segment direction; -90deg is the left side
	arc(b, base-math.Pi/2)
	arc(a, base+math.Pi/2)
	z.ClosePath()
}
