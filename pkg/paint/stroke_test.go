package paint

import (
	"math"
	"math/rand"
	"testing"
)

func TestStrokeLineTo(t *testing.T) {
	s := NewSurface(20, 11, White)
	st := BeginStroke(s, Pt(2.5, 5.5), red, 5)
	if !s.Capture().Equal(NewSurface(20, 11, White).Capture()) {
		t.Fatalf("BeginStroke must not paint")
	}
	st.LineTo(Pt(17.5, 5.5))
	if !st.Touched() {
		t.Fatalf("stroke should report painted segment")
	}
	for x := 3; x <= 17; x++ {
		if c := s.At(x, 5); c != red.Opaque() {
			t.Fatalf("center line pixel %d,5 = %v; want red", x, c)
		}
	}
	if c := s.At(10, 4); c != red.Opaque() {
		t.Fatalf("pixel within half width = %v; want red", c)
	}
	if c := s.At(10, 0); c != White.Opaque() {
		t.Fatalf("pixel far from stroke = %v; want white", c)
	}
	if c := s.At(10, 10); c != White.Opaque() {
		t.Fatalf("pixel far from stroke = %v; want white", c)
	}
}

func TestStrokeRoundCap(t *testing.T) {
	s := NewSurface(30, 30, White)
	st := BeginStroke(s, Pt(15, 15), red, 10)
	st.LineTo(Pt(15, 15))
	// a zero length segment is a disc of radius 5
	if c := s.At(15, 15); c != red.Opaque() {
		t.Fatalf("disc center = %v", c)
	}
	if c := s.At(14, 18); c != red.Opaque() {
		t.Fatalf("inside disc = %v", c)
	}
	// corner of the bounding square lies outside the disc
	if c := s.At(10, 10); c != White.Opaque() {
		t.Fatalf("square corner should stay white, got %v", c)
	}
}

func TestStrokeJoinsSegments(t *testing.T) {
	s := NewSurface(30, 30, White)
	st := BeginStroke(s, Pt(5.5, 5.5), green, 3)
	st.LineTo(Pt(20.5, 5.5))
	st.LineTo(Pt(20.5, 20.5))
	for _, p := range [][2]int{{12, 5}, {20, 5}, {20, 12}, {20, 20}} {
		if c := s.At(p[0], p[1]); c != green.Opaque() {
			t.Fatalf("pixel %v = %v; want green", p, c)
		}
	}
	st.Close()
	st.LineTo(Pt(5.5, 20.5))
	if c := s.At(12, 20); c != White.Opaque() {
		t.Fatalf("LineTo after Close painted %v", c)
	}
}

func TestStrokeOffSurfaceIsClipped(t *testing.T) {
	s := NewSurface(10, 10, White)
	st := BeginStroke(s, Pt(-50, -50), red, 5)
	st.LineTo(Pt(-40, -40))
	if !s.Capture().Equal(NewSurface(10, 10, White).Capture()) {
		t.Fatalf("segment outside the surface changed pixels")
	}
	st.LineTo(Pt(5, 5))
	if c := s.At(5, 5); c == White.Opaque() {
		t.Fatalf("segment entering the surface did not paint")
	}
}

func TestSprayDensity(t *testing.T) {
	cases := map[int]int{1: 15, 5: 15, 8: 15, 9: 25, 10: 25, 15: 25, 16: 40, 20: 40}
	for r, ex := range cases {
		if got := SprayDensity(r); got != ex {
			t.Fatalf("SprayDensity(%d) = %d; want %d", r, got, ex)
		}
	}
}

func TestSprayStaysWithinRadius(t *testing.T) {
	s := NewSurface(60, 60, White)
	rng := rand.New(rand.NewSource(42))
	center := Pt(30, 30)
	const radius = 10
	for i := 0; i < 20; i++ {
		Spray(s, center, red, radius, rng)
	}
	changed := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			if s.At(x, y) == White.Opaque() {
				continue
			}
			changed++
			d := math.Hypot(float64(x)+0.5-center.X, float64(y)+0.5-center.Y)
			if d > radius+2 {
				t.Fatalf("spray dot at %d,%d is %.1f from center", x, y, d)
			}
		}
	}
	if changed == 0 {
		t.Fatalf("spray painted nothing")
	}
}

func TestSprayDeterministicWithSeed(t *testing.T) {
	a := NewSurface(40, 40, White)
	b := NewSurface(40, 40, White)
	Spray(a, Pt(20, 20), red, 5, rand.New(rand.NewSource(7)))
	Spray(b, Pt(20, 20), red, 5, rand.New(rand.NewSource(7)))
	if !a.Capture().Equal(b.Capture()) {
		t.Fatalf("same seed should give the same spray")
	}
}
