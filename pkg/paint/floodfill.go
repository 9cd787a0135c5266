package paint

// FloodFill paints the 4-connected region around (x, y) with fill and
// returns the number of pixels written.
//
// Region membership is decided against the pixels as they were before the
// fill started, so freshly painted pixels never influence the match. The fill
// is a no-op (returns 0) when the seed already has exactly the fill color or
// when the seed is line art. (x, y) must lie on the surface.
func FloodFill(s *Surface, x, y int, fill RGB, m Matcher) int {
	s.mustContain(x, y)
	w, h := s.Width(), s.Height()
	orig := s.pixels()

	at := func(i int) RGB {
		o := i * 4
		return RGB{orig[o], orig[o+1], orig[o+2]}
	}

	seedIdx := y*w + x
	seed := at(seedIdx)
	if seed == fill {
		return 0
	}
	if m.IsLineArt(seed) {
		return 0
	}

	// visited mask as a bitset (1 bit per pixel)
	mask := make([]byte, (w*h+7)/8)
	visited := func(i int) bool { return mask[i>>3]&(1<<(uint(i)&7)) != 0 }
	mark := func(i int) { mask[i>>3] |= 1 << (uint(i) & 7) }

	// writes go to a working copy; orig stays untouched until the end
	out := make([]byte, len(orig))
	copy(out, orig)

	queue := make([]int, 0, 1024)
	queue = append(queue, seedIdx)
	mark(seedIdx)
	painted := 0

	enqueue := func(ni int) {
		if visited(ni) {
			return
		}
		mark(ni)
		if m.Match(at(ni), seed) {
			queue = append(queue, ni)
		}
	}

	for head := 0; head < len(queue); head++ {
		i := queue[head]
		o := i * 4
		out[o+0] = fill.R
		out[o+1] = fill.G
		out[o+2] = fill.B
		out[o+3] = 255
		painted++

		cx, cy := i%w, i/w
		if cx+1 < w {
			enqueue(i + 1)
		}
		if cx > 0 {
			enqueue(i - 1)
		}
		if cy+1 < h {
			enqueue(i + w)
		}
		if cy > 0 {
			enqueue(i - w)
		}
	}

	copy(orig, out)
	return painted
}
