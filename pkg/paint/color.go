package paint

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

// RGBA is a single surface pixel.
type RGBA struct {
	R, G, B, A uint8
}

// RGB drops the alpha channel.
func (p RGBA) RGB() RGB { return RGB{p.R, p.G, p.B} }

// Opaque returns c as a fully opaque pixel.
func (c RGB) Opaque() RGBA { return RGBA{c.R, c.G, c.B, 255} }

// NRGBA converts c to the standard library color type.
func (c RGB) NRGBA() color.NRGBA { return color.NRGBA{c.R, c.G, c.B, 255} }

// Hex formats c as #RRGGBB.
func (c RGB) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// ErrColor is returned by LookupColor for malformed input.
var ErrColor = errors.New("malformed color")

// ParseColor accepts #rrggbb or #rgb. #abc expands to #aabbcc.
// Any other input yields black.
func ParseColor(hex string) RGB {
	c, err := LookupColor(hex)
	if err != nil {
		return Black
	}
	return c
}

// LookupColor is ParseColor that reports malformed input instead of
// falling back to black.
func LookupColor(hex string) (RGB, error) {
	if (len(hex) != 4 && len(hex) != 7) || hex[0] != '#' {
		return Black, fmt.Errorf("%w: %q", ErrColor, hex)
	}
	digits := hex[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return Black, fmt.Errorf("%w: %q", ErrColor, hex)
		}
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return Black, fmt.Errorf("%w: %q", ErrColor, hex)
	}
	return RGB{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// ColorsMatch reports whether every channel of c1 and c2 differs by strictly
// less than tolerance.
func ColorsMatch(c1, c2 RGB, tolerance int) bool {
	return absDiff(c1.R, c2.R) < tolerance &&
		absDiff(c1.G, c2.G) < tolerance &&
		absDiff(c1.B, c2.B) < tolerance
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// IsLineArt reports whether c is dark enough to count as ink: the channel sum
// is below 255.
func IsLineArt(c RGB) bool {
	return int(c.R)+int(c.G)+int(c.B) < DefaultLineArtThreshold
}

const (
	DefaultTolerance        = 20
	DefaultLineArtThreshold = 255
)

// MatchMode selects how Matcher compares two colors.
type MatchMode int

const (
	// MatchChannel compares each channel independently.
	MatchChannel MatchMode = iota
	// MatchLab compares CIE Lab distance (scaled to 0..100).
	MatchLab
)

func (m MatchMode) String() string {
	switch m {
	case MatchChannel:
		return "channel"
	case MatchLab:
		return "lab"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// ParseMatchMode maps "channel" or "lab" to a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "", "channel", "rgb":
		return MatchChannel, nil
	case "lab":
		return MatchLab, nil
	}
	return MatchChannel, fmt.Errorf("unknown match mode %q", s)
}

// Matcher holds the fill heuristics. Zero fields fall back to the defaults.
type Matcher struct {
	Tolerance        int
	LineArtThreshold int
	Mode             MatchMode
}

// DefaultMatcher returns the per-channel tolerance 20 / ink sum 255 pair.
func DefaultMatcher() Matcher {
	return Matcher{Tolerance: DefaultTolerance, LineArtThreshold: DefaultLineArtThreshold}
}

func (m Matcher) tolerance() int {
	if m.Tolerance <= 0 {
		return DefaultTolerance
	}
	return m.Tolerance
}

func (m Matcher) threshold() int {
	if m.LineArtThreshold <= 0 {
		return DefaultLineArtThreshold
	}
	return m.LineArtThreshold
}

// Match reports whether a and b belong to the same fill region.
func (m Matcher) Match(a, b RGB) bool {
	if m.Mode == MatchLab {
		return labDistance(a, b) < float64(m.tolerance())
	}
	return ColorsMatch(a, b, m.tolerance())
}

// IsLineArt reports whether c is ink under this matcher's threshold.
func (m Matcher) IsLineArt(c RGB) bool {
	return int(c.R)+int(c.G)+int(c.B) < m.threshold()
}

func labDistance(a, b RGB) float64 {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	return ca.DistanceLab(cb) * 100
}
