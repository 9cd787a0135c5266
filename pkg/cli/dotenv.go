package cli

import (
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Fepozopo/crayon/pkg/paint"
)

// debug output is controlled by CRAYON_DEBUG=1 (or the older PREVIEW_DEBUG=1).
var debugEnabled bool

func init() {
	// .env is optional
	_ = godotenv.Load()
	debugEnabled = truthy(os.Getenv("CRAYON_DEBUG")) || truthy(os.Getenv("PREVIEW_DEBUG"))
}

func debugf(format string, args ...interface{}) {
	if debugEnabled {
		fmt.Fprintf(os.Stderr, "crayon: "+format+"\n", args...)
	}
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	}
	return false
}

// Config is the runtime configuration assembled from the environment.
type Config struct {
	Box          image.Point
	Matcher      paint.Matcher
	HistoryLimit int
	// DBPath enables the page store when non-empty.
	DBPath  string
	Palette []string
	Sizes   []int
	// Preview shows the canvas after every change.
	Preview bool
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Box:     paint.DefaultBox,
		Matcher: paint.DefaultMatcher(),
		Palette: append([]string(nil), paint.Palette...),
		Sizes:   append([]int(nil), paint.BrushSizes...),
		Preview: true,
	}
}

// LoadConfig reads the configuration from the process environment
// (including any .env file loaded at startup).
func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(os.Getenv)
}

// LoadConfigFromEnv is LoadConfig with an explicit lookup function.
func LoadConfigFromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	ints := []struct {
		key string
		dst *int
		min int
	}{
		{"CRAYON_BOX_WIDTH", &cfg.Box.X, 1},
		{"CRAYON_BOX_HEIGHT", &cfg.Box.Y, 1},
		{"CRAYON_TOLERANCE", &cfg.Matcher.Tolerance, 1},
		{"CRAYON_LINEART_THRESHOLD", &cfg.Matcher.LineArtThreshold, 1},
		{"CRAYON_HISTORY_LIMIT", &cfg.HistoryLimit, 0},
	}
	for _, e := range ints {
		raw := strings.TrimSpace(getenv(e.key))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", e.key, err)
		}
		if v < e.min {
			return Config{}, fmt.Errorf("%s: must be at least %d, got %d", e.key, e.min, v)
		}
		*e.dst = v
	}
	if cfg.HistoryLimit == 1 {
		return Config{}, fmt.Errorf("CRAYON_HISTORY_LIMIT: must be 0 (unbounded) or at least 2, got 1")
	}

	mode, err := paint.ParseMatchMode(strings.ToLower(strings.TrimSpace(getenv("CRAYON_MATCH"))))
	if err != nil {
		return Config{}, fmt.Errorf("CRAYON_MATCH: %w", err)
	}
	cfg.Matcher.Mode = mode

	cfg.DBPath = strings.TrimSpace(getenv("CRAYON_DB"))
	if v := getenv("CRAYON_PREVIEW"); v != "" {
		cfg.Preview = truthy(v)
	}

	if path := strings.TrimSpace(getenv("CRAYON_PALETTE")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("CRAYON_PALETTE: %w", err)
		}
		pf, err := ParsePalette(b)
		if err != nil {
			return Config{}, fmt.Errorf("CRAYON_PALETTE %s: %w", path, err)
		}
		if len(pf.Colors) > 0 {
			cfg.Palette = pf.Colors
		}
		if len(pf.Sizes) > 0 {
			cfg.Sizes = pf.Sizes
		}
	}
	return cfg, nil
}

// PaletteFile is the YAML layout of a custom palette:
//
//	colors: ["#FF0000", "#00F"]
//	sizes: [3, 6, 12]
type PaletteFile struct {
	Colors []string `yaml:"colors"`
	Sizes  []int    `yaml:"sizes"`
}

// ParsePalette decodes and validates a palette file. Colors are normalized
// to #RRGGBB.
func ParsePalette(b []byte) (PaletteFile, error) {
	var pf PaletteFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return PaletteFile{}, fmt.Errorf("parse palette: %w", err)
	}
	for i, c := range pf.Colors {
		rgb, err := paint.LookupColor(strings.TrimSpace(c))
		if err != nil {
			return PaletteFile{}, fmt.Errorf("palette color %d: %w", i+1, err)
		}
		pf.Colors[i] = rgb.Hex()
	}
	for _, n := range pf.Sizes {
		if n <= 0 {
			return PaletteFile{}, fmt.Errorf("palette size %d must be positive", n)
		}
	}
	return pf, nil
}
