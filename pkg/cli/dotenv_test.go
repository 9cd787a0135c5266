package cli

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/Fepozopo/crayon/pkg/paint"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Box != paint.DefaultBox {
		t.Fatalf("box = %v", cfg.Box)
	}
	if cfg.Matcher != paint.DefaultMatcher() {
		t.Fatalf("matcher = %+v", cfg.Matcher)
	}
	if len(cfg.Palette) != len(paint.Palette) || len(cfg.Sizes) != 3 || cfg.DBPath != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfigFromEnv(envMap(map[string]string{
		"CRAYON_BOX_WIDTH":         "400",
		"CRAYON_BOX_HEIGHT":        " 300 ",
		"CRAYON_TOLERANCE":         "8",
		"CRAYON_LINEART_THRESHOLD": "100",
		"CRAYON_MATCH":             "LAB",
		"CRAYON_HISTORY_LIMIT":     "50",
		"CRAYON_DB":                "/tmp/pages.db",
		"CRAYON_PREVIEW":           "off",
	}))
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Box != image.Pt(400, 300) {
		t.Fatalf("box = %v", cfg.Box)
	}
	want := paint.Matcher{Tolerance: 8, LineArtThreshold: 100, Mode: paint.MatchLab}
	if cfg.Matcher != want {
		t.Fatalf("matcher = %+v; want %+v", cfg.Matcher, want)
	}
	if cfg.HistoryLimit != 50 || cfg.DBPath != "/tmp/pages.db" || cfg.Preview {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	bad := []map[string]string{
		{"CRAYON_BOX_WIDTH": "wide"},
		{"CRAYON_BOX_HEIGHT": "0"},
		{"CRAYON_HISTORY_LIMIT": "-1"},
		{"CRAYON_HISTORY_LIMIT": "1"},
		{"CRAYON_MATCH": "hsv"},
		{"CRAYON_PALETTE": filepath.Join(t.TempDir(), "missing.yaml")},
	}
	for _, env := range bad {
		if _, err := LoadConfigFromEnv(envMap(env)); err == nil {
			t.Fatalf("expected error for %v", env)
		}
	}
}

func TestPaletteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	data := "colors:\n  - \"#f00\"\n  - \"#00FF7f\"\nsizes: [3, 6]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFromEnv(envMap(map[string]string{"CRAYON_PALETTE": path}))
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if len(cfg.Palette) != 2 || cfg.Palette[0] != "#FF0000" || cfg.Palette[1] != "#00FF7F" {
		t.Fatalf("palette = %v", cfg.Palette)
	}
	if len(cfg.Sizes) != 2 || cfg.Sizes[0] != 3 || cfg.Sizes[1] != 6 {
		t.Fatalf("sizes = %v", cfg.Sizes)
	}
}

func TestParsePaletteRejectsBadEntries(t *testing.T) {
	for _, doc := range []string{
		"colors: [\"red\"]",
		"sizes: [0]",
		"colors: [",
	} {
		if _, err := ParsePalette([]byte(doc)); err == nil {
			t.Fatalf("expected error for %q", doc)
		}
	}
}

func TestTruthy(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", " on "} {
		if !truthy(s) {
			t.Fatalf("truthy(%q) = false", s)
		}
	}
	for _, s := range []string{"", "0", "off", "nah"} {
		if truthy(s) {
			t.Fatalf("truthy(%q) = true", s)
		}
	}
}
