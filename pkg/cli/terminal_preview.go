package cli

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"
)

// Terminal previews of the canvas.
//
// Backends, in detection order:
//   - inline: iTerm2 style OSC 1337 (iTerm2, WezTerm, Warp, Tabby, VSCode, ...)
//   - kitty: kitty graphics protocol, chunked base64 inside ESC _G ... ESC \
//   - sixel: piped through img2sixel
//   - chafa: block character rendering for everything else
//
// PREVIEW_BACKEND=kitty|inline|sixel|chafa tries that backend first.

func isKitty() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	// ghostty implements the kitty protocol
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "kitty") || strings.Contains(term, "ghost") {
		return true
	}
	return os.Getenv("KONSOLE_VERSION") != ""
}

func isInlineImageCapable() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "VSCode", "Tabby", "Bobcat":
		debugf("TERM_PROGRAM indicates inline-capable: %s", os.Getenv("TERM_PROGRAM"))
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	for _, hint := range []string{"wez", "warp", "tabby", "vscode"} {
		if strings.Contains(term, hint) {
			debugf("TERM suggests inline-capable: %s", term)
			return true
		}
	}
	return os.Getenv("ITERM_SESSION_ID") != ""
}

// isSixelCapable is heuristic; SIXEL_PREVIEW=1 forces it.
func isSixelCapable() bool {
	if os.Getenv("SIXEL_PREVIEW") == "1" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "foot") || strings.Contains(term, "st") || strings.Contains(term, "linux") {
		return true
	}
	return os.Getenv("WT_SESSION") != ""
}

func hasChafa() bool {
	if os.Getenv("NO_CHAFA") == "1" {
		return false
	}
	if os.Getenv("CHAFAPREVIEW") == "1" {
		return true
	}
	_, err := exec.LookPath("chafa")
	return err == nil
}

// PreviewSupported reports whether any preview backend is likely to work.
func PreviewSupported() bool {
	supported := isKitty() || isInlineImageCapable() || isSixelCapable() || hasChafa()
	debugf("PreviewSupported -> %v", supported)
	return supported
}

// PreviewSize is a placement target in terminal cells.
type PreviewSize struct {
	Cols        int
	Rows        int
	PixelWidth  int
	PixelHeight int
}

// computePreviewSize maps pixel dimensions to terminal cells, keeping the
// aspect ratio and never scaling up.
func computePreviewSize(img image.Image) PreviewSize {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	const (
		charW   = 8
		charH   = 16
		minCols = 6
		minRows = 3
		maxCols = 80
		maxRows = 40
	)

	scale := math.Min(1.0, math.Min(float64(maxCols*charW)/float64(w), float64(maxRows*charH)/float64(h)))
	cols := int(math.Round(float64(w) * scale / charW))
	rows := int(math.Round(float64(h) * scale / charH))

	cols = clampInt(cols, minCols, maxCols)
	rows = clampInt(rows, minRows, maxRows)

	return PreviewSize{
		Cols:        cols,
		Rows:        rows,
		PixelWidth:  cols * charW,
		PixelHeight: rows * charH,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// postImageNewlines is how many lines to emit after an image so the prompt
// lands below it.
func postImageNewlines(rows int) int {
	switch {
	case rows <= 2:
		return 1
	case rows <= 6:
		return 2
	case rows <= 20:
		return 3
	}
	return 4
}

type previewBackend struct {
	name   string
	detect func() bool
	send   func(w io.Writer, png []byte, size PreviewSize) error
}

var previewBackends = []previewBackend{
	{"inline", isInlineImageCapable, sendInlineImage},
	{"kitty", isKitty, sendKittyImage},
	{"sixel", isSixelCapable, sendSixelImage},
	{"chafa", hasChafa, sendChafaImage},
}

// PreviewImage renders img on the terminal.
func PreviewImage(img image.Image) error {
	return previewTo(os.Stdout, img)
}

func previewTo(w io.Writer, img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return fmt.Errorf("png encode failed: %w", err)
	}
	return previewBytes(w, buf.Bytes(), computePreviewSize(img))
}

func previewBytes(w io.Writer, blob []byte, size PreviewSize) error {
	if len(blob) == 0 {
		return fmt.Errorf("empty image blob")
	}

	if v := strings.ToLower(os.Getenv("PREVIEW_BACKEND")); v != "" {
		if v == "iterm" || v == "wezterm" {
			v = "inline"
		}
		for _, b := range previewBackends {
			if b.name != v {
				continue
			}
			if err := b.send(w, blob, size); err == nil {
				return nil
			} else {
				debugf("override %s failed: %v", v, err)
			}
		}
	}

	var lastErr error
	for _, b := range previewBackends {
		if !b.detect() {
			continue
		}
		debugf("attempting %s preview", b.name)
		if err := b.send(w, blob, size); err != nil {
			debugf("%s preview failed: %v", b.name, err)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("preview failed: %w", lastErr)
	}
	return fmt.Errorf("no preview protocol matched")
}

func newlines(w io.Writer, n int) {
	for i := 0; i < n; i++ {
		fmt.Fprintln(w)
	}
}

// sendKittyImage transmits a PNG with the kitty graphics protocol. The
// payload is split into 4096 byte base64 chunks; only the first carries the
// control keys (a=T transmit and display, f=100 PNG, q=2 quiet, c/r cells).
func sendKittyImage(w io.Writer, data []byte, size PreviewSize) error {
	enc := base64.StdEncoding.EncodeToString(data)
	const chunkSize = 4096

	for pos := 0; pos < len(enc); pos += chunkSize {
		end := min(pos+chunkSize, len(enc))
		more := 0
		if end < len(enc) {
			more = 1
		}
		var seq string
		if pos == 0 {
			seq = fmt.Sprintf("\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%d;%s\x1b\\", size.Cols, size.Rows, more, enc[pos:end])
		} else {
			seq = fmt.Sprintf("\x1b_Gm=%d;%s\x1b\\", more, enc[pos:end])
		}
		if _, err := io.WriteString(w, seq); err != nil {
			return err
		}
	}
	newlines(w, postImageNewlines(size.Rows))
	return nil
}

// sendInlineImage emits the iTerm2 OSC 1337 inline file sequence.
func sendInlineImage(w io.Writer, data []byte, size PreviewSize) error {
	meta := fmt.Sprintf("size=%d;", len(data))
	if size.PixelWidth > 0 && size.PixelHeight > 0 {
		meta += fmt.Sprintf("width=%dpx;height=%dpx;", size.PixelWidth, size.PixelHeight)
	}
	seq := "\x1b]1337;File=name=canvas.png;inline=1;" + meta + ":" + base64.StdEncoding.EncodeToString(data) + "\a"
	if _, err := io.WriteString(w, seq); err != nil {
		return err
	}
	newlines(w, postImageNewlines(0))
	return nil
}

// sendSixelImage pipes the PNG through img2sixel.
func sendSixelImage(w io.Writer, data []byte, size PreviewSize) error {
	cmd := exec.Command("img2sixel", "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = w
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("img2sixel failed: %w", err)
	}
	newlines(w, postImageNewlines(0))
	return nil
}

// sendChafaImage renders with chafa block symbols. CHAFA_FILL and
// CHAFA_SYMBOLS override the defaults.
func sendChafaImage(w io.Writer, data []byte, size PreviewSize) error {
	if os.Getenv("NO_CHAFA") == "1" {
		return fmt.Errorf("chafa usage disabled via NO_CHAFA=1")
	}
	if _, err := exec.LookPath("chafa"); err != nil {
		return fmt.Errorf("chafa not found in PATH: %w", err)
	}
	fill, symbols := "block", "block"
	if v := os.Getenv("CHAFA_FILL"); v != "" {
		fill = v
	}
	if v := os.Getenv("CHAFA_SYMBOLS"); v != "" {
		symbols = v
	}
	cmd := exec.Command("chafa", "--fill="+fill, "--symbols="+symbols, "-s", fmt.Sprintf("%dx%d", size.Cols, size.Rows), "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = w
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("chafa failed: %w", err)
	}
	newlines(w, postImageNewlines(size.Rows))
	return nil
}

// swatch renders c as a two cell block using a 24-bit background escape.
func swatch(r, g, b uint8) string {
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", r, g, b)
}
