package cli

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/Fepozopo/crayon/pkg/pagestore"
	"github.com/Fepozopo/crayon/pkg/paint"
)

// writePage writes a 10x10 white PNG with a black square outline from
// (2,2) to (7,7) and returns its path.
func writePage(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			onBorder := (x == 2 || x == 7) && y >= 2 && y <= 7 || (y == 2 || y == 7) && x >= 2 && x <= 7
			if onBorder {
				c = color.NRGBA{0, 0, 0, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "page.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}

func testApp(t *testing.T, store *pagestore.Store) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Box = image.Pt(10, 10)
	cfg.Preview = false
	var out bytes.Buffer
	return NewApp(cfg, store, strings.NewReader(""), &out), &out
}

func mustExec(t *testing.T, a *App, line string) {
	t.Helper()
	if _, err := a.Exec(context.Background(), line); err != nil {
		t.Fatalf("%q: %v", line, err)
	}
}

func TestExecRequiresOpenPage(t *testing.T) {
	a, _ := testApp(t, nil)
	if _, err := a.Exec(context.Background(), "fill 1 1"); !errors.Is(err, errNoPage) {
		t.Fatalf("expected errNoPage, got %v", err)
	}
	if _, err := a.Exec(context.Background(), "help"); err != nil {
		t.Fatalf("help should work without a page: %v", err)
	}
}

func TestExecFillUndoRedo(t *testing.T) {
	a, out := testApp(t, nil)
	mustExec(t, a, "open "+writePage(t))
	if !strings.Contains(out.String(), "Opened") {
		t.Fatalf("missing open message: %q", out.String())
	}
	s := a.Session()

	mustExec(t, a, "fill 4 4")
	if s.Surface().At(5, 5) != (paint.RGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Fatalf("fill did not paint the enclosed region")
	}
	mustExec(t, a, "undo")
	if s.Surface().At(5, 5) != paint.White.Opaque() {
		t.Fatalf("undo did not restore white")
	}
	mustExec(t, a, "redo")
	if s.Surface().At(5, 5) != (paint.RGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Fatalf("redo did not reapply the fill")
	}
	out.Reset()
	mustExec(t, a, "redo")
	if !strings.Contains(out.String(), "nothing to redo") {
		t.Fatalf("expected nothing to redo, got %q", out.String())
	}
	mustExec(t, a, "clear")
	if s.History().UndoLen() != 1 || s.Surface().At(5, 5) != paint.White.Opaque() {
		t.Fatalf("clear did not return to the base")
	}
}

func TestExecToolColorSize(t *testing.T) {
	a, _ := testApp(t, nil)
	mustExec(t, a, "open "+writePage(t))
	s := a.Session()

	mustExec(t, a, "tool pencil")
	if s.Tool() != paint.ToolPencil {
		t.Fatalf("tool = %v", s.Tool())
	}
	mustExec(t, a, "color 2")
	if s.Color() != paint.ParseColor(paint.Palette[1]) {
		t.Fatalf("palette index did not select %s, got %s", paint.Palette[1], s.Color().Hex())
	}
	mustExec(t, a, "color 0f0")
	if s.Color() != (paint.RGB{R: 0, G: 255, B: 0}) {
		t.Fatalf("bare hex not accepted, got %s", s.Color().Hex())
	}
	mustExec(t, a, "size 10")
	if s.Size() != 10 {
		t.Fatalf("size = %d", s.Size())
	}

	ctx := context.Background()
	if _, err := a.Exec(ctx, "color nope"); !errors.Is(err, paint.ErrColor) {
		t.Fatalf("expected ErrColor, got %v", err)
	}
	if _, err := a.Exec(ctx, "color 99"); err == nil {
		t.Fatalf("out of range palette index accepted")
	}
	if _, err := a.Exec(ctx, "size 7"); !errors.Is(err, paint.ErrBrushSize) {
		t.Fatalf("expected ErrBrushSize, got %v", err)
	}
	if _, err := a.Exec(ctx, "tool brush"); err == nil {
		t.Fatalf("unknown tool accepted")
	}
	if _, err := a.Exec(ctx, "bogus"); err == nil {
		t.Fatalf("unknown command accepted")
	}
}

func TestExecGesture(t *testing.T) {
	a, _ := testApp(t, nil)
	mustExec(t, a, "open "+writePage(t))
	s := a.Session()

	mustExec(t, a, "tool pencil")
	mustExec(t, a, "down 0.5 0.5")
	mustExec(t, a, "move 0.5 9.5")
	if !s.Drawing() || s.History().UndoLen() != 1 {
		t.Fatalf("gesture should be open and uncommitted")
	}
	mustExec(t, a, "up")
	if s.Drawing() || s.History().UndoLen() != 2 {
		t.Fatalf("up should commit once")
	}
	mustExec(t, a, "line 9 0 9 9")
	if s.History().UndoLen() != 3 {
		t.Fatalf("line should commit once, undo=%d", s.History().UndoLen())
	}
	mustExec(t, a, "down 5 5")
	mustExec(t, a, "leave")
	if s.Drawing() || s.History().UndoLen() != 4 {
		t.Fatalf("leave should commit the gesture")
	}
	if _, err := a.Exec(context.Background(), "down 5"); err == nil {
		t.Fatalf("missing coordinate accepted")
	}
}

func TestSaveAndResumeSidecar(t *testing.T) {
	path := writePage(t)
	a, out := testApp(t, nil)
	mustExec(t, a, "open "+path)
	mustExec(t, a, "fill 4 4")
	mustExec(t, a, "save")
	if !strings.Contains(out.String(), "Saved to") {
		t.Fatalf("missing save message: %q", out.String())
	}
	base := sidecarBase(path)
	for _, ext := range []string{".png", ".history"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Fatalf("expected %s: %v", base+ext, err)
		}
	}
	exported, err := LoadImage(base + ".png")
	if err != nil {
		t.Fatalf("load exported png: %v", err)
	}
	if !paint.SnapshotFromImage(exported).Equal(a.Session().Surface().Capture()) {
		t.Fatalf("exported png differs from canvas")
	}

	b, out2 := testApp(t, nil)
	mustExec(t, b, "open "+path)
	if !strings.Contains(out2.String(), "Resumed") {
		t.Fatalf("expected resume, got %q", out2.String())
	}
	if b.Session().Surface().At(5, 5) != (paint.RGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Fatalf("resumed canvas lost the fill")
	}
	mustExec(t, b, "undo")
	if b.Session().Surface().At(5, 5) != paint.White.Opaque() {
		t.Fatalf("undo after resume should reach the original page")
	}
}

func TestSaveAndResumePageStore(t *testing.T) {
	store, err := pagestore.Open(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	path := writePage(t)
	a, out := testApp(t, store)
	mustExec(t, a, "open "+path)
	mustExec(t, a, "fill 0 0")
	mustExec(t, a, "save")
	if !strings.Contains(out.String(), "Saved page") {
		t.Fatalf("missing store save message: %q", out.String())
	}
	firstID := a.pageID
	mustExec(t, a, "fill 4 4")
	mustExec(t, a, "save")
	if a.pageID != firstID {
		t.Fatalf("second save created a new page")
	}
	if _, err := os.Stat(sidecarBase(path) + ".history"); !os.IsNotExist(err) {
		t.Fatalf("store save should not write sidecar files")
	}

	b, bout := testApp(t, store)
	mustExec(t, b, "open "+path)
	if b.Session().History().UndoLen() != 3 {
		t.Fatalf("resumed undo length = %d; want 3", b.Session().History().UndoLen())
	}
	if b.pageID != firstID {
		t.Fatalf("resumed page id = %s; want %s", b.pageID, firstID)
	}
	mustExec(t, b, "pages")
	if !strings.Contains(bout.String(), firstID) {
		t.Fatalf("pages listing misses %s: %q", firstID, bout.String())
	}
}

func TestDownload(t *testing.T) {
	a, _ := testApp(t, nil)
	mustExec(t, a, "open "+writePage(t))
	mustExec(t, a, "fill 4 4")
	dst := filepath.Join(t.TempDir(), "out.png")
	mustExec(t, a, "download "+dst)
	img, err := LoadImage(dst)
	if err != nil {
		t.Fatalf("load download: %v", err)
	}
	if !paint.SnapshotFromImage(img).Equal(a.Session().Surface().Capture()) {
		t.Fatalf("download differs from canvas")
	}
	if a.Session().History().UndoLen() != 2 {
		t.Fatalf("download must not change history")
	}

	// the export is always a PNG stream, whatever the extension
	jpg := filepath.Join(t.TempDir(), "out.jpg")
	mustExec(t, a, "download "+jpg)
	raw, err := os.ReadFile(jpg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("download %s is not a PNG stream", jpg)
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Preview = false
	var out bytes.Buffer
	a := NewApp(cfg, nil, strings.NewReader("help\nquit\nhelp\n"), &out)
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Count(out.String(), "Commands available") != 1 {
		t.Fatalf("commands after quit were executed: %q", out.String())
	}
}

func TestRunStopsOnEOF(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Preview = false
	a := NewApp(cfg, nil, strings.NewReader("status"), &bytes.Buffer{})
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
