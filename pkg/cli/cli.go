package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Fepozopo/crayon/pkg/pagestore"
	"github.com/Fepozopo/crayon/pkg/paint"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "Commands available:")
	fmt.Fprintln(w, "  open [path]          - open a coloring page (no path: pick with fzf)")
	fmt.Fprintln(w, "  tool [name]          - paint-bucket, pencil, spray, eraser")
	fmt.Fprintln(w, "  color <#hex|n>       - pick a color or palette entry")
	fmt.Fprintln(w, "  size <n>             - brush size")
	fmt.Fprintln(w, "  fill x y             - click with the current tool")
	fmt.Fprintln(w, "  down x y / move x y / up / leave - pointer gesture")
	fmt.Fprintln(w, "  line x0 y0 x1 y1     - draw a single stroke")
	fmt.Fprintln(w, "  undo / redo / clear")
	fmt.Fprintln(w, "  save [path]          - save the page and its history")
	fmt.Fprintln(w, "  download <path>      - export the canvas as PNG")
	fmt.Fprintln(w, "  pages                - list saved pages")
	fmt.Fprintln(w, "  status / preview / palette")
	fmt.Fprintln(w, "  update               - check for updates")
	fmt.Fprintln(w, "  help / quit")
}

var errNoPage = errors.New("no page open; use 'open <path>' first")

// App is the interactive coloring REPL.
type App struct {
	cfg   Config
	out   io.Writer
	in    *bufio.Reader
	store *pagestore.Store

	session *paint.Session
	source  string
	pageID  string
}

// NewApp builds an App writing to out. A non-nil store receives saves.
func NewApp(cfg Config, store *pagestore.Store, in io.Reader, out io.Writer) *App {
	return &App{cfg: cfg, store: store, in: bufio.NewReader(in), out: out}
}

// Session returns the open session, or nil.
func (a *App) Session() *paint.Session { return a.session }

func (a *App) options() paint.Options {
	return paint.Options{
		Box:          a.cfg.Box,
		Matcher:      a.cfg.Matcher,
		Sizes:        a.cfg.Sizes,
		HistoryLimit: a.cfg.HistoryLimit,
		Logf:         log.Printf,
	}
}

// Open starts a session on the image at path, resuming saved history from
// the page store or the sidecar file when it matches the canvas.
func (a *App) Open(ctx context.Context, path string) error {
	img, err := LoadImage(path)
	if err != nil {
		return err
	}
	source := path
	if abs, err := filepath.Abs(path); err == nil {
		source = abs
	}

	prior, pageID := a.loadPrior(ctx, source)
	s, err := paint.Open(img, prior, a.options())
	if err != nil {
		return err
	}
	if a.session != nil {
		a.session.Close()
	}
	a.session = s
	a.source = source
	a.pageID = pageID
	if s.History().UndoLen() > 1 {
		fmt.Fprintf(a.out, "Resumed %s (%d saved steps)\n", path, s.History().UndoLen()-1)
	} else {
		fmt.Fprintf(a.out, "Opened %s\n", path)
	}
	return nil
}

func (a *App) loadPrior(ctx context.Context, source string) ([]paint.Snapshot, string) {
	var blob []byte
	var pageID string
	if a.store != nil {
		page, err := a.store.LatestForSource(ctx, source)
		switch {
		case err == nil:
			blob, pageID = page.History, page.ID
		case !errors.Is(err, pagestore.ErrNotFound):
			log.Printf("page store lookup failed: %v", err)
		}
	} else {
		b, err := os.ReadFile(sidecarBase(source) + ".history")
		if err == nil {
			blob = b
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Printf("read saved history: %v", err)
		}
	}
	if len(blob) == 0 {
		return nil, pageID
	}
	snaps, err := paint.UnmarshalHistory(blob)
	if err != nil {
		log.Printf("discarding saved history: %v", err)
		return nil, pageID
	}
	return snaps, pageID
}

// Exec runs one command line. It reports whether the REPL should stop.
func (a *App) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "q", "quit", "exit":
		if a.session != nil {
			a.session.Close()
			a.session = nil
		}
		fmt.Fprintln(a.out, "Exiting...")
		return true, nil
	case "h", "help", "?":
		usage(a.out)
		return false, nil
	case "u", "update":
		return false, CheckForUpdates()
	case "o", "open":
		return false, a.cmdOpen(ctx, args)
	case "palette":
		a.cmdPalette()
		return false, nil
	case "pages":
		return false, a.cmdPages(ctx)
	}

	if a.session == nil {
		return false, errNoPage
	}
	s := a.session

	switch cmd {
	case "tool", "t":
		return false, a.cmdTool(args)
	case "color", "c":
		return false, a.cmdColor(args)
	case "size":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: size <%s>", joinInts(s.Sizes()))
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("size: %w", err)
		}
		return false, s.SetSize(n)
	case "fill", "click":
		x, y, err := parsePoint(args)
		if err != nil {
			return false, err
		}
		res := s.Begin(x, y)
		res2 := s.End()
		a.report(paint.Result{Changed: res.Changed || res2.Changed, Committed: res.Committed || res2.Committed})
	case "down":
		x, y, err := parsePoint(args)
		if err != nil {
			return false, err
		}
		a.report(s.Begin(x, y))
	case "move":
		x, y, err := parsePoint(args)
		if err != nil {
			return false, err
		}
		s.Move(x, y)
	case "up":
		a.report(s.End())
	case "leave":
		a.report(s.Leave())
	case "line":
		if len(args) != 4 {
			return false, fmt.Errorf("usage: line x0 y0 x1 y1")
		}
		x0, y0, err := parsePoint(args[:2])
		if err != nil {
			return false, err
		}
		x1, y1, err := parsePoint(args[2:])
		if err != nil {
			return false, err
		}
		s.Begin(x0, y0)
		s.Move(x1, y1)
		a.report(s.End())
	case "undo":
		if !s.Undo() {
			fmt.Fprintln(a.out, "nothing to undo")
			return false, nil
		}
		a.refresh()
	case "redo":
		if !s.Redo() {
			fmt.Fprintln(a.out, "nothing to redo")
			return false, nil
		}
		a.refresh()
	case "clear":
		s.Clear()
		a.refresh()
	case "save", "s":
		return false, a.cmdSave(ctx, args)
	case "download":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: download <path>")
		}
		b, err := s.Download()
		if err != nil {
			return false, fmt.Errorf("download: %w", err)
		}
		if err := writeFile(args[0], b); err != nil {
			return false, fmt.Errorf("download: %w", err)
		}
		fmt.Fprintf(a.out, "Saved to %s\n", args[0])
	case "status":
		a.cmdStatus()
	case "preview", "p":
		return false, previewTo(a.out, s.Surface().Image())
	default:
		return false, fmt.Errorf("unknown command: %s (try 'help')", cmd)
	}
	return false, nil
}

func parsePoint(args []string) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected x y, got %d values", len(args))
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("y: %w", err)
	}
	return x, y, nil
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "|")
}

func (a *App) report(res paint.Result) {
	if res.Committed {
		a.refresh()
	}
}

// refresh previews the canvas when previews are enabled.
func (a *App) refresh() {
	if !a.cfg.Preview || a.session == nil {
		return
	}
	if err := previewTo(a.out, a.session.Surface().Image()); err != nil {
		debugf("preview: %v", err)
	}
}

func (a *App) cmdOpen(ctx context.Context, args []string) error {
	path := strings.Join(args, " ")
	if path == "" {
		sel, err := SelectFileWithFzf(".")
		if err != nil || sel == "" {
			path, _ = promptFrom(a.in, a.out, "Enter path to image to open (leave empty to cancel): ")
			if path == "" {
				fmt.Fprintln(a.out, "open cancelled")
				return nil
			}
		} else {
			path = sel
		}
	}
	if err := a.Open(ctx, path); err != nil {
		return fmt.Errorf("failed to read image %s: %w", path, err)
	}
	a.refresh()
	return nil
}

func (a *App) cmdTool(args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		items := make([]string, len(paint.Tools))
		for i, t := range paint.Tools {
			items[i] = t.String()
		}
		sel, err := SelectWithFzf("Tool> ", items)
		if err != nil {
			fmt.Fprintf(a.out, "tools: %s\n", strings.Join(items, ", "))
			return nil
		}
		name = sel
	}
	t, err := paint.ParseTool(name)
	if err != nil {
		return err
	}
	a.report(a.session.End())
	a.session.SetTool(t)
	fmt.Fprintf(a.out, "Tool: %s\n", t)
	return nil
}

func (a *App) cmdColor(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: color <#hex|1-%d>", len(a.cfg.Palette))
	}
	arg := args[0]
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(a.cfg.Palette) {
			return fmt.Errorf("palette has %d colors", len(a.cfg.Palette))
		}
		arg = a.cfg.Palette[n-1]
	} else if !strings.HasPrefix(arg, "#") {
		arg = "#" + arg
	}
	c, err := paint.LookupColor(arg)
	if err != nil {
		return err
	}
	a.session.SetRGB(c)
	fmt.Fprintf(a.out, "Color: %s %s\n", swatch(c.R, c.G, c.B), c.Hex())
	return nil
}

func (a *App) cmdPalette() {
	for i, hex := range a.cfg.Palette {
		c := paint.ParseColor(hex)
		fmt.Fprintf(a.out, "  %2d) %s %s\n", i+1, swatch(c.R, c.G, c.B), c.Hex())
	}
}

func (a *App) cmdStatus() {
	s := a.session
	c := s.Color()
	fmt.Fprintf(a.out, "Page: %s\n", a.source)
	if info, err := GetImageInfoImage(s.Surface().Image()); err == nil {
		fmt.Fprintln(a.out, info)
	}
	fmt.Fprintf(a.out, "Tool: %s  Color: %s %s  Size: %d\n", s.Tool(), swatch(c.R, c.G, c.B), c.Hex(), s.Size())
	fmt.Fprintf(a.out, "History: %d undo, %d redo\n", s.History().UndoLen()-1, s.History().RedoLen())
}

// cmdSave stores the page in the page store when one is configured and
// otherwise (or when a path is given) writes <path>.png and <path>.history.
func (a *App) cmdSave(ctx context.Context, args []string) error {
	saved, err := a.session.Save()
	if err != nil {
		return err
	}
	hist, err := paint.MarshalHistory(saved.History)
	if err != nil {
		return err
	}

	if a.store != nil {
		page, err := a.store.Save(ctx, pagestore.Page{
			ID:      a.pageID,
			Source:  a.source,
			Width:   a.session.Surface().Width(),
			Height:  a.session.Surface().Height(),
			PNG:     saved.PNG,
			History: hist,
		})
		if err != nil {
			return err
		}
		a.pageID = page.ID
		fmt.Fprintf(a.out, "Saved page %s\n", page.ID)
		if len(args) == 0 {
			return nil
		}
	}

	base := sidecarBase(a.source)
	if len(args) > 0 {
		base = strings.TrimSuffix(strings.Join(args, " "), ".png")
	}
	if err := writeFile(base+".png", saved.PNG); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := writeFile(base+".history", hist); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	fmt.Fprintf(a.out, "Saved to %s.png\n", base)
	return nil
}

func (a *App) cmdPages(ctx context.Context) error {
	if a.store == nil {
		fmt.Fprintln(a.out, "no page store configured (set CRAYON_DB)")
		return nil
	}
	pages, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintln(a.out, "no saved pages")
	}
	for _, p := range pages {
		fmt.Fprintf(a.out, "  %s  %4dx%-4d  %s  %s\n", p.ID, p.Width, p.Height, p.Updated.Local().Format("2006-01-02 15:04"), p.Source)
	}
	return nil
}

// Run reads commands until quit or end of input.
func (a *App) Run(ctx context.Context) error {
	for {
		fmt.Fprint(a.out, "> ")
		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		quit, cerr := a.Exec(ctx, line)
		if cerr != nil {
			fmt.Fprintf(os.Stderr, "%v\n", cerr)
		}
		if quit {
			return nil
		}
	}
}

// RunCLI is the terminal entry point. An optional first argument names the
// page to open.
func RunCLI() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Preview && !PreviewSupported() {
		cfg.Preview = false
	}

	var store *pagestore.Store
	if cfg.DBPath != "" {
		store, err = pagestore.Open(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "page store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	ctx := context.Background()
	app := NewApp(cfg, store, os.Stdin, os.Stdout)
	app.in = stdin

	if len(os.Args) >= 2 {
		if err := app.Open(ctx, os.Args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "failed to read image %s: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		app.refresh()
	}

	fmt.Println("Crayon - terminal coloring book")
	usage(os.Stdout)
	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
}
