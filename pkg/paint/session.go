package paint

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"
	"time"
)

var (
	// ErrBrushSize is returned for a width that is not one of the presets.
	ErrBrushSize = errors.New("brush size is not a preset")
	// ErrClosed is returned by a session after Close.
	ErrClosed = errors.New("session closed")
)

// DefaultBox is the bounding box used when Options.Box is empty: 70% of a
// 1280x896 viewport.
var DefaultBox = image.Pt(896, 627)

// Options configures a Session. The zero value is usable.
type Options struct {
	// Box bounds the canvas size; the source aspect ratio is kept.
	Box image.Point
	// Matcher holds the fill heuristics.
	Matcher Matcher
	// Background is the eraser color. Zero means white.
	Background *RGB
	// Sizes overrides BrushSizes.
	Sizes []int
	// HistoryLimit bounds the undo list; zero means unbounded.
	HistoryLimit int
	// Rand drives spray dot placement.
	Rand *rand.Rand
	// Logf receives diagnostic messages.
	Logf func(format string, args ...interface{})
}

// Result describes the effect of one pointer event.
type Result struct {
	// Changed is true when surface pixels were written.
	Changed bool
	// Committed is true when a snapshot was pushed to history.
	Committed bool
}

// SaveResult is what an explicit save hands back to the caller.
type SaveResult struct {
	PNG     []byte
	History []Snapshot
}

// Session binds one surface and its history to the tool state and the
// pointer gesture lifecycle. It is not safe for concurrent use.
type Session struct {
	surface *Surface
	history *History
	opts    Options
	bg      RGB
	sizes   []int

	tool  Tool
	color RGB
	size  int

	drawing bool
	stroke  *Stroke

	closed bool
}

// Open starts a session on src. When prior is non-empty and its snapshots
// match the canvas size computed for src, editing resumes from its last
// entry; otherwise prior is discarded and the session starts from src.
func Open(src image.Image, prior []Snapshot, opts Options) (*Session, error) {
	if opts.Box.X <= 0 || opts.Box.Y <= 0 {
		opts.Box = DefaultBox
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...interface{}) {}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Matcher == (Matcher{}) {
		opts.Matcher = DefaultMatcher()
	}
	surf, err := NewSurfaceFromImage(src, opts.Box)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	var hist *History
	if len(prior) > 0 {
		h, err := ResumeHistory(prior)
		switch {
		case err != nil:
			opts.Logf("discarding saved history: %v", err)
		case h.Base().Size() != surf.Size():
			opts.Logf("discarding saved history: canvas is %v, history is %v", surf.Size(), h.Base().Size())
		default:
			if err := surf.Restore(h.Current()); err != nil {
				return nil, fmt.Errorf("open session: %w", err)
			}
			hist = h
		}
	}
	if hist == nil {
		hist = NewHistory(surf.Capture())
	}
	hist.Limit = opts.HistoryLimit

	s := &Session{
		surface: surf,
		history: hist,
		opts:    opts,
		bg:      White,
		sizes:   BrushSizes,
		tool:    DefaultTool,
		color:   ParseColor(DefaultColor),
		size:    DefaultSize,
	}
	if opts.Background != nil {
		s.bg = *opts.Background
	}
	if len(opts.Sizes) > 0 {
		s.sizes = opts.Sizes
		s.size = opts.Sizes[0]
	}
	return s, nil
}

func (s *Session) Tool() Tool         { return s.tool }
func (s *Session) Color() RGB         { return s.color }
func (s *Session) Size() int          { return s.size }
func (s *Session) Sizes() []int       { return s.sizes }
func (s *Session) Drawing() bool      { return s.drawing }
func (s *Session) Surface() *Surface  { return s.surface }
func (s *Session) History() *History  { return s.history }
func (s *Session) Closed() bool       { return s.closed }
func (s *Session) Background() RGB    { return s.bg }
func (s *Session) Matcher() Matcher   { return s.opts.Matcher }
func (s *Session) Box() image.Point   { return s.opts.Box }

// SetTool selects the active tool. A gesture in progress is finished first.
func (s *Session) SetTool(t Tool) {
	if s.drawing {
		s.End()
	}
	s.tool = t
}

// SetColor selects the active color from a hex string. Malformed input
// selects black.
func (s *Session) SetColor(hex string) {
	s.color = ParseColor(hex)
}

// SetRGB selects the active color directly.
func (s *Session) SetRGB(c RGB) { s.color = c }

// SetSize selects a brush size preset.
func (s *Session) SetSize(n int) error {
	for _, v := range s.sizes {
		if v == n {
			s.size = n
			return nil
		}
	}
	return fmt.Errorf("%w: %d (have %v)", ErrBrushSize, n, s.sizes)
}

func (s *Session) clamp(x, y float64) Point {
	w, h := float64(s.surface.Width()-1), float64(s.surface.Height()-1)
	return Pt(math.Max(0, math.Min(w, x)), math.Max(0, math.Min(h, y)))
}

// Begin handles pointer down. The paint bucket fills at once and commits;
// other tools start a gesture.
func (s *Session) Begin(x, y float64) Result {
	if s.closed {
		return Result{}
	}
	var res Result
	if s.drawing {
		res = s.End()
	}
	p := s.clamp(x, y)
	switch s.tool {
	case ToolPaintBucket:
		px, py := s.surface.Clamp(int(math.Floor(p.X)), int(math.Floor(p.Y)))
		if FloodFill(s.surface, px, py, s.color, s.opts.Matcher) > 0 {
			s.history.Push(s.surface.Capture())
			return Result{Changed: true, Committed: true}
		}
		return res
	case ToolPencil, ToolEraser:
		col := s.color
		if s.tool == ToolEraser {
			col = s.bg
		}
		s.stroke = BeginStroke(s.surface, p, col, s.size)
	}
	s.drawing = true
	return res
}

// Move handles pointer motion. It does nothing unless a gesture is active.
func (s *Session) Move(x, y float64) Result {
	if s.closed || !s.drawing {
		return Result{}
	}
	p := s.clamp(x, y)
	switch s.tool {
	case ToolPencil, ToolEraser:
		s.stroke.LineTo(p)
	case ToolSpray:
		Spray(s.surface, p, s.color, s.size, s.opts.Rand)
	default:
		return Result{}
	}
	return Result{Changed: true}
}

// End handles pointer up. An active gesture is finished and exactly one
// snapshot is committed.
func (s *Session) End() Result {
	if s.closed || !s.drawing {
		return Result{}
	}
	if s.stroke != nil {
		s.stroke.Close()
		s.stroke = nil
	}
	s.drawing = false
	s.history.Push(s.surface.Capture())
	return Result{Committed: true}
}

// Leave handles the pointer leaving the surface; it behaves like End.
func (s *Session) Leave() Result { return s.End() }

func (s *Session) show(snap Snapshot) {
	if err := s.surface.Restore(snap); err != nil {
		// history and surface always share dimensions
		panic(err)
	}
}

// Undo steps back one committed state. It reports whether anything changed.
func (s *Session) Undo() bool {
	if s.closed {
		return false
	}
	s.End()
	snap, ok := s.history.Undo()
	if ok {
		s.show(snap)
	}
	return ok
}

// Redo reapplies the most recently undone state.
func (s *Session) Redo() bool {
	if s.closed {
		return false
	}
	s.End()
	snap, ok := s.history.Redo()
	if ok {
		s.show(snap)
	}
	return ok
}

// Clear returns to the original image and drops all history but the base.
func (s *Session) Clear() {
	if s.closed {
		return
	}
	s.End()
	s.show(s.history.Clear())
}

func (s *Session) CanUndo() bool { return !s.closed && s.history.CanUndo() }
func (s *Session) CanRedo() bool { return !s.closed && s.history.CanRedo() }

// Save returns the encoded surface and the undo list for later resumption.
func (s *Session) Save() (SaveResult, error) {
	if s.closed {
		return SaveResult{}, ErrClosed
	}
	s.End()
	png, err := s.surface.PNG()
	if err != nil {
		return SaveResult{}, fmt.Errorf("save: %w", err)
	}
	return SaveResult{PNG: png, History: s.history.Snapshots()}, nil
}

// Download returns the surface as standalone PNG bytes.
func (s *Session) Download() ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	png, err := s.surface.PNG()
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return png, nil
}

// Close releases the surface and history. An active gesture is dropped
// without committing.
func (s *Session) Close() {
	s.closed = true
	s.drawing = false
	s.stroke = nil
	s.surface = nil
	s.history = nil
}
