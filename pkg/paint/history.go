package paint

import (
	"errors"
	"fmt"
)

// ErrEmptyHistory is returned when resuming from an empty undo list.
var ErrEmptyHistory = errors.New("history has no base snapshot")

// History is the undo/redo stack of full-surface snapshots.
//
// The undo list is oldest first and its last element is the current state.
// Its first element is the base image and is never removed. The redo list is
// next-to-reapply first.
type History struct {
	undo []Snapshot
	redo []Snapshot

	// Limit bounds the undo list length, base included. Values below 2 mean
	// unbounded since the base alone leaves nothing to undo. When exceeded
	// the oldest entry after the base is dropped.
	Limit int
}

// NewHistory starts a history whose base is base.
func NewHistory(base Snapshot) *History {
	return &History{undo: []Snapshot{base}}
}

// ResumeHistory continues from a previously saved undo list. All snapshots
// must share the same dimensions.
func ResumeHistory(undo []Snapshot) (*History, error) {
	if len(undo) == 0 {
		return nil, ErrEmptyHistory
	}
	size := undo[0].Size()
	for i, s := range undo[1:] {
		if s.Size() != size {
			return nil, fmt.Errorf("%w: entry %d is %v, base is %v", ErrSnapshotSize, i+1, s.Size(), size)
		}
	}
	h := &History{undo: make([]Snapshot, len(undo))}
	copy(h.undo, undo)
	return h, nil
}

// Push records a committed mutation and invalidates redo.
func (h *History) Push(s Snapshot) {
	h.undo = append(h.undo, s)
	h.redo = nil
	if h.Limit > 1 && len(h.undo) > h.Limit {
		over := len(h.undo) - h.Limit
		h.undo = append(h.undo[:1], h.undo[1+over:]...)
	}
}

// Undo moves the current state to the front of the redo list and returns the
// state to display. It reports false when only the base remains.
func (h *History) Undo() (Snapshot, bool) {
	if len(h.undo) <= 1 {
		return Snapshot{}, false
	}
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append([]Snapshot{last}, h.redo...)
	return h.undo[len(h.undo)-1], true
}

// Redo moves the first redo entry back onto the undo list and returns it.
// It reports false when there is nothing to redo.
func (h *History) Redo() (Snapshot, bool) {
	if len(h.redo) == 0 {
		return Snapshot{}, false
	}
	next := h.redo[0]
	h.redo = h.redo[1:]
	h.undo = append(h.undo, next)
	return next, true
}

// Clear drops everything but the base and returns it.
func (h *History) Clear() Snapshot {
	h.undo = h.undo[:1:1]
	h.redo = nil
	return h.undo[0]
}

// Current is the last element of the undo list.
func (h *History) Current() Snapshot { return h.undo[len(h.undo)-1] }

// Base is the first-ever snapshot.
func (h *History) Base() Snapshot { return h.undo[0] }

func (h *History) CanUndo() bool { return len(h.undo) > 1 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
func (h *History) UndoLen() int  { return len(h.undo) }
func (h *History) RedoLen() int  { return len(h.redo) }

// Snapshots returns a copy of the undo list, base first.
func (h *History) Snapshots() []Snapshot {
	out := make([]Snapshot, len(h.undo))
	copy(out, h.undo)
	return out
}
