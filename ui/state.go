package ui

import (
	"fmt"
	"sync/atomic"
)

// globalGrid is the only grid id this client manages. The editor is
// attached without multigrid extensions, so any other id is a defect in
// the attaching collaborator, not protocol input.
const globalGrid = 1

// State owns the live grid, highlight table and cursor table for one
// editor session. Exactly one goroutine, the protocol reader, may call
// Redraw; one consumer reads published frames through Frame. The two
// never contend: publication is a single atomic pointer exchange.
type State struct {
	hl      highlightTable
	cursors []CursorAttrs
	mode    int

	cursorRow int
	cursorCol int

	writing    *Grid
	complete   atomic.Pointer[Grid]
	frameReady chan struct{}
}

// NewState returns a State with an empty 0x0 grid published.
func NewState() *State {
	s := &State{
		hl:         newHighlightTable(),
		writing:    &Grid{},
		frameReady: make(chan struct{}, 1),
	}
	s.complete.Store(&Grid{})
	return s
}

// Frame returns the most recently published grid. The returned grid is
// consistent and will not change until the publication protocol
// recycles it, two flushes from now; consumers must re-call Frame after
// each ready signal rather than hold one pointer across frames.
func (s *State) Frame() *Grid {
	return s.complete.Load()
}

// FrameReady signals once per published frame. The channel has a one
// slot buffer and the producer never blocks on it; a slow consumer sees
// one coalesced signal and the newest frame.
func (s *State) FrameReady() <-chan struct{} {
	return s.frameReady
}

// Highlight returns a copy of the table entry for id.
func (s *State) Highlight(id int) (HLAttrs, bool) {
	entry := s.hl.entry(id)
	if entry == nil {
		return HLAttrs{}, false
	}
	return *entry, true
}

// DefaultHighlight returns a copy of the default entry.
func (s *State) DefaultHighlight() HLAttrs {
	return *s.hl.defaultEntry()
}

// CursorModes returns the current cursor table.
func (s *State) CursorModes() []CursorAttrs {
	return s.cursors
}

// CurrentMode returns the index of the active mode.
func (s *State) CurrentMode() int {
	return s.mode
}

// currentCursor resolves the active mode's cursor attributes; zero
// value (a block cursor) before the first mode_info_set.
func (s *State) currentCursor() CursorAttrs {
	if s.mode < len(s.cursors) {
		return s.cursors[s.mode]
	}
	return CursorAttrs{}
}

// grid resolves a protocol grid id to its instance.
func (s *State) grid(id int) *Grid {
	if id != globalGrid {
		panic(fmt.Sprintf("ui: unmanaged grid id %d", id))
	}
	return s.writing
}

// flush publishes the writing grid: stamp the frame counter and cursor
// snapshot, exchange it with the consumer's previous snapshot, then
// copy the published contents back so the next frame's incremental
// updates start from the last known-good state. The consumer is poked
// through frameReady without blocking.
func (s *State) flush() {
	completed := s.writing
	completed.Frame++
	completed.CursorRow = s.cursorRow
	completed.CursorCol = s.cursorCol
	completed.Cursor = s.currentCursor()
	completed.Default = *s.hl.defaultEntry()

	s.writing = s.complete.Swap(completed)
	s.writing.copyFrom(completed)

	select {
	case s.frameReady <- struct{}{}:
	default:
	}
}
