package nav

import "github.com/abelbrown/hyperlocal/internal/filter"

// Snapshot is the state captured before a navigation, enough to undo it.
type Snapshot struct {
	View   View
	Mode   Mode
	Refs   Refs
	Scroll int
	Filter filter.Spec
}

// History is a stack of snapshots. Only the Engine touches it.
type History struct {
	entries []Snapshot
}

// Push adds s on top. The filter spec is copied so later changes to the
// live spec cannot reach into the stack.
func (h *History) Push(s Snapshot) {
	s.Filter = s.Filter.Clone()
	h.entries = append(h.entries, s)
}

// Pop removes and returns the top snapshot.
func (h *History) Pop() (Snapshot, bool) {
	if len(h.entries) == 0 {
		return Snapshot{}, false
	}
	last := len(h.entries) - 1
	s := h.entries[last]
	h.entries[last] = Snapshot{}
	h.entries = h.entries[:last]
	return s, true
}

// Len is the number of snapshots.
func (h *History) Len() int {
	return len(h.entries)
}

// Clear drops every snapshot.
func (h *History) Clear() {
	clear(h.entries)
	h.entries = h.entries[:0]
}
