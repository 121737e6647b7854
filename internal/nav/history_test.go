package nav

import (
	"testing"

	"github.com/abelbrown/hyperlocal/internal/filter"
)

func TestHistoryLIFO(t *testing.T) {
	var h History
	h.Push(Snapshot{View: ViewHome})
	h.Push(Snapshot{View: ViewForum})

	s, ok := h.Pop()
	if !ok || s.View != ViewForum {
		t.Fatalf("Pop = %+v, %v", s, ok)
	}
	s, _ = h.Pop()
	if s.View != ViewHome {
		t.Errorf("second Pop = %s", s.View)
	}
	if _, ok := h.Pop(); ok {
		t.Error("Pop on empty history should report false")
	}
}

func TestHistoryPushCopiesFilter(t *testing.T) {
	var h History
	spec := filter.Default()
	spec.Tags = append(spec.Tags, "oak")
	h.Push(Snapshot{Filter: spec})
	spec.Tags[0] = "pine"

	s, _ := h.Pop()
	if s.Filter.Tags[0] != "oak" {
		t.Errorf("tag = %q, want oak", s.Filter.Tags[0])
	}
}

func TestHistoryClear(t *testing.T) {
	var h History
	h.Push(Snapshot{})
	h.Push(Snapshot{})
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Len = %d", h.Len())
	}
}
