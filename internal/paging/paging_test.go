package paging

import (
	"fmt"
	"slices"
	"testing"
	"time"
)

type item struct {
	id   string
	body string
}

func itemID(i item) string { return i.id }

func makeItems(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i] = item{id: fmt.Sprintf("p%02d", i)}
	}
	return out
}

func load(t *testing.T, p *Paginator[item]) bool {
	t.Helper()
	cmd := p.LoadMore()
	if cmd == nil {
		return false
	}
	msg, ok := cmd().(LoadedMsg)
	if !ok {
		t.Fatalf("LoadMore produced %T", cmd())
	}
	return p.Loaded(msg)
}

func isPrefix(window, source []item) bool {
	return len(window) <= len(source) && slices.Equal(window, source[:len(window)])
}

func TestFirstPage(t *testing.T) {
	p := New(DefaultPageSize, 0, itemID)
	src := makeItems(20)
	p.SetSource(src)

	w := p.Window()
	if len(w.Items) != 8 || w.Page != 1 || !w.HasMore {
		t.Errorf("window = %d items, page %d, hasMore %v", len(w.Items), w.Page, w.HasMore)
	}
	if !isPrefix(w.Items, src) {
		t.Error("window is not a prefix of the source")
	}
}

func TestLoadMoreGrowsUntilExhausted(t *testing.T) {
	p := New(DefaultPageSize, 0, itemID)
	src := makeItems(20)
	p.SetSource(src)

	prev := len(p.Window().Items)
	for i := 0; i < 5; i++ {
		load(t, p)
		w := p.Window()
		if len(w.Items) < prev {
			t.Fatalf("window shrank from %d to %d", prev, len(w.Items))
		}
		if !isPrefix(w.Items, src) {
			t.Fatal("window is not a prefix of the source")
		}
		prev = len(w.Items)
	}

	w := p.Window()
	if len(w.Items) != 20 || w.HasMore || w.Page != 3 {
		t.Errorf("final window = %d items, page %d, hasMore %v", len(w.Items), w.Page, w.HasMore)
	}
	if p.LoadMore() != nil {
		t.Error("LoadMore with nothing left should return nil")
	}
}

func TestRapidLoadMoreAdvancesOnce(t *testing.T) {
	p := New(DefaultPageSize, 5*time.Millisecond, itemID)
	p.SetSource(makeItems(40))

	first := p.LoadMore()
	second := p.LoadMore()
	if first == nil {
		t.Fatal("first LoadMore should start a load")
	}
	if second != nil {
		t.Fatal("second LoadMore while loading should be a no-op")
	}
	if !p.Loading() {
		t.Error("expected Loading")
	}
	if len(p.Window().Items) != 8 {
		t.Error("window must not grow before the delay elapses")
	}

	msg := first().(LoadedMsg)
	if !p.Loaded(msg) {
		t.Fatal("Loaded should grow the window")
	}
	if p.Loaded(msg) {
		t.Error("delivering the same message twice must not advance again")
	}
	if p.Window().Page != 2 {
		t.Errorf("page = %d, want 2", p.Window().Page)
	}
}

func TestStructuralChangeResetsPage(t *testing.T) {
	p := New(DefaultPageSize, 0, itemID)
	src := makeItems(30)
	p.SetSource(src)
	load(t, p)

	reordered := slices.Clone(src)
	reordered[0], reordered[1] = reordered[1], reordered[0]
	if !p.SetSource(reordered) {
		t.Error("reordering should count as structural")
	}
	if p.Window().Page != 1 {
		t.Errorf("page = %d, want 1", p.Window().Page)
	}

	load(t, p)
	if !p.SetSource(reordered[:25]) {
		t.Error("removal should count as structural")
	}
	if p.Window().Page != 1 {
		t.Errorf("page = %d, want 1", p.Window().Page)
	}
}

func TestContentChangeKeepsPage(t *testing.T) {
	p := New(DefaultPageSize, 0, itemID)
	src := makeItems(30)
	p.SetSource(src)
	load(t, p)

	edited := slices.Clone(src)
	edited[3].body = "new price"
	if p.SetSource(edited) {
		t.Error("content-only change should not reset")
	}

	w := p.Window()
	if w.Page != 2 || len(w.Items) != 16 {
		t.Errorf("window = page %d, %d items", w.Page, len(w.Items))
	}
	if w.Items[3].body != "new price" {
		t.Error("window should re-slice the new source")
	}
}

func TestStaleLoadAfterResetIgnored(t *testing.T) {
	p := New(DefaultPageSize, 0, itemID)
	p.SetSource(makeItems(30))

	cmd := p.LoadMore()
	p.SetSource(makeItems(29))
	if p.Loaded(cmd().(LoadedMsg)) {
		t.Error("load started before the reset should be ignored")
	}
	if p.Loading() {
		t.Error("reset should clear Loading")
	}
	if p.LoadMore() == nil {
		t.Error("a new load should be possible after reset")
	}
}

func TestWindowCannotBeAppendedIntoSource(t *testing.T) {
	p := New(DefaultPageSize, 0, itemID)
	src := makeItems(20)
	p.SetSource(src)

	w := p.Window()
	_ = append(w.Items, item{id: "intruder"})
	if src[8].id != "p08" {
		t.Error("appending to the window overwrote the source")
	}
}

func TestEmptySource(t *testing.T) {
	p := New(0, 0, itemID)
	p.SetSource(nil)
	w := p.Window()
	if len(w.Items) != 0 || w.HasMore || w.Page != 1 {
		t.Errorf("empty window = %+v", w)
	}
	if p.LoadMore() != nil {
		t.Error("nothing to load")
	}
}
