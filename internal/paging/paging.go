// Package paging exposes a growing prefix of a list, one page at a time.
package paging

import (
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	// DefaultPageSize is the number of items per page.
	DefaultPageSize = 8
	// DefaultDelay is how long a load-more takes to show.
	DefaultDelay = 400 * time.Millisecond
)

// LoadedMsg completes a LoadMore.
type LoadedMsg struct {
	gen uint64
}

// Window is what the list shows.
type Window[T any] struct {
	Items   []T
	Page    int
	HasMore bool
}

// Paginator shows the first Page*PageSize items of its source. The items
// shown are always a prefix of the current source, in source order.
//
// A new source whose ID sequence differs from the old one resets to page 1.
// A new source with the same IDs (edited content) keeps the page.
type Paginator[T any] struct {
	pageSize int
	delay    time.Duration
	id       func(T) string

	source  []T
	ids     []string
	page    int
	loading bool
	gen     uint64
}

// New returns a Paginator on page 1 of an empty source. id must return a
// stable identifier for an item.
func New[T any](pageSize int, delay time.Duration, id func(T) string) *Paginator[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if delay < 0 {
		delay = 0
	}
	return &Paginator[T]{pageSize: pageSize, delay: delay, id: id, page: 1}
}

// SetSource replaces the source list and reports whether that reset the page.
func (p *Paginator[T]) SetSource(items []T) bool {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = p.id(it)
	}
	p.source = items

	if slices.Equal(ids, p.ids) {
		return false
	}
	p.ids = ids
	p.Reset()
	return true
}

// Reset returns to page 1 and abandons any load-more in flight.
func (p *Paginator[T]) Reset() {
	p.page = 1
	p.loading = false
	p.gen++
}

// Window returns the visible prefix.
func (p *Paginator[T]) Window() Window[T] {
	n := min(p.page*p.pageSize, len(p.source))
	return Window[T]{
		Items:   p.source[:n:n],
		Page:    p.page,
		HasMore: n < len(p.source),
	}
}

// HasMore reports whether items remain past the window.
func (p *Paginator[T]) HasMore() bool {
	return p.page*p.pageSize < len(p.source)
}

// Loading reports whether a load-more is in flight.
func (p *Paginator[T]) Loading() bool {
	return p.loading
}

// LoadMore starts growing the window by one page after the configured
// delay. It returns nil, and does nothing, while a load is already in
// flight or when nothing is left to show.
func (p *Paginator[T]) LoadMore() tea.Cmd {
	if p.loading || !p.HasMore() {
		return nil
	}
	p.loading = true
	gen := p.gen
	if p.delay == 0 {
		return func() tea.Msg { return LoadedMsg{gen: gen} }
	}
	return tea.Tick(p.delay, func(time.Time) tea.Msg {
		return LoadedMsg{gen: gen}
	})
}

// Loaded applies a finished load-more. Messages from before the last reset
// are ignored. It reports whether the window grew.
func (p *Paginator[T]) Loaded(msg LoadedMsg) bool {
	if msg.gen != p.gen || !p.loading {
		return false
	}
	p.loading = false
	if !p.HasMore() {
		return false
	}
	p.page++
	return true
}
