package otel

import (
	"maps"
	"sync"
)

// DefaultRingSize is used when NewRingBuffer is given a non-positive size.
const DefaultRingSize = 512

// RingBuffer keeps the most recent events. Safe for concurrent use.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	head  int // next write slot
	count int
}

// NewRingBuffer returns a buffer holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size)}
}

// Push appends e, evicting the oldest event when full.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		e.Extra = maps.Clone(e.Extra)
	}
	r.mu.Lock()
	r.buf[r.head] = e
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || r.count == 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}
	out := make([]Event, n)
	size := len(r.buf)
	start := (r.head - n + size) % size
	for i := range out {
		out[i] = r.buf[(start+i)%size]
	}
	return out
}

// Snapshot returns every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	return r.Last(r.Len())
}

// Len is the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Count returns how many buffered events have the given kind.
func (r *RingBuffer) Count(kind EventKind) int {
	n := 0
	for _, e := range r.Snapshot() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
