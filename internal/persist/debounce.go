package persist

import (
	"sync"
	"sync/atomic"
	"time"
)

// Debouncer coalesces values pushed within window into one write of the
// latest value. It holds at most one pending value; a new Push replaces it
// and restarts the timer. A single writer goroutine performs every write,
// so writes never overlap.
type Debouncer[T any] struct {
	window time.Duration
	write  func(T)

	mu      sync.Mutex
	pending T
	has     bool
	timer   *time.Timer
	closed  bool

	kick   chan struct{}
	quit   chan struct{}
	done   chan struct{}
	writes atomic.Int64
}

// NewDebouncer starts the writer goroutine. Call Close to stop it.
func NewDebouncer[T any](window time.Duration, write func(T)) *Debouncer[T] {
	d := &Debouncer[T]{
		window: window,
		write:  write,
		kick:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Push replaces the pending value with v and restarts the window.
// Pushes after Close are dropped.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.pending = v
	d.has = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Pending reports whether a value is waiting for its window to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.has
}

// Writes is the number of writes performed so far.
func (d *Debouncer[T]) Writes() int64 {
	return d.writes.Load()
}

func (d *Debouncer[T]) fire() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

func (d *Debouncer[T]) run() {
	defer close(d.done)
	for {
		select {
		case <-d.kick:
			d.writePending()
		case <-d.quit:
			d.writePending()
			return
		}
	}
}

func (d *Debouncer[T]) writePending() {
	d.mu.Lock()
	if !d.has {
		d.mu.Unlock()
		return
	}
	v := d.pending
	var zero T
	d.pending = zero
	d.has = false
	d.mu.Unlock()

	d.write(v)
	d.writes.Add(1)
}

// Close writes any pending value immediately and stops the writer.
// Idempotent.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	close(d.quit)
	<-d.done
}
