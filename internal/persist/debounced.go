package persist

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelbrown/hyperlocal/internal/logging"
	"github.com/abelbrown/hyperlocal/internal/otel"
)

// DefaultWindow is the quiescence window for durable writes.
const DefaultWindow = time.Second

// Durable is the fail-soft store a Debounced bridge reads and writes.
// *store.Adapter implements it.
type Durable interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Set(ctx context.Context, key string, value any)
}

// Debounced is a large value loaded once from a Durable store and written
// back at most once per quiescence window.
//
// No write happens before Load has resolved. Mutations made earlier are
// reconciled with the stored value when it arrives: Update functions are
// replayed over it, while a plain Set loses to it. Values passed to Set are
// retained by the bridge; callers must not mutate them afterwards.
type Debounced[T any] struct {
	durable Durable
	key     string
	def     T
	decode  Decoder[T]
	events  *otel.Logger
	deb     *Debouncer[T]

	mu      sync.Mutex
	value   T
	loaded  bool
	dirty   bool        // mutated before Load resolved
	pending []func(T) T // Updates since the last Set, replayed at Load

	mounted  atomic.Bool
	onChange func(T)
}

// DebouncedOption configures a Debounced bridge.
type DebouncedOption[T any] func(*Debounced[T])

// WithDecoder replaces DecodeOver for this bridge.
func WithDecoder[T any](d Decoder[T]) DebouncedOption[T] {
	return func(b *Debounced[T]) { b.decode = d }
}

// WithEvents records load and flush events on l.
func WithEvents[T any](l *otel.Logger) DebouncedOption[T] {
	return func(b *Debounced[T]) { b.events = l }
}

// WithOnChange registers fn to run after Load replaces the value.
func WithOnChange[T any](fn func(T)) DebouncedOption[T] {
	return func(b *Debounced[T]) { b.onChange = fn }
}

// NewDebounced returns a bridge holding def until Load resolves.
func NewDebounced[T any](durable Durable, key string, def T, window time.Duration, opts ...DebouncedOption[T]) *Debounced[T] {
	if window <= 0 {
		window = DefaultWindow
	}
	b := &Debounced[T]{durable: durable, key: key, def: def, decode: DecodeOver[T], value: def}
	for _, opt := range opts {
		opt(b)
	}
	b.deb = NewDebouncer(window, b.flush)
	b.mounted.Store(true)
	return b
}

// Load reads the stored value once. If one exists it replaces the in-memory
// value, and Updates made before Load resolved are applied again on top of
// it. Without a stored value the in-memory value is kept. A write is
// scheduled only for mutations made before Load resolved that survive.
// Calling Load again is a no-op.
func (b *Debounced[T]) Load(ctx context.Context) T {
	b.mu.Lock()
	if b.loaded {
		v := b.value
		b.mu.Unlock()
		return v
	}
	b.mu.Unlock()

	start := time.Now()
	raw, ok := b.durable.Get(ctx, b.key)

	var (
		decoded T
		useIt   bool
	)
	if ok {
		v, err := b.decode(b.def, raw)
		if err != nil {
			logging.Warn("stored value unreadable, keeping default", "key", b.key, "err", err)
		} else {
			decoded, useIt = v, true
		}
	}

	if !b.mounted.Load() {
		return decoded
	}

	b.mu.Lock()
	if b.loaded {
		v := b.value
		b.mu.Unlock()
		return v
	}
	b.loaded = true
	switch {
	case useIt:
		v := decoded
		for _, fn := range b.pending {
			v = fn(v)
		}
		b.value = v
		if len(b.pending) > 0 {
			b.deb.Push(v)
		}
	case b.dirty:
		b.deb.Push(b.value)
	}
	b.pending = nil
	b.dirty = false
	v := b.value
	b.mu.Unlock()

	b.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindBridgeLoad, Comp: "bridge", Key: b.key, Dur: time.Since(start), Msg: loadMsg(ok, useIt)})
	if useIt && b.onChange != nil {
		b.onChange(v)
	}
	return v
}

func loadMsg(found, replaced bool) string {
	switch {
	case !found:
		return "empty"
	case replaced:
		return "loaded"
	default:
		return "kept"
	}
}

// Value returns the in-memory value.
func (b *Debounced[T]) Value() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// Loaded reports whether Load has resolved.
func (b *Debounced[T]) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Set replaces the value and schedules a write. Before Load resolves the
// value is provisional: a stored value found by Load replaces it.
func (b *Debounced[T]) Set(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value = v
	if !b.loaded {
		b.dirty = true
		b.pending = nil
		return
	}
	b.deb.Push(v)
}

// Update applies fn to the current value and schedules a write. Before Load
// resolves fn is also kept, to be applied again to the stored value, so it
// must not depend on being called once.
func (b *Debounced[T]) Update(fn func(T) T) T {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := fn(b.value)
	b.value = v
	if !b.loaded {
		b.dirty = true
		b.pending = append(b.pending, fn)
		return v
	}
	b.deb.Push(v)
	return v
}

// Writes is the number of durable writes performed.
func (b *Debounced[T]) Writes() int64 {
	return b.deb.Writes()
}

func (b *Debounced[T]) flush(v T) {
	start := time.Now()
	b.durable.Set(context.Background(), b.key, v)
	b.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindBridgeFlush, Comp: "bridge", Key: b.key, Dur: time.Since(start)})
}

// Close unmounts the bridge: a Load still in flight will not touch the
// value, and a pending write is flushed now.
func (b *Debounced[T]) Close() {
	b.mounted.Store(false)
	b.deb.Close()
}
