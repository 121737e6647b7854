package persist

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/abelbrown/hyperlocal/internal/logging"
	"github.com/abelbrown/hyperlocal/internal/otel"
	"github.com/abelbrown/hyperlocal/internal/prefs"
)

// Sync is a value mirrored to the prefs store on every change.
// Durability is best effort: a failed write is logged and the in-memory
// value stays authoritative.
type Sync[T any] struct {
	store  *prefs.Store
	key    string
	events *otel.Logger
	encode func(T) ([]byte, error)

	mu    sync.Mutex
	value T
}

// SyncOption configures a Sync.
type SyncOption[T any] func(*syncConfig[T])

type syncConfig[T any] struct {
	decode Decoder[T]
	encode func(T) ([]byte, error)
	events *otel.Logger
}

// WithSyncDecoder replaces DecodeOver for this bridge.
func WithSyncDecoder[T any](d Decoder[T]) SyncOption[T] {
	return func(c *syncConfig[T]) { c.decode = d }
}

// WithSyncEncoder replaces json.Marshal for this bridge.
func WithSyncEncoder[T any](e func(T) ([]byte, error)) SyncOption[T] {
	return func(c *syncConfig[T]) { c.encode = e }
}

// WithSyncEvents records quota failures on l.
func WithSyncEvents[T any](l *otel.Logger) SyncOption[T] {
	return func(c *syncConfig[T]) { c.events = l }
}

// NewSync reads key from store, falling back to def when the key is absent
// or unreadable.
func NewSync[T any](store *prefs.Store, key string, def T, opts ...SyncOption[T]) *Sync[T] {
	cfg := syncConfig[T]{
		decode: DecodeOver[T],
		encode: func(v T) ([]byte, error) { return json.Marshal(v) },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Sync[T]{store: store, key: key, events: cfg.events, encode: cfg.encode, value: def}
	if raw, ok := store.Get(key); ok {
		v, err := cfg.decode(def, []byte(raw))
		if err != nil {
			logging.Warn("discarding unreadable value", "key", key, "err", err)
		} else {
			s.value = v
		}
	}
	return s
}

// Value returns the current value.
func (s *Sync[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the value and writes it through.
func (s *Sync[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	s.write(v)
}

// Update applies fn to the current value and writes the result.
func (s *Sync[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	v := fn(s.value)
	s.value = v
	s.mu.Unlock()
	s.write(v)
	return v
}

func (s *Sync[T]) write(v T) {
	data, err := s.encode(v)
	if err != nil {
		logging.Error("encode failed", "key", s.key, "err", err)
		return
	}
	if err := s.store.Set(s.key, string(data)); err != nil {
		if errors.Is(err, prefs.ErrQuotaExceeded) {
			logging.Warn("prefs quota exceeded, keeping value in memory only", "key", s.key, "bytes", len(data))
			s.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindPrefsQuota, Comp: "bridge", Key: s.key, Count: len(data)})
			return
		}
		logging.Error("prefs write failed", "key", s.key, "err", err)
	}
}
