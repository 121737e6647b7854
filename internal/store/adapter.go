package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abelbrown/hyperlocal/internal/logging"
	"github.com/abelbrown/hyperlocal/internal/otel"
	"golang.org/x/sync/singleflight"
)

// ErrRetryExhausted wraps the second closing error of an operation that was
// already retried once.
var ErrRetryExhausted = errors.New("store: retry exhausted")

// Conn is an open handle the Adapter can run operations on. *DB implements it.
type Conn interface {
	Get(ctx context.Context, store, key string) ([]byte, bool, error)
	Put(ctx context.Context, store, key string, value []byte) error
	// Done is closed when the handle stops being usable.
	Done() <-chan struct{}
	Close() error
}

// Opener opens a new Conn.
type Opener func(ctx context.Context) (Conn, error)

// PathOpener opens the SQLite database at path.
func PathOpener(path string) Opener {
	return func(ctx context.Context) (Conn, error) {
		return Open(ctx, path)
	}
}

// Adapter owns at most one live Conn, opened lazily and shared by every
// caller. Concurrent first calls wait on the same open attempt. When the
// Conn reports Done, or an operation fails with a closing error, the Adapter
// forgets it and the next call opens a fresh one.
//
// Get and Set are fail-soft: failures are logged and swallowed.
// GetE and SetE report them.
type Adapter struct {
	open   Opener
	store  string
	events *otel.Logger

	group singleflight.Group

	mu      sync.Mutex
	current Conn
	opens   int
	closed  bool
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithEvents records open/retry/error events on l.
func WithEvents(l *otel.Logger) AdapterOption {
	return func(a *Adapter) { a.events = l }
}

// WithStore selects the logical store. Defaults to DefaultStore.
func WithStore(name string) AdapterOption {
	return func(a *Adapter) { a.store = name }
}

// NewAdapter returns an Adapter that opens connections with open.
// No connection is opened until the first operation.
func NewAdapter(open Opener, opts ...AdapterOption) *Adapter {
	a := &Adapter{open: open, store: DefaultStore}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Get returns the raw JSON stored under key. Any failure, including a
// second closing error after the retry, resolves to (nil, false).
func (a *Adapter) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	v, ok, err := a.GetE(ctx, key)
	if err != nil {
		logging.Error("store get failed", "key", key, "err", err)
		return nil, false
	}
	return v, ok
}

// Set stores value as JSON under key. Failures are logged, never returned.
func (a *Adapter) Set(ctx context.Context, key string, value any) {
	if err := a.SetE(ctx, key, value); err != nil {
		logging.Error("store set failed", "key", key, "err", err)
	}
}

// GetE is Get with the error surfaced.
func (a *Adapter) GetE(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var (
		value []byte
		ok    bool
	)
	err := a.do(ctx, key, func(c Conn) error {
		var err error
		value, ok, err = c.Get(ctx, a.store, key)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return value, ok, nil
}

// SetE is Set with the error surfaced.
func (a *Adapter) SetE(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return a.do(ctx, key, func(c Conn) error {
		return c.Put(ctx, a.store, key, data)
	})
}

// do runs op, reopening and retrying exactly once if the connection turns
// out to be closing.
func (a *Adapter) do(ctx context.Context, key string, op func(Conn) error) error {
	start := time.Now()
	c, err := a.conn(ctx)
	if err != nil {
		a.emitErr(key, err)
		return err
	}

	err = op(c)
	if err == nil || !IsClosing(err) {
		if err != nil {
			a.emitErr(key, err)
		}
		return err
	}

	a.invalidate(c)
	a.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindStoreRetry, Comp: "store", Key: key, Err: err.Error()})
	logging.Warn("store connection closing, retrying once", "key", key, "err", err)

	c, err = a.conn(ctx)
	if err != nil {
		a.emitErr(key, err)
		return err
	}
	if err := op(c); err != nil {
		if IsClosing(err) {
			a.invalidate(c)
			err = fmt.Errorf("%w: %w", ErrRetryExhausted, err)
		}
		a.emitErr(key, err)
		return err
	}
	a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStoreRetry, Comp: "store", Key: key, Msg: "recovered", Dur: time.Since(start)})
	return nil
}

func (a *Adapter) emitErr(key string, err error) {
	a.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindStoreError, Comp: "store", Key: key, Err: err.Error()})
}

// conn returns the live Conn, opening one if needed. Concurrent callers
// share a single open attempt.
func (a *Adapter) conn(ctx context.Context) (Conn, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, ErrClosing
	}
	if c := a.current; c != nil {
		a.mu.Unlock()
		return c, nil
	}
	a.mu.Unlock()

	v, err, _ := a.group.Do("open", func() (any, error) {
		a.mu.Lock()
		if c := a.current; c != nil {
			a.mu.Unlock()
			return c, nil
		}
		a.mu.Unlock()

		// One caller's cancellation must not fail the others waiting here.
		c, err := a.open(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("open connection: %w", err)
		}

		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			c.Close()
			return nil, ErrClosing
		}
		a.current = c
		a.opens++
		n := a.opens
		a.mu.Unlock()

		kind := otel.KindStoreOpen
		if n > 1 {
			kind = otel.KindStoreReopen
		}
		a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: kind, Comp: "store", Count: n})

		go a.watch(c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Conn), nil
}

// watch drops c from the memo once it reports Done.
func (a *Adapter) watch(c Conn) {
	<-c.Done()
	a.mu.Lock()
	if a.current == c {
		a.current = nil
	}
	a.mu.Unlock()
}

// invalidate forgets c (if still current) and closes it.
func (a *Adapter) invalidate(c Conn) {
	a.mu.Lock()
	if a.current == c {
		a.current = nil
	}
	a.mu.Unlock()
	c.Close()
}

// Opens reports how many connections have been opened so far.
func (a *Adapter) Opens() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opens
}

// Close closes the live connection. Later calls fail with ErrClosing.
func (a *Adapter) Close() error {
	a.mu.Lock()
	c := a.current
	a.current = nil
	a.closed = true
	a.mu.Unlock()
	if c != nil {
		return c.Close()
	}
	return nil
}
