// Package otel records the structured event trail for hyperlocal.
//
// Events are typed structs written as JSONL by an asynchronous Logger.
// A RingBuffer can be attached to keep the most recent events in memory
// for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level is the event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind names an event as "<subsystem>.<action>".
type EventKind string

const (
	// Durable store
	KindStoreOpen   EventKind = "store.open"
	KindStoreReopen EventKind = "store.reopen"
	KindStoreRetry  EventKind = "store.retry"
	KindStoreError  EventKind = "store.error"

	// Persistent bridges
	KindBridgeLoad  EventKind = "bridge.load"
	KindBridgeFlush EventKind = "bridge.flush"
	KindPrefsQuota  EventKind = "prefs.quota"

	// Navigation
	KindNavPush     EventKind = "nav.push"
	KindNavPop      EventKind = "nav.pop"
	KindNavRedirect EventKind = "nav.redirect"
	KindNavHome     EventKind = "nav.home"

	// Process
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"

	// Message tracing (HYPERLOCAL_TRACE)
	KindMsgTrace EventKind = "trace.msg"
)

// Event is one line of the trail. Only Kind is required.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "store", "bridge", "nav", "ui", "main"
	SessionID string         `json:"session_id,omitempty"`
	Key       string         `json:"key,omitempty"`  // durable or prefs key
	View      string         `json:"view,omitempty"` // navigation target
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON fills DurMs from Dur.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}
