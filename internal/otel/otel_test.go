package otel

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEmitWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Kind: KindStoreRetry, Level: LevelWarn, Comp: "store", Key: "posts"})
	l.Info(KindNavPush, "nav", "home -> post")
	l.Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["kind"] != "store.retry" {
		t.Errorf("kind = %v, want store.retry", decoded["kind"])
	}
	if decoded["key"] != "posts" {
		t.Errorf("key = %v, want posts", decoded["key"])
	}
	if decoded["session_id"] != l.SessionID() {
		t.Errorf("session_id = %v, want %s", decoded["session_id"], l.SessionID())
	}
}

func TestSessionIDShape(t *testing.T) {
	l := NewNullLogger()
	defer l.Close()

	if len(l.SessionID()) != 16 {
		t.Errorf("session id should be 16 hex chars, got %q", l.SessionID())
	}
}

func TestDurMarshalledAsMillis(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindBridgeFlush, Dur: 250 * time.Millisecond})
	l.Close()

	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["dur_ms"] != float64(250) {
		t.Errorf("dur_ms = %v, want 250", decoded["dur_ms"])
	}
}

func TestErrorRecordsMessage(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Error(KindStoreError, "store", errors.New("database is closed"))
	l.Error(KindStoreError, "store", nil)
	l.Close()

	if !strings.Contains(buf.String(), `"err":"database is closed"`) {
		t.Errorf("error text missing: %s", buf.String())
	}
}

func TestEmitAfterCloseIsDropped(t *testing.T) {
	l := NewNullLogger()
	l.Close()
	l.Emit(Event{Kind: KindShutdown})
	if l.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", l.Dropped())
	}
	l.Close()
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Emit(Event{Kind: KindStartup})
	l.Info(KindStartup, "main", "x")
	l.SetRingBuffer(NewRingBuffer(4))
	l.Close()
	if l.Dropped() != 0 || l.SessionID() != "" {
		t.Error("nil logger should report zero values")
	}
}

func TestConcurrentEmitWithClose(t *testing.T) {
	l := NewNullLogger()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				l.Emit(Event{Kind: KindNavPush})
			}
		}()
	}
	l.Close()
	wg.Wait()
}

func TestRingBufferAttached(t *testing.T) {
	ring := NewRingBuffer(8)
	l := NewNullLogger()
	l.SetRingBuffer(ring)
	l.Emit(Event{Kind: KindNavPush, Extra: map[string]any{"depth": 1}})
	l.Emit(Event{Kind: KindNavPop})
	l.Close()

	if ring.Len() != 2 {
		t.Fatalf("ring Len() = %d, want 2", ring.Len())
	}
	if ring.Count(KindNavPop) != 1 {
		t.Errorf("Count(nav.pop) = %d, want 1", ring.Count(KindNavPop))
	}
}

func TestRingBufferWraps(t *testing.T) {
	r := NewRingBuffer(3)
	for i := 1; i <= 5; i++ {
		r.Push(Event{Count: i})
	}

	got := r.Snapshot()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []int{3, 4, 5} {
		if got[i].Count != want {
			t.Errorf("got[%d].Count = %d, want %d", i, got[i].Count, want)
		}
	}

	last := r.Last(2)
	if len(last) != 2 || last[0].Count != 4 || last[1].Count != 5 {
		t.Errorf("Last(2) = %+v", last)
	}
	if r.Last(0) != nil {
		t.Error("Last(0) should be nil")
	}
}

func TestRingBufferCopiesExtra(t *testing.T) {
	r := NewRingBuffer(2)
	extra := map[string]any{"k": 1}
	r.Push(Event{Extra: extra})
	extra["k"] = 2

	if got := r.Last(1)[0].Extra["k"]; got != 1 {
		t.Errorf("Extra aliased: got %v", got)
	}
}

func TestTraceToggle(t *testing.T) {
	prev := TraceEnabled()
	defer setTraceEnabled(prev)

	setTraceEnabled(true)
	if !TraceEnabled() {
		t.Error("expected trace enabled")
	}
	setTraceEnabled(false)
	if TraceEnabled() {
		t.Error("expected trace disabled")
	}
}
