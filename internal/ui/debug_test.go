package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/hyperlocal/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	result := debugOverlay(nil, 80, 24)
	if result != "" {
		t.Errorf("debugOverlay(nil) should return empty string, got %q", result)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindStoreOpen, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindStoreReopen, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindStoreRetry, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindNavPush, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindNavPush, Time: time.Now()})

	result := debugOverlay(ring, 100, 40)

	if !strings.Contains(result, "1 opens, 1 reopens, 1 retries, 0 errors") {
		t.Errorf("overlay should show store stats, got:\n%s", result)
	}
	if !strings.Contains(result, "2 push, 0 pop") {
		t.Errorf("overlay should show navigation stats, got:\n%s", result)
	}
	if !strings.Contains(result, "5 events") {
		t.Errorf("overlay should show buffer size, got:\n%s", result)
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindBridgeLoad, Time: time.Now(), Key: "posts", Msg: "loaded"})
	ring.Push(otel.Event{Kind: otel.KindStoreError, Time: time.Now(), Err: "closing"})
	ring.Push(otel.Event{Kind: otel.KindNavRedirect, Time: time.Now(), View: "analytics"})

	result := debugOverlay(ring, 100, 40)

	for _, want := range []string{"Recent Events", "posts", "loaded", "ERR:closing", "->analytics"} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay should contain %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayTruncatesToHeight(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 30; i++ {
		ring.Push(otel.Event{Kind: otel.KindNavPush, Time: time.Now()})
	}
	result := debugOverlay(ring, 80, 12)
	if lines := strings.Count(result, "\n") + 1; lines > 12 {
		t.Errorf("overlay has %d lines, want at most 12", lines)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "0ms"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{3 * time.Minute, "3m"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNextCategoryWraps(t *testing.T) {
	cats := []string{"a", "b"}
	got := []string{nextCategory(cats, ""), nextCategory(cats, "a"), nextCategory(cats, "b"), nextCategory(cats, "gone")}
	want := []string{"a", "b", "", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
