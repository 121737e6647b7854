package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/hyperlocal/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing storage and navigation
// stats and recent events. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Stats"))
	lines = append(lines, fmt.Sprintf("  Store:      %d opens, %d reopens, %d retries, %d errors",
		ring.Count(otel.KindStoreOpen), ring.Count(otel.KindStoreReopen),
		ring.Count(otel.KindStoreRetry), ring.Count(otel.KindStoreError)))
	lines = append(lines, fmt.Sprintf("  Bridges:    %d loads, %d flushes, %d quota",
		ring.Count(otel.KindBridgeLoad), ring.Count(otel.KindBridgeFlush), ring.Count(otel.KindPrefsQuota)))
	lines = append(lines, fmt.Sprintf("  Navigation: %d push, %d pop, %d redirect, %d home",
		ring.Count(otel.KindNavPush), ring.Count(otel.KindNavPop),
		ring.Count(otel.KindNavRedirect), ring.Count(otel.KindNavHome)))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d events", ring.Len()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-14s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Key != "" {
			line += "  " + e.Key
		}
		if e.View != "" {
			line += "  ->" + e.View
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height
	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := min(76, width-4)
	panelWidth = max(panelWidth, 20)

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("?") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
