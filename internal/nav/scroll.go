package nav

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"
)

// FrameInterval is one animation frame.
const FrameInterval = time.Second / 60

// DefaultHideOffset is how far down the header may stay visible while
// scrolling down.
const DefaultHideOffset = 80

// FrameMsg evaluates the latest throttled scroll position.
type FrameMsg struct{}

// ScrollTracker turns scroll positions into a header-visibility flag:
// hidden while scrolling down past the offset, shown when scrolling up.
// Positions are evaluated at most once per frame; the newest position seen
// in between is evaluated on the next FrameMsg.
type ScrollTracker struct {
	limiter *rate.Limiter
	offset  int

	last      int
	hidden    bool
	pending   int
	hasPend   bool
	scheduled bool
}

// NewScrollTracker returns a tracker with the header visible.
func NewScrollTracker(offset int) *ScrollTracker {
	if offset < 0 {
		offset = DefaultHideOffset
	}
	return &ScrollTracker{
		limiter: rate.NewLimiter(rate.Every(FrameInterval), 1),
		offset:  offset,
	}
}

// Observe records a scroll position. It returns a Cmd delivering FrameMsg
// when the position had to wait for the next frame.
func (t *ScrollTracker) Observe(pos int) tea.Cmd {
	return t.observeAt(time.Now(), pos)
}

func (t *ScrollTracker) observeAt(now time.Time, pos int) tea.Cmd {
	if t.limiter.AllowN(now, 1) {
		t.hasPend = false
		t.evaluate(pos)
		return nil
	}
	t.pending, t.hasPend = pos, true
	if t.scheduled {
		return nil
	}
	t.scheduled = true
	return tea.Tick(FrameInterval, func(time.Time) tea.Msg { return FrameMsg{} })
}

// Frame evaluates the pending position, if any.
func (t *ScrollTracker) Frame(FrameMsg) {
	t.scheduled = false
	if t.hasPend {
		t.hasPend = false
		t.evaluate(t.pending)
	}
}

func (t *ScrollTracker) evaluate(pos int) {
	switch {
	case pos > t.last && pos > t.offset:
		t.hidden = true
	case pos < t.last:
		t.hidden = false
	}
	t.last = pos
}

// HeaderVisible reports whether the header should be drawn.
func (t *ScrollTracker) HeaderVisible() bool {
	return !t.hidden
}

// Reset shows the header and forgets the last position, as after a
// navigation to a new view.
func (t *ScrollTracker) Reset() {
	t.last, t.hidden, t.hasPend = 0, false, false
}
