package filter

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultQueryDelay is how long typing must pause before a query applies.
const DefaultQueryDelay = 300 * time.Millisecond

// QueryReadyMsg is delivered when a debounce period ends.
type QueryReadyMsg struct {
	Query string
	seq   uint64
}

// QueryDebounce delays free-text input so the pipeline does not rerun on
// every keystroke. Each Input supersedes the previous one; stale ticks are
// recognised by sequence number and ignored.
type QueryDebounce struct {
	Delay time.Duration
	seq   uint64
}

// Input records q and returns the Cmd that reports it after Delay.
func (d *QueryDebounce) Input(q string) tea.Cmd {
	d.seq++
	seq := d.seq
	delay := d.Delay
	if delay <= 0 {
		delay = DefaultQueryDelay
	}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return QueryReadyMsg{Query: q, seq: seq}
	})
}

// Ready reports whether msg is the latest input, i.e. should be applied.
func (d *QueryDebounce) Ready(msg QueryReadyMsg) bool {
	return msg.seq == d.seq
}

// Cancel makes every outstanding tick stale.
func (d *QueryDebounce) Cancel() {
	d.seq++
}
