package nav

import (
	"fmt"
	"time"

	"github.com/abelbrown/hyperlocal/internal/filter"
	"github.com/abelbrown/hyperlocal/internal/otel"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultScrollDelay is how long Back waits for the restored view to render
// before asking for the saved scroll position.
const DefaultScrollDelay = 16 * time.Millisecond

// Filters is the owner of the live filter spec.
type Filters interface {
	Spec() filter.Spec
	Dispatch(a filter.Action)
}

// ScrollRestoreMsg asks the UI to scroll to Pos. Stale messages, from
// before a later navigation, are rejected by Engine.ScrollRestored.
type ScrollRestoreMsg struct {
	Pos int
	gen uint64
}

// Result says what NavigateTo did.
type Result int

const (
	Navigated Result = iota
	Unchanged
	LoginRequired
	Redirected
)

func (r Result) String() string {
	switch r {
	case Navigated:
		return "navigated"
	case Unchanged:
		return "unchanged"
	case LoginRequired:
		return "login-required"
	case Redirected:
		return "redirected"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Config wires an Engine to the rest of the app.
type Config struct {
	Session   Session
	Filters   Filters
	Protected []View // nil means DefaultProtected

	// OnAccountView runs each time an account view is entered.
	OnAccountView func(ref string)
	// Refresh reloads content after GoHome.
	Refresh func() tea.Cmd

	ScrollDelay time.Duration
	Events      *otel.Logger
}

// Engine owns the on-screen State and the History. None of its operations
// fail: a transition that is not allowed becomes a redirect or a no-op.
// Not safe for concurrent use; it lives on the UI goroutine.
type Engine struct {
	cfg       Config
	protected map[View]bool

	state   State
	scroll  int
	history History

	loginPrompt bool
	pending     *target // where to go once signed in
	gen         uint64  // bumped by every transition
}

type target struct {
	view   View
	params Params
}

// NewEngine starts on DefaultView with an empty history.
func NewEngine(cfg Config) *Engine {
	if cfg.Protected == nil {
		cfg.Protected = DefaultProtected
	}
	if cfg.ScrollDelay <= 0 {
		cfg.ScrollDelay = DefaultScrollDelay
	}
	if cfg.Session == nil {
		cfg.Session = SessionFunc(func() (Identity, bool) { return Identity{}, false })
	}
	e := &Engine{
		cfg:       cfg,
		protected: make(map[View]bool, len(cfg.Protected)),
		state:     State{View: DefaultView, Mode: DefaultMode},
	}
	for _, v := range cfg.Protected {
		e.protected[v] = true
	}
	return e
}

// State returns what is on screen.
func (e *Engine) State() State { return e.state }

// Scroll is the last known scroll position of the current view.
func (e *Engine) Scroll() int { return e.scroll }

// SetScroll records the current scroll position; the UI calls it as the
// user scrolls so the next snapshot captures it.
func (e *Engine) SetScroll(pos int) { e.scroll = max(pos, 0) }

// Depth is the number of snapshots Back can return to.
func (e *Engine) Depth() int { return e.history.Len() }

// Protected reports whether v needs a signed-in identity.
func (e *Engine) Protected(v View) bool { return e.protected[v] }

// LoginPrompt reports whether the login prompt should be open.
func (e *Engine) LoginPrompt() bool { return e.loginPrompt }

// DismissLogin closes the login prompt and forgets the blocked target.
func (e *Engine) DismissLogin() {
	e.loginPrompt = false
	e.pending = nil
}

// ResumeAfterLogin closes the prompt and retries the navigation that opened
// it, if the user is now signed in.
func (e *Engine) ResumeAfterLogin() Result {
	p := e.pending
	e.DismissLogin()
	if p == nil {
		return Unchanged
	}
	return e.NavigateTo(p.view, p.params)
}

// NavigateTo moves to view. Identical requests are ignored; protected views
// open the login prompt when nobody is signed in; the create and analytics
// views redirect when the identity lacks the tier or ownership they need.
// Every transition pushes a snapshot of the current state first.
func (e *Engine) NavigateTo(view View, params Params) Result {
	next := State{View: view, Mode: params.Mode, Refs: params.Refs}
	if next.Mode == "" {
		next.Mode = e.state.Mode
	}
	if next == e.state {
		return Unchanged
	}

	var id Identity
	if e.protected[view] {
		var ok bool
		id, ok = e.cfg.Session.Current()
		if !ok {
			e.loginPrompt = true
			e.pending = &target{view: view, params: params}
			e.emitRedirect(view, "login")
			return LoginRequired
		}
	}

	switch view {
	case ViewCreate:
		if id.Tier < CreateTier {
			e.emitRedirect(view, string(ViewUpgrade))
			e.NavigateTo(ViewUpgrade, Params{})
			return Redirected
		}
	case ViewAnalytics:
		if next.AccountRef == "" {
			next.AccountRef = id.ID
		}
		if next.AccountRef != id.ID {
			e.emitRedirect(view, string(ViewAccount))
			e.NavigateTo(ViewAccount, Params{Refs: Refs{AccountRef: next.AccountRef}})
			return Redirected
		}
		if id.Tier < AnalyticsTier {
			e.emitRedirect(view, string(ViewUpgrade))
			e.NavigateTo(ViewUpgrade, Params{})
			return Redirected
		}
		if next == e.state {
			return Unchanged
		}
	case ViewAccount:
		if e.cfg.OnAccountView != nil && next.AccountRef != "" {
			e.cfg.OnAccountView(next.AccountRef)
		}
	}

	e.history.Push(e.snapshot())
	e.state = next
	e.scroll = 0
	e.gen++
	e.cfg.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindNavPush, Comp: "nav", View: string(view), Count: e.history.Len()})
	return Navigated
}

// Back restores the most recent snapshot: view, mode, refs and filter
// spec at once, then scroll position once the view has rendered. With an
// empty history it falls back to DefaultView.
func (e *Engine) Back() tea.Cmd {
	snap, ok := e.history.Pop()
	if !ok {
		if e.state.View != DefaultView {
			e.NavigateTo(DefaultView, Params{})
		}
		return nil
	}

	e.state = State{View: snap.View, Mode: snap.Mode, Refs: snap.Refs}
	if e.cfg.Filters != nil {
		e.cfg.Filters.Dispatch(filter.Restore{Spec: snap.Filter})
	}
	e.scroll = snap.Scroll
	e.loginPrompt = false
	e.pending = nil
	e.gen++
	e.cfg.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindNavPop, Comp: "nav", View: string(snap.View), Count: e.history.Len()})

	gen, pos := e.gen, snap.Scroll
	return tea.Tick(e.cfg.ScrollDelay, func(time.Time) tea.Msg {
		return ScrollRestoreMsg{Pos: pos, gen: gen}
	})
}

// ScrollRestored reports whether msg still applies, i.e. no navigation
// happened since the Back that produced it.
func (e *Engine) ScrollRestored(msg ScrollRestoreMsg) bool {
	if msg.gen != e.gen {
		return false
	}
	e.scroll = msg.Pos
	return true
}

// GoHome resets everything: filters, history, view state. It does not
// push a snapshot, so Back has nothing to return to afterwards.
func (e *Engine) GoHome() tea.Cmd {
	if e.cfg.Filters != nil {
		e.cfg.Filters.Dispatch(filter.Reset{})
	}
	e.history.Clear()
	e.state = State{View: DefaultView, Mode: DefaultMode}
	e.scroll = 0
	e.loginPrompt = false
	e.pending = nil
	e.gen++
	e.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindNavHome, Comp: "nav"})

	if e.cfg.Refresh != nil {
		return e.cfg.Refresh()
	}
	return nil
}

// Guard sends the user home if nobody is signed in while a protected view
// is on screen. The UI runs it after every update; once home it does
// nothing, so repeated sign-out notifications are harmless.
func (e *Engine) Guard() tea.Cmd {
	if !e.protected[e.state.View] {
		return nil
	}
	if _, ok := e.cfg.Session.Current(); ok {
		return nil
	}
	e.emitRedirect(e.state.View, "signed-out")
	return e.GoHome()
}

func (e *Engine) snapshot() Snapshot {
	var spec filter.Spec
	if e.cfg.Filters != nil {
		spec = e.cfg.Filters.Spec()
	}
	return Snapshot{
		View:   e.state.View,
		Mode:   e.state.Mode,
		Refs:   e.state.Refs,
		Scroll: e.scroll,
		Filter: spec,
	}
}

func (e *Engine) emitRedirect(from View, to string) {
	e.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindNavRedirect, Comp: "nav", View: string(from), Msg: to})
}
