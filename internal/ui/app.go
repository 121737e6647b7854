package ui

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/abelbrown/hyperlocal/internal/filter"
	"github.com/abelbrown/hyperlocal/internal/model"
	"github.com/abelbrown/hyperlocal/internal/nav"
	"github.com/abelbrown/hyperlocal/internal/otel"
	"github.com/abelbrown/hyperlocal/internal/paging"
	"github.com/abelbrown/hyperlocal/internal/persist"
	"github.com/abelbrown/hyperlocal/internal/prefs"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// AppConfig wires the App to its storage and tuning.
type AppConfig struct {
	Prefs    *prefs.Store
	Posts    *persist.Debounced[[]model.Post]
	Accounts *persist.Debounced[[]model.Account]
	Forum    *persist.Debounced[[]model.ForumPost] // optional
	Comments *persist.Debounced[[]model.Comment]   // optional

	// Durable backs the per-user bridges mounted at sign in. Without it
	// the bag and activity stay empty.
	Durable        persist.Durable
	BridgeDebounce time.Duration

	// User is the identity the sign-in prompt signs in as.
	User      string
	Protected []nav.View // nil means nav.DefaultProtected

	PageSize         int
	LoadMoreDelay    time.Duration
	QueryDebounce    time.Duration
	ScrollHideOffset int

	// HomeLocation is the neighbourhood post distances are measured from.
	// Empty leaves distances unset.
	HomeLocation string

	// AISearch ranks posts for a query. Optional; tab in the search bar
	// does nothing without it.
	AISearch func(query string, posts []model.Post) tea.Cmd

	Events *otel.Logger
	Ring   *otel.RingBuffer
	Now    func() time.Time
	Ctx    context.Context
}

// App is the root Bubble Tea model.
// App does not touch the durable store directly: bridges load through
// commands and report back with messages.
type App struct {
	ctx    context.Context
	cfg    AppConfig
	events *otel.Logger
	now    func() time.Time

	engine   *nav.Engine
	filters  *Filters
	session  *Session
	posts    *persist.Debounced[[]model.Post]
	accounts *persist.Debounced[[]model.Account]
	forum    *persist.Debounced[[]model.ForumPost]
	comments *persist.Debounced[[]model.Comment]
	user     *userData

	recent     *persist.Sync[[]string]
	categories *persist.Sync[[]string]
	notify     *persist.Sync[model.NotificationSettings]

	pager  *paging.Paginator[model.Post]
	query  *filter.QueryDebounce
	scroll *nav.ScrollTracker

	keys     keyMap
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	cursor    int
	aiQuery   string // query of the AI search in flight
	searching bool
	showDebug bool
	loading   bool
	status    string
	width     int
	height    int
	ready     bool
}

// NewApp creates the App. Posts and Accounts must be non-nil.
func NewApp(cfg AppConfig) App {
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Prefs == nil {
		cfg.Prefs = prefs.NewMemory(prefs.DefaultQuota)
	}
	if cfg.ScrollHideOffset == 0 {
		cfg.ScrollHideOffset = nav.DefaultHideOffset
	}

	a := App{
		ctx:      cfg.Ctx,
		cfg:      cfg,
		events:   cfg.Events,
		now:      cfg.Now,
		filters:  NewFilters(cfg.Prefs, cfg.Events),
		session:  NewSession(cfg.Prefs),
		posts:    cfg.Posts,
		accounts: cfg.Accounts,
		forum:    cfg.Forum,
		comments: cfg.Comments,

		recent:     persist.NewSync(cfg.Prefs, prefs.KeyRecentSearches, []string{}),
		categories: persist.NewSync(cfg.Prefs, prefs.KeyCategories, slices.Clone(model.DefaultCategories)),
		notify:     persist.NewSync(cfg.Prefs, prefs.KeyNotificationSettings, model.DefaultNotificationSettings()),

		pager:  paging.New(cfg.PageSize, cfg.LoadMoreDelay, func(p model.Post) string { return p.ID }),
		query:  &filter.QueryDebounce{Delay: cfg.QueryDebounce},
		scroll: nav.NewScrollTracker(cfg.ScrollHideOffset),
		keys:   defaultKeys(),
	}

	accounts := cfg.Accounts
	a.engine = nav.NewEngine(nav.Config{
		Session:   a.session,
		Filters:   a.filters,
		Protected: cfg.Protected,
		OnAccountView: func(ref string) {
			accounts.Update(func(acc []model.Account) []model.Account {
				return model.IncrementViews(acc, ref)
			})
		},
		Refresh: a.reloadPosts,
		Events:  cfg.Events,
	})

	if id, ok := a.session.Current(); ok && cfg.Durable != nil {
		a.user = newUserData(cfg.Durable, id.ID, cfg.BridgeDebounce, cfg.Events)
	}

	a.input = textinput.New()
	a.input.Placeholder = "search posts"
	a.input.Prompt = "/ "
	a.input.CharLimit = 120

	a.spinner = spinner.New()
	a.spinner.Spinner = spinner.Dot
	a.viewport = viewport.New(0, 0)
	a.loading = true
	return a
}

// Init loads the bridges.
func (a App) Init() tea.Cmd {
	ctx, posts, accounts := a.ctx, a.posts, a.accounts
	cmds := []tea.Cmd{
		func() tea.Msg { return PostsLoaded{Posts: posts.Load(ctx)} },
		func() tea.Msg { return AccountsLoaded{Accounts: accounts.Load(ctx)} },
		a.spinner.Tick,
	}
	if forum, comments := a.forum, a.comments; forum != nil && comments != nil {
		cmds = append(cmds, func() tea.Msg {
			forum.Load(ctx)
			comments.Load(ctx)
			return ForumLoaded{}
		})
	}
	if a.user != nil {
		cmds = append(cmds, a.user.load(ctx))
	}
	return tea.Batch(cmds...)
}

// reloadPosts re-reads the in-memory posts, as after GoHome.
func (a App) reloadPosts() tea.Cmd {
	posts := a.posts
	return func() tea.Msg { return PostsLoaded{Posts: posts.Value()} }
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgTrace, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	before := a.engine.State()
	a, cmd := a.update(msg)

	// Sign-out while on a protected view.
	cmd = tea.Batch(cmd, a.engine.Guard())
	if a.engine.State() != before {
		a.scroll.Reset()
		a.refilter()
		if a.engine.State().View != before.View {
			a.cursor = 0
		}
		if st := a.engine.State(); st.View == nav.ViewPost && st.PostID != before.PostID {
			a.recordView(st.PostID)
		}
	}
	a.syncViewport()
	return a, cmd
}

func (a App) update(msg tea.Msg) (App, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width = msg.Width
		a.viewport.Height = a.bodyHeight()
		a.input.Width = max(msg.Width-8, 10)
		a.ready = true
		return a, nil

	case PostsLoaded:
		a.loading = false
		a.refilter()
		return a, nil

	case AccountsLoaded, ForumLoaded, UserDataLoaded:
		return a, nil

	case paging.LoadedMsg:
		a.pager.Loaded(msg)
		return a, nil

	case filter.QueryReadyMsg:
		if a.query.Ready(msg) {
			a.applyQuery(msg.Query)
		}
		return a, nil

	case AISearchDone:
		// Only the reply to the latest request counts.
		if !a.filters.Spec().AISearching || msg.Query != a.aiQuery {
			return a, nil
		}
		if msg.Err != nil {
			a.filters.Dispatch(filter.ClearAI{})
			a.status = "AI search failed: " + msg.Err.Error()
		} else {
			a.filters.Dispatch(filter.SetAIResults{Results: msg.Results})
			a.status = fmt.Sprintf("AI picked %d posts", len(msg.Results))
		}
		a.refilter()
		return a, nil

	case nav.ScrollRestoreMsg:
		if a.engine.ScrollRestored(msg) {
			a.cursor = msg.Pos
			a.clampCursor()
		}
		return a, nil

	case nav.FrameMsg:
		a.scroll.Frame(msg)
		return a, nil

	case spinner.TickMsg:
		if !a.loading && !a.pager.Loading() && !a.filters.Spec().AISearching {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (App, tea.Cmd) {
	a.status = ""
	if a.searching {
		return a.handleSearchKey(msg)
	}
	if a.engine.LoginPrompt() {
		return a.handleLoginKey(msg)
	}

	state := a.engine.State()
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Debug):
		a.showDebug = !a.showDebug

	case key.Matches(msg, a.keys.Down):
		return a.moveCursor(1)

	case key.Matches(msg, a.keys.Up):
		return a.moveCursor(-1)

	case key.Matches(msg, a.keys.Open):
		switch state.View {
		case nav.ViewHome:
			if p, ok := a.selected(); ok {
				a.engine.NavigateTo(nav.ViewPost, nav.Params{Refs: nav.Refs{PostID: p.ID}})
			}
		case nav.ViewBag:
			if bag := a.bag(); a.cursor < len(bag) {
				a.engine.NavigateTo(nav.ViewPost, nav.Params{Refs: nav.Refs{PostID: bag[a.cursor].PostID}})
			}
		}

	case key.Matches(msg, a.keys.Back):
		if state.View == nav.ViewHome && a.filters.Spec().AIActive() {
			a.filters.Dispatch(filter.ClearAI{})
			a.refilter()
			return a, nil
		}
		return a, a.engine.Back()

	case key.Matches(msg, a.keys.Home):
		a.query.Cancel()
		return a, a.engine.GoHome()

	case key.Matches(msg, a.keys.Search):
		if state.View != nav.ViewHome {
			return a, nil
		}
		a.searching = true
		a.input.SetValue(a.filters.Spec().Query)
		a.input.CursorEnd()
		a.viewport.Height = a.bodyHeight()
		cmd := a.input.Focus()
		return a, cmd

	case key.Matches(msg, a.keys.Author):
		if author := a.currentAuthor(); author != "" {
			a.engine.NavigateTo(nav.ViewAccount, nav.Params{Refs: nav.Refs{AccountRef: author}})
		}

	case key.Matches(msg, a.keys.Create):
		a.engine.NavigateTo(nav.ViewCreate, nav.Params{})

	case key.Matches(msg, a.keys.Analytics):
		ref := ""
		if state.View == nav.ViewAccount {
			ref = state.AccountRef
		}
		a.engine.NavigateTo(nav.ViewAnalytics, nav.Params{Refs: nav.Refs{AccountRef: ref}})

	case key.Matches(msg, a.keys.Bag):
		a.engine.NavigateTo(nav.ViewBag, nav.Params{})

	case key.Matches(msg, a.keys.Activity):
		a.engine.NavigateTo(nav.ViewActivity, nav.Params{})

	case key.Matches(msg, a.keys.Settings):
		a.engine.NavigateTo(nav.ViewSettings, nav.Params{})

	case key.Matches(msg, a.keys.Forums):
		a.engine.NavigateTo(nav.ViewForum, nav.Params{})

	case key.Matches(msg, a.keys.Mode):
		mode := nav.ModeList
		if state.Mode == nav.ModeList {
			mode = nav.ModeGrid
		}
		a.engine.NavigateTo(state.View, nav.Params{Mode: mode, Refs: state.Refs})

	case key.Matches(msg, a.keys.Sort):
		a.dispatch(filter.SetSort{Sort: nextSort(a.filters.Spec().Sort)})

	case key.Matches(msg, a.keys.Category):
		a.dispatch(filter.SetCategory{Category: nextCategory(a.categories.Value(), a.filters.Spec().Category)})

	case key.Matches(msg, a.keys.Expired):
		a.dispatch(filter.SetExpired{On: !a.filters.Spec().ShowExpired})

	case key.Matches(msg, a.keys.Expiring):
		a.dispatch(filter.SetExpiring{On: !a.filters.Spec().ExpiringSoon})

	case key.Matches(msg, a.keys.Recent):
		a.dispatch(filter.SetRecent{On: !a.filters.Spec().Recent})

	case key.Matches(msg, a.keys.Reset):
		a.query.Cancel()
		a.dispatch(filter.Reset{})

	case key.Matches(msg, a.keys.Like):
		if state.View == nav.ViewForum {
			a.voteThread()
		} else {
			a.toggleLike()
		}

	case key.Matches(msg, a.keys.AddToBag):
		a.toggleBag()

	case key.Matches(msg, a.keys.SignIn):
		cmd := a.signIn()
		return a, cmd

	case key.Matches(msg, a.keys.SignOut):
		a.session.SignOut()
		a.status = "signed out"
		cmd := a.unmountUser()
		return a, cmd

	case key.Matches(msg, a.keys.Upgrade):
		if state.View == nav.ViewUpgrade && a.session.Upgrade() {
			id, _ := a.session.Current()
			a.status = "upgraded to " + id.Tier.String()
		}

	case key.Matches(msg, a.keys.Toggle):
		if state.View == nav.ViewSettings {
			a.toggleNotification(a.cursor)
		}
	}
	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.searching = false
		a.input.Blur()
		a.viewport.Height = a.bodyHeight()
		return a, nil

	case tea.KeyEnter:
		a.searching = false
		a.input.Blur()
		a.viewport.Height = a.bodyHeight()
		a.query.Cancel()
		a.applyQuery(a.input.Value())
		return a, nil

	case tea.KeyTab:
		q := a.input.Value()
		if a.cfg.AISearch == nil || q == "" {
			return a, nil
		}
		a.aiQuery = q
		a.dispatch(filter.StartAI{})
		return a, tea.Batch(a.cfg.AISearch(q, a.posts.Value()), a.spinner.Tick)
	}

	prev := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if a.input.Value() != prev {
		cmd = tea.Batch(cmd, a.query.Input(a.input.Value()))
	}
	return a, cmd
}

func (a App) handleLoginKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		cmd := a.signIn()
		a.engine.ResumeAfterLogin()
		return a, cmd
	case "n", "esc":
		a.engine.DismissLogin()
	case "ctrl+c":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) applyQuery(q string) {
	if q == a.filters.Spec().Query {
		return
	}
	a.filters.Dispatch(filter.SetQuery{Query: q})
	a.recent.Update(func(r []string) []string { return filter.AddRecent(r, q) })
	a.refilter()
}

func (a *App) dispatch(act filter.Action) {
	a.filters.Dispatch(act)
	a.refilter()
}

// refilter reruns the pipeline over the current posts.
func (a *App) refilter() {
	posts := a.posts.Value()
	if a.cfg.HomeLocation != "" {
		posts = model.WithDistances(posts, a.cfg.HomeLocation)
	}
	visible := filter.Apply(posts, a.filters.Spec(), filter.Context{Now: a.now()})
	if a.pager.SetSource(visible) {
		a.cursor = 0
	}
	a.clampCursor()
}

// moveCursor moves within the current list. Reaching the last shown post
// asks the paginator for the next page.
func (a App) moveCursor(delta int) (App, tea.Cmd) {
	a.cursor += delta
	a.clampCursor()
	a.engine.SetScroll(a.cursor)

	cmds := []tea.Cmd{a.scroll.Observe(a.scrollLine())}
	if a.engine.State().View == nav.ViewHome && a.cursor == len(a.pager.Window().Items)-1 {
		if more := a.pager.LoadMore(); more != nil {
			cmds = append(cmds, more, a.spinner.Tick)
		}
	}
	return a, tea.Batch(cmds...)
}

func (a *App) clampCursor() {
	n := a.listLen()
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a App) listLen() int {
	switch a.engine.State().View {
	case nav.ViewHome:
		return len(a.pager.Window().Items)
	case nav.ViewSettings:
		return len(notificationFields)
	case nav.ViewForum:
		return len(a.threads())
	case nav.ViewBag:
		return len(a.bag())
	}
	return 0
}

// threads returns the forum threads in display order.
func (a App) threads() []model.ForumPost {
	if a.forum == nil {
		return nil
	}
	threads := slices.Clone(a.forum.Value())
	model.SortThreads(threads)
	return threads
}

func (a App) bag() []model.BagItem {
	if a.user == nil {
		return nil
	}
	return a.user.lists.Value().Bag
}

func (a *App) voteThread() {
	threads := a.threads()
	if a.cursor >= len(threads) {
		return
	}
	id := threads[a.cursor].ID
	a.forum.Update(func(th []model.ForumPost) []model.ForumPost { return model.Vote(th, id) })
	// The vote can reorder threads; keep the cursor on the voted one.
	for i, th := range a.threads() {
		if th.ID == id {
			a.cursor = i
		}
	}
}

func (a App) selected() (model.Post, bool) {
	items := a.pager.Window().Items
	if a.cursor < 0 || a.cursor >= len(items) {
		return model.Post{}, false
	}
	return items[a.cursor], true
}

func (a App) findPost(id string) (model.Post, bool) {
	for _, p := range a.posts.Value() {
		if p.ID == id {
			return p, true
		}
	}
	return model.Post{}, false
}

// currentAuthor is the author of the selected or open post.
func (a App) currentAuthor() string {
	state := a.engine.State()
	switch state.View {
	case nav.ViewHome:
		if p, ok := a.selected(); ok {
			return p.AuthorID
		}
	case nav.ViewPost:
		if p, ok := a.findPost(state.PostID); ok {
			return p.AuthorID
		}
	}
	return ""
}

// signIn signs in as the configured user and mounts their bridges.
func (a *App) signIn() tea.Cmd {
	user := a.cfg.User
	if user == "" {
		user = "guest"
	}
	tier := model.TierFree
	if acc, ok := model.FindAccount(a.accounts.Value(), user); ok {
		tier = acc.Tier
	}
	a.session.SignIn(user, tier)
	a.status = "signed in as " + user
	return a.mountUser()
}

// toggleLike likes or unlikes the selected or open post.
func (a *App) toggleLike() {
	id, ok := a.session.Current()
	if !ok {
		a.status = "sign in to like posts"
		return
	}
	target := a.targetPost()
	if target == "" {
		return
	}

	p, ok := a.findPost(target)
	if !ok {
		return
	}
	liked := !slices.Contains(p.LikedBy, id.ID)
	a.posts.Update(func(posts []model.Post) []model.Post {
		out := slices.Clone(posts)
		for i := range out {
			if out[i].ID != target {
				continue
			}
			likers := slices.Clone(out[i].LikedBy)
			j := slices.Index(likers, id.ID)
			switch {
			case liked && j < 0:
				likers = append(likers, id.ID)
			case !liked && j >= 0:
				likers = slices.Delete(likers, j, j+1)
			}
			out[i].LikedBy = likers
		}
		return out
	})
	a.recordLike(target, liked)
	a.refilter()
}

// targetPost is the selected post on home or in the bag, or the open post.
func (a App) targetPost() string {
	switch a.engine.State().View {
	case nav.ViewHome:
		if p, ok := a.selected(); ok {
			return p.ID
		}
		return ""
	case nav.ViewBag:
		if bag := a.bag(); a.cursor < len(bag) {
			return bag[a.cursor].PostID
		}
		return ""
	}
	return a.engine.State().PostID
}

var notificationFields = []string{"messages", "likes", "follows", "digest"}

func (a *App) toggleNotification(i int) {
	a.notify.Update(func(n model.NotificationSettings) model.NotificationSettings {
		switch i {
		case 0:
			n.Messages = !n.Messages
		case 1:
			n.Likes = !n.Likes
		case 2:
			n.Follows = !n.Follows
		case 3:
			n.Digest = !n.Digest
		}
		return n
	})
}

var sortCycle = []filter.SortKey{
	filter.SortNewest,
	filter.SortPopular,
	filter.SortPriceAsc,
	filter.SortPriceDesc,
	filter.SortDistanceAsc,
	filter.SortDistanceDesc,
}

func nextSort(cur filter.SortKey) filter.SortKey {
	i := slices.Index(sortCycle, cur)
	return sortCycle[(i+1)%len(sortCycle)]
}

// nextCategory cycles through categories, then back to "all" ("").
func nextCategory(categories []string, cur string) string {
	if cur == "" {
		if len(categories) == 0 {
			return ""
		}
		return categories[0]
	}
	i := slices.Index(categories, cur)
	if i < 0 || i == len(categories)-1 {
		return ""
	}
	return categories[i+1]
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Engine returns the navigation engine (for testing).
func (a App) Engine() *nav.Engine {
	return a.engine
}

// Visible returns the posts currently shown (for testing).
func (a App) Visible() []model.Post {
	return a.pager.Window().Items
}
