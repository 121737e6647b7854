package ui

import (
	"fmt"
	"strings"

	"github.com/abelbrown/hyperlocal/internal/model"
	"github.com/abelbrown/hyperlocal/internal/nav"
	"github.com/charmbracelet/lipgloss"
)

const (
	gridColumns    = 2
	gridCellHeight = 5 // three content lines plus border
)

var viewTitles = map[nav.View]string{
	nav.ViewHome:      "Nearby",
	nav.ViewPost:      "Post",
	nav.ViewAccount:   "Profile",
	nav.ViewForum:     "Forums",
	nav.ViewForumPost: "Thread",
	nav.ViewCreate:    "New post",
	nav.ViewEditPost:  "Edit post",
	nav.ViewAnalytics: "Analytics",
	nav.ViewActivity:  "Activity",
	nav.ViewBag:       "Bag",
	nav.ViewSettings:  "Settings",
	nav.ViewUpgrade:   "Upgrade",
	nav.ViewAdmin:     "Admin",
	nav.ViewPage:      "Page",
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.showDebug {
		return debugOverlay(a.cfg.Ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	var parts []string
	if a.scroll.HeaderVisible() {
		parts = append(parts, a.renderHeader())
	}
	if a.engine.State().View == nav.ViewHome {
		parts = append(parts, a.renderChips())
	}
	if a.searching {
		parts = append(parts, a.renderSearchBar())
	}
	if a.engine.LoginPrompt() {
		parts = append(parts, lipgloss.Place(a.width, a.bodyHeight(), lipgloss.Center, lipgloss.Center, a.renderLogin()))
	} else {
		parts = append(parts, a.viewport.View())
	}
	parts = append(parts, a.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// bodyHeight is what is left for the viewport after the fixed bars.
func (a App) bodyHeight() int {
	h := a.height - 1 // status bar
	if a.scroll.HeaderVisible() {
		h--
	}
	if a.engine.State().View == nav.ViewHome {
		h--
	}
	if a.searching {
		h--
	}
	return max(h, 1)
}

// scrollLine is the first body line of the cursor's item.
func (a App) scrollLine() int {
	if a.engine.State().Mode == nav.ModeGrid {
		return a.cursor / gridColumns * gridCellHeight
	}
	return a.cursor
}

func (a App) itemHeight() int {
	if a.engine.State().Mode == nav.ModeGrid {
		return gridCellHeight
	}
	return 1
}

// syncViewport re-renders the body and keeps the cursor's item in view.
func (a *App) syncViewport() {
	if !a.ready {
		return
	}
	a.viewport.Width = a.width
	a.viewport.Height = a.bodyHeight()
	a.viewport.SetContent(a.renderBody())

	line := a.scrollLine()
	switch {
	case line < a.viewport.YOffset:
		a.viewport.SetYOffset(line)
	case line+a.itemHeight() > a.viewport.YOffset+a.viewport.Height:
		a.viewport.SetYOffset(line + a.itemHeight() - a.viewport.Height)
	}
}

func (a App) renderHeader() string {
	state := a.engine.State()
	title := viewTitles[state.View]
	if title == "" {
		title = string(state.View)
	}
	who := "signed out"
	if id, ok := a.session.Current(); ok {
		who = fmt.Sprintf("%s (%s)", id.ID, id.Tier)
	}
	left := "hyperlocal · " + title
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(who)-2, 1)
	return Header.Width(a.width).Render(left + strings.Repeat(" ", gap) + who)
}

func (a App) renderChips() string {
	s := a.filters.Spec()
	var chips []string
	add := func(format string, args ...any) {
		chips = append(chips, FilterChip.Render(fmt.Sprintf(format, args...)))
	}
	if s.AIActive() {
		add("AI: %d", len(s.AIResults))
	} else if s.Query != "" {
		add("“%s”", s.Query)
	}
	if s.AISearching {
		add("%s AI searching", a.spinner.View())
	}
	if s.Type != "" {
		add("type: %s", s.Type)
	}
	if s.Category != "" {
		add("in %s", s.Category)
	}
	if s.MinPrice != nil || s.MaxPrice != nil {
		add("price: %s–%s", priceBound(s.MinPrice), priceBound(s.MaxPrice))
	}
	for _, t := range s.Tags {
		add("#%s", t)
	}
	if s.ExpiringSoon {
		add("expiring")
	}
	if s.ShowExpired {
		add("+expired")
	}
	if s.Recent {
		add("this week")
	}
	if s.Radius > 0 {
		add("≤ %gkm", s.Radius)
	}
	add("sort: %s", s.Sort)
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func priceBound(p *float64) string {
	if p == nil {
		return "any"
	}
	return fmt.Sprintf("%g", *p)
}

func (a App) renderSearchBar() string {
	line := a.input.View()
	if recent := a.recent.Value(); len(recent) > 0 && a.input.Value() == "" {
		line += Muted.Render("  recent: " + strings.Join(recent[:min(len(recent), 3)], ", "))
	}
	return FilterBar.Width(a.width).Render(line)
}

func (a App) renderLogin() string {
	return LoginPanel.Render(Title.Render("Sign in required") + "\n" +
		"You need to be signed in to open this screen.\n\n" +
		StatusBarKey.Render("y") + StatusBarText.Render(" sign in   ") +
		StatusBarKey.Render("esc") + StatusBarText.Render(" cancel"))
}

func (a App) renderStatusBar() string {
	state := a.engine.State()
	w := a.pager.Window()
	left := fmt.Sprintf("%s · %s", state.View, state.Mode)
	if state.View == nav.ViewHome {
		left += fmt.Sprintf(" · %d shown · page %d", len(w.Items), w.Page)
	}
	if d := a.engine.Depth(); d > 0 {
		left += fmt.Sprintf(" · back %d", d)
	}

	hints := StatusBarKey.Render("/") + StatusBarText.Render(":search ") +
		StatusBarKey.Render("esc") + StatusBarText.Render(":back ") +
		StatusBarKey.Render("H") + StatusBarText.Render(":home ") +
		StatusBarKey.Render("?") + StatusBarText.Render(":debug ") +
		StatusBarKey.Render("q") + StatusBarText.Render(":quit")
	if a.status != "" {
		hints = a.status
	}
	return StatusBar.Width(a.width).Render(left + "  " + hints)
}

func (a App) renderBody() string {
	state := a.engine.State()
	switch state.View {
	case nav.ViewHome:
		return a.renderHome()
	case nav.ViewPost:
		return a.renderPost(state.PostID)
	case nav.ViewAccount:
		return a.renderAccount(state.AccountRef)
	case nav.ViewAnalytics:
		return a.renderAnalytics(state.AccountRef)
	case nav.ViewSettings:
		return a.renderSettings()
	case nav.ViewUpgrade:
		return a.renderUpgrade()
	case nav.ViewForum:
		return a.renderForum()
	case nav.ViewBag:
		return a.renderBag()
	case nav.ViewActivity:
		return a.renderActivity()
	}
	return Title.Render(viewTitles[state.View]) + "\n" + Muted.Render("Nothing here yet.")
}

func (a App) renderHome() string {
	if a.loading {
		return a.spinner.View() + " Loading posts..."
	}
	w := a.pager.Window()
	if len(w.Items) == 0 {
		return Muted.Render("No posts match these filters. Press R to reset.")
	}

	var body string
	if a.engine.State().Mode == nav.ModeGrid {
		body = a.renderGrid(w.Items)
	} else {
		lines := make([]string, len(w.Items))
		for i, p := range w.Items {
			lines[i] = a.renderPostLine(p, i == a.cursor)
		}
		body = strings.Join(lines, "\n")
	}

	switch {
	case a.pager.Loading():
		body += "\n" + a.spinner.View() + " Loading more..."
	case w.HasMore:
		body += "\n" + Muted.Render("↓ more")
	default:
		body += "\n" + Muted.Render("end of results")
	}
	return body
}

func (a App) renderPostLine(p model.Post, selected bool) string {
	line := fmt.Sprintf("%-32s %8s  %s", truncateRunes(p.Title, 32), formatPrice(p), p.Location)
	if p.Distance != nil {
		line += fmt.Sprintf(" %.1fkm", *p.Distance)
	}
	if p.AIReason != "" {
		line += "  " + ReasonStyle.Render(truncateRunes(p.AIReason, 30))
	}
	switch {
	case selected:
		return SelectedItem.Width(a.width).Render(line)
	case p.Expired(a.now()):
		return ExpiredItem.Render(line)
	}
	return NormalItem.Render(line)
}

func (a App) renderGrid(posts []model.Post) string {
	cellWidth := max(a.width/gridColumns-4, 16)
	var rows []string
	for i := 0; i < len(posts); i += gridColumns {
		var cells []string
		for j := i; j < min(i+gridColumns, len(posts)); j++ {
			p := posts[j]
			style := GridCell
			if j == a.cursor {
				style = GridCellSelected
			}
			content := truncateRunes(p.Title, cellWidth) + "\n" +
				PriceStyle.Render(formatPrice(p)) + "\n" +
				Muted.Render(truncateRunes(fmt.Sprintf("%s · ♥ %d", p.Location, p.Likes()), cellWidth))
			cells = append(cells, style.Width(cellWidth).Render(content))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func formatPrice(p model.Post) string {
	if p.Price == 0 && p.SalePrice == nil {
		return "free"
	}
	if p.OnSale() {
		return fmt.Sprintf("$%.0f", p.EffectivePrice())
	}
	return fmt.Sprintf("$%.0f", p.Price)
}

func (a App) renderPost(id string) string {
	p, ok := a.findPost(id)
	if !ok {
		return Muted.Render("This post is no longer available.")
	}
	var b strings.Builder
	b.WriteString(Title.Render(p.Title) + "\n")
	price := PriceStyle.Render(formatPrice(p))
	if p.OnSale() {
		price += " " + SaleStyle.Render(fmt.Sprintf("$%.0f", p.Price))
	}
	fmt.Fprintf(&b, "%s  %s · %s\n\n", price, p.Type, p.Category)
	b.WriteString(p.Description + "\n\n")
	if len(p.Tags) > 0 {
		b.WriteString(Muted.Render("#"+strings.Join(p.Tags, " #")) + "\n")
	}
	fmt.Fprintf(&b, "%s · ♥ %d · posted %s\n", p.Location, p.Likes(), p.CreatedAt.Format("Jan 2"))
	if p.ExpiresAt != nil {
		label := "expires"
		if p.Expired(a.now()) {
			label = "expired"
		}
		fmt.Fprintf(&b, "%s %s\n", label, p.ExpiresAt.Format("Jan 2 15:04"))
	}
	if p.AIReason != "" {
		b.WriteString("\n" + ReasonStyle.Render(p.AIReason) + "\n")
	}
	b.WriteString("\n" + Muted.Render("a: author  l: like  b: bag"))
	return b.String()
}

func (a App) renderAccount(ref string) string {
	acc, ok := model.FindAccount(a.accounts.Value(), ref)
	if !ok {
		return Muted.Render("Unknown account " + ref)
	}
	posts := 0
	for _, p := range a.posts.Value() {
		if p.AuthorID == acc.ID {
			posts++
		}
	}
	return Title.Render(acc.Name) + "\n" +
		fmt.Sprintf("%s · %s\n%s\n\n", acc.Tier, acc.Location, acc.Bio) +
		fmt.Sprintf("%d posts · %d followers · %d profile views", posts, len(acc.Followers), acc.Views)
}

func (a App) renderAnalytics(ref string) string {
	acc, _ := model.FindAccount(a.accounts.Value(), ref)
	var posts, likes int
	for _, p := range a.posts.Value() {
		if p.AuthorID == ref {
			posts++
			likes += p.Likes()
		}
	}
	return Title.Render("Analytics") + "\n" +
		fmt.Sprintf("Profile views  %d\nFollowers      %d\nPosts          %d\nLikes          %d",
			acc.Views, len(acc.Followers), posts, likes)
}

func (a App) renderSettings() string {
	n := a.notify.Value()
	values := []bool{n.Messages, n.Likes, n.Follows, n.Digest}
	lines := []string{Title.Render("Notifications")}
	for i, name := range notificationFields {
		box := "[ ]"
		if values[i] {
			box = "[x]"
		}
		line := box + " " + name
		if i == a.cursor {
			line = SelectedItem.Render(line)
		} else {
			line = NormalItem.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", Muted.Render("space: toggle"))
	return strings.Join(lines, "\n")
}

func (a App) renderUpgrade() string {
	id, ok := a.session.Current()
	if !ok {
		return Title.Render("Upgrade") + "\n" + Muted.Render("Sign in to upgrade.")
	}
	msg := fmt.Sprintf("You are on %s.\nPlus lets you create posts; Pro adds analytics.\n\n", id.Tier)
	if id.Tier < model.TierPro {
		msg += StatusBarKey.Render("u") + StatusBarText.Render(" upgrade")
	}
	return Title.Render("Upgrade") + "\n" + msg
}

// listLine renders one row of a cursor-driven list.
func (a App) listLine(i int, text string) string {
	if i == a.cursor {
		return SelectedItem.Render(text)
	}
	return NormalItem.Render(text)
}

func (a App) renderForum() string {
	threads := a.threads()
	if len(threads) == 0 {
		return Title.Render("Forums") + "\n" + Muted.Render("No threads yet.")
	}
	var counts map[string]int
	if a.comments != nil {
		counts = model.CommentCounts(a.comments.Value())
	}
	lines := []string{Title.Render("Forums")}
	for i, th := range threads {
		pin := "  "
		if th.Pinned {
			pin = "📌"
		}
		text := fmt.Sprintf("%s %-3d %s", pin, th.Votes, truncateRunes(th.Title, max(a.width-24, 20)))
		lines = append(lines, a.listLine(i, text)+Muted.Render(fmt.Sprintf("  %d replies", counts[th.ID])))
	}
	lines = append(lines, "", Muted.Render("l: vote"))
	return strings.Join(lines, "\n")
}

func (a App) renderBag() string {
	bag := a.bag()
	if len(bag) == 0 {
		return Title.Render("Bag") + "\n" + Muted.Render("Your bag is empty. Press b on a post to add it.")
	}
	lines := []string{Title.Render("Bag")}
	var total float64
	for i, it := range bag {
		title, price := it.PostID, "?"
		if p, ok := a.findPost(it.PostID); ok {
			title, price = p.Title, formatPrice(p)
			total += p.EffectivePrice() * float64(it.Quantity)
		}
		lines = append(lines, a.listLine(i, fmt.Sprintf("%dx %s  %s", it.Quantity, title, price)))
	}
	lines = append(lines, "", fmt.Sprintf("Total $%.0f", total), Muted.Render("enter: open  b: remove"))
	return strings.Join(lines, "\n")
}

func (a App) renderActivity() string {
	if a.user == nil {
		return Title.Render("Activity") + "\n" + Muted.Render("Sign in to see your activity.")
	}
	act := a.user.activity.Value()
	lists := a.user.lists.Value()
	lines := []string{Title.Render("Activity")}
	for _, n := range act.Notifications {
		style := NormalItem
		if !n.Read {
			style = SelectedItem
		}
		lines = append(lines, style.Render(formatAge(a.now().Sub(n.CreatedAt))+"  "+n.Text))
	}
	lines = append(lines, "", fmt.Sprintf("%d liked · %d following · %d in bag", len(act.Liked), len(act.Following), len(lists.Bag)))
	if len(lists.ViewHistory) > 0 {
		lines = append(lines, "", Muted.Render("Recently viewed"))
		for _, id := range lists.ViewHistory[:min(5, len(lists.ViewHistory))] {
			if p, ok := a.findPost(id); ok {
				lines = append(lines, "  "+p.Title)
			}
		}
	}
	return strings.Join(lines, "\n")
}
