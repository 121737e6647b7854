package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Back      key.Binding
	Home      key.Binding
	Search    key.Binding
	Author    key.Binding
	Create    key.Binding
	Analytics key.Binding
	Bag       key.Binding
	Activity  key.Binding
	Settings  key.Binding
	Forums    key.Binding
	Mode      key.Binding
	Sort      key.Binding
	Category  key.Binding
	Expired   key.Binding
	Expiring  key.Binding
	Recent    key.Binding
	Reset     key.Binding
	Like      key.Binding
	AddToBag  key.Binding
	SignIn    key.Binding
	SignOut   key.Binding
	Upgrade   key.Binding
	Toggle    key.Binding
	Debug     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Home:      key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "home")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Author:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "author")),
		Create:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new post")),
		Analytics: key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "analytics")),
		Bag:       key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "bag")),
		Activity:  key.NewBinding(key.WithKeys("V"), key.WithHelp("V", "activity")),
		Settings:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "settings")),
		Forums:    key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "forums")),
		Mode:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "grid/list")),
		Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Category:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
		Expired:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "expired")),
		Expiring:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expiring")),
		Recent:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recent")),
		Reset:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset filters")),
		Like:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like/vote")),
		AddToBag:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bag item")),
		SignIn:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "sign in")),
		SignOut:   key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "sign out")),
		Upgrade:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upgrade")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Debug:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "debug")),
	}
}
