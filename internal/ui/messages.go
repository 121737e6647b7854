// Package ui provides the Bubble Tea TUI for the marketplace.
package ui

import (
	"github.com/abelbrown/hyperlocal/internal/filter"
	"github.com/abelbrown/hyperlocal/internal/model"
)

// PostsLoaded is sent when the posts bridge has read the durable store.
type PostsLoaded struct {
	Posts []model.Post
}

// AccountsLoaded is sent when the accounts bridge has read the durable store.
type AccountsLoaded struct {
	Accounts []model.Account
}

// ForumLoaded is sent when the forum bridges have read the durable store.
type ForumLoaded struct{}

// AISearchDone carries the result of an AI search for Query.
type AISearchDone struct {
	Query   string
	Results []filter.AIResult
	Err     error
}
