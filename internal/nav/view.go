// Package nav is the navigation engine: what is on screen, the history of
// how the user got there, and which screens need a signed-in identity.
package nav

import "github.com/abelbrown/hyperlocal/internal/model"

// View names a screen.
type View string

const (
	ViewHome      View = "home"
	ViewPost      View = "post-detail"
	ViewAccount   View = "account"
	ViewForum     View = "forums"
	ViewForumPost View = "forum-post"
	ViewCreate    View = "create-post"
	ViewEditPost  View = "edit-post"
	ViewAnalytics View = "analytics"
	ViewActivity  View = "activity"
	ViewBag       View = "bag"
	ViewSettings  View = "settings"
	ViewUpgrade   View = "upgrade"
	ViewAdmin     View = "admin"
	ViewPage      View = "page" // editable static page, keyed by PageKey
)

// DefaultView is where the app starts and where GoHome lands.
const DefaultView = ViewHome

// Mode is how a list view lays out its items.
type Mode string

const (
	ModeGrid Mode = "grid"
	ModeList Mode = "list"
)

// DefaultMode is the initial Mode.
const DefaultMode = ModeGrid

// DefaultProtected are the views that need a signed-in identity.
var DefaultProtected = []View{
	ViewCreate,
	ViewEditPost,
	ViewAnalytics,
	ViewActivity,
	ViewBag,
	ViewSettings,
	ViewAdmin,
}

// Refs are the entity references a view can be showing. Only the one that
// belongs to the current view is meaningful; the rest are empty.
type Refs struct {
	PostID      string
	AccountRef  string
	ForumPostID string
	PageKey     string
}

// State is what is on screen.
type State struct {
	View View
	Mode Mode
	Refs
}

// Params are the optional arguments of NavigateTo. An empty Mode keeps the
// current one; every ref not supplied is cleared.
type Params struct {
	Mode Mode
	Refs
}

// Identity is the signed-in user as far as navigation cares.
type Identity struct {
	ID   string
	Tier model.Tier
}

// Session answers who, if anyone, is signed in.
type Session interface {
	Current() (Identity, bool)
}

// SessionFunc adapts a function to Session.
type SessionFunc func() (Identity, bool)

func (f SessionFunc) Current() (Identity, bool) { return f() }

// Tier requirements.
const (
	CreateTier    = model.TierPlus
	AnalyticsTier = model.TierPro
)
