package ui

import (
	"context"
	"time"

	"github.com/abelbrown/hyperlocal/internal/model"
	"github.com/abelbrown/hyperlocal/internal/otel"
	"github.com/abelbrown/hyperlocal/internal/persist"
	"github.com/abelbrown/hyperlocal/internal/store"
	tea "github.com/charmbracelet/bubbletea"
)

// UserDataLoaded is sent when the per-user bridges of ID have loaded.
type UserDataLoaded struct {
	ID string
}

// userData is the durable state scoped to one signed-in identity.
type userData struct {
	id       string
	activity *persist.Debounced[model.ActivityBundle]
	lists    *persist.Debounced[model.UserLists]
}

func newUserData(d persist.Durable, id string, window time.Duration, events *otel.Logger) *userData {
	return &userData{
		id: id,
		activity: persist.NewDebounced(d, store.UserKey(store.KeyActivity, id), model.DefaultActivity(), window,
			persist.WithDecoder(model.MergeActivity),
			persist.WithEvents[model.ActivityBundle](events),
		),
		lists: persist.NewDebounced(d, store.UserKey(store.KeyLists, id), model.DefaultUserLists(), window,
			persist.WithDecoder(model.MergeUserLists),
			persist.WithEvents[model.UserLists](events),
		),
	}
}

func (u *userData) load(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		u.activity.Load(ctx)
		u.lists.Load(ctx)
		return UserDataLoaded{ID: u.id}
	}
}

// close flushes pending writes. It blocks on the durable store, so the
// App runs it from a command.
func (u *userData) close() {
	u.activity.Close()
	u.lists.Close()
}

// mountUser switches the per-user bridges to the signed-in identity.
func (a *App) mountUser() tea.Cmd {
	id, ok := a.session.Current()
	if a.user != nil && ok && a.user.id == id.ID {
		return nil
	}
	release := a.unmountUser()
	if !ok || a.cfg.Durable == nil {
		return release
	}
	a.user = newUserData(a.cfg.Durable, id.ID, a.cfg.BridgeDebounce, a.events)
	return tea.Batch(release, a.user.load(a.ctx))
}

func (a *App) unmountUser() tea.Cmd {
	old := a.user
	if old == nil {
		return nil
	}
	a.user = nil
	return func() tea.Msg {
		old.close()
		return nil
	}
}

// Close flushes the per-user bridges. The shared bridges belong to the
// caller.
func (a App) Close() {
	if a.user != nil {
		a.user.close()
	}
}

// toggleBag adds the selected or open post to the bag, or removes it.
func (a *App) toggleBag() {
	if a.user == nil {
		a.status = "sign in to use the bag"
		return
	}
	target := a.targetPost()
	if target == "" {
		return
	}
	now := a.now()
	in := !a.user.lists.Value().InBag(target)
	a.user.lists.Update(func(l model.UserLists) model.UserLists {
		return l.SetInBag(target, in, now)
	})
	if in {
		a.status = "added to bag"
	} else {
		a.status = "removed from bag"
	}
}

// recordView notes an opened post in the signed-in user's view history.
func (a *App) recordView(postID string) {
	if a.user == nil || postID == "" {
		return
	}
	a.user.lists.Update(func(l model.UserLists) model.UserLists {
		return l.RecordView(postID)
	})
}

// recordLike mirrors a like toggle into the activity bundle.
func (a *App) recordLike(postID string, liked bool) {
	if a.user == nil {
		return
	}
	a.user.activity.Update(func(b model.ActivityBundle) model.ActivityBundle {
		return b.SetLiked(postID, liked)
	})
}
