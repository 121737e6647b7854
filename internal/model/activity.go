package model

import (
	"encoding/json"
	"slices"
	"time"
)

// Notification is one entry of a user's activity feed.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActivityBundle is everything the activity screen shows for one user.
type ActivityBundle struct {
	Notifications []Notification `json:"notifications"`
	Liked         []string       `json:"liked"`
	Following     []string       `json:"following"`
}

// DefaultActivity is an empty bundle.
func DefaultActivity() ActivityBundle {
	return ActivityBundle{
		Notifications: []Notification{},
		Liked:         []string{},
		Following:     []string{},
	}
}

// MergeActivity decodes a stored bundle, keeping defaults for absent fields.
func MergeActivity(def ActivityBundle, raw []byte) (ActivityBundle, error) {
	v := DefaultActivity()
	if err := json.Unmarshal(raw, &v); err != nil {
		return def, err
	}
	if v.Notifications == nil {
		v.Notifications = []Notification{}
	}
	if v.Liked == nil {
		v.Liked = []string{}
	}
	if v.Following == nil {
		v.Following = []string{}
	}
	return v, nil
}

// SetLiked returns b with postID added to or removed from Liked.
func (b ActivityBundle) SetLiked(postID string, liked bool) ActivityBundle {
	i := slices.Index(b.Liked, postID)
	switch {
	case liked && i < 0:
		b.Liked = append(slices.Clone(b.Liked), postID)
	case !liked && i >= 0:
		b.Liked = slices.Delete(slices.Clone(b.Liked), i, i+1)
	}
	return b
}

// BagItem is a post saved to a user's bag.
type BagItem struct {
	PostID   string    `json:"postId"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

// UserLists holds the per-user bag, named lists and view history.
type UserLists struct {
	Bag         []BagItem           `json:"bag"`
	Lists       map[string][]string `json:"lists"`
	ViewHistory []string            `json:"viewHistory"`
}

// DefaultUserLists is empty but never nil.
func DefaultUserLists() UserLists {
	return UserLists{Bag: []BagItem{}, Lists: map[string][]string{}, ViewHistory: []string{}}
}

// MergeUserLists decodes stored lists over DefaultUserLists.
func MergeUserLists(def UserLists, raw []byte) (UserLists, error) {
	v := DefaultUserLists()
	if err := json.Unmarshal(raw, &v); err != nil {
		return def, err
	}
	if v.Bag == nil {
		v.Bag = []BagItem{}
	}
	if v.Lists == nil {
		v.Lists = map[string][]string{}
	}
	if v.ViewHistory == nil {
		v.ViewHistory = []string{}
	}
	return v, nil
}

// InBag reports whether postID is in the bag.
func (l UserLists) InBag(postID string) bool {
	return slices.ContainsFunc(l.Bag, func(it BagItem) bool { return it.PostID == postID })
}

// SetInBag returns lists with postID in the bag when in is true and
// without it otherwise. Adding a post already in the bag changes nothing.
func (l UserLists) SetInBag(postID string, in bool, now time.Time) UserLists {
	i := slices.IndexFunc(l.Bag, func(it BagItem) bool { return it.PostID == postID })
	switch {
	case in && i < 0:
		l.Bag = append(slices.Clone(l.Bag), BagItem{PostID: postID, Quantity: 1, AddedAt: now})
	case !in && i >= 0:
		l.Bag = slices.Delete(slices.Clone(l.Bag), i, i+1)
	}
	return l
}

// MaxViewHistory bounds UserLists.ViewHistory.
const MaxViewHistory = 50

// RecordView returns lists with postID moved to the front of the view
// history.
func (l UserLists) RecordView(postID string) UserLists {
	hist := make([]string, 0, len(l.ViewHistory)+1)
	hist = append(hist, postID)
	for _, id := range l.ViewHistory {
		if id != postID && len(hist) < MaxViewHistory {
			hist = append(hist, id)
		}
	}
	l.ViewHistory = hist
	return l
}

// NotificationSettings are the per-device notification toggles.
type NotificationSettings struct {
	Messages bool `json:"messages"`
	Likes    bool `json:"likes"`
	Follows  bool `json:"follows"`
	Digest   bool `json:"digest"`
}

// DefaultNotificationSettings enables everything but the digest.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Messages: true, Likes: true, Follows: true}
}

// DefaultCategories seeds the category picker.
var DefaultCategories = []string{"furniture", "electronics", "garden", "sports", "kids", "services", "events"}
