// Package seed generates mock marketplace data for development and the
// demo UI. Output is deterministic for a given seed and clock.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/abelbrown/hyperlocal/internal/model"
	"github.com/abelbrown/hyperlocal/internal/store"
	"github.com/google/uuid"
)

// Dataset is one generated world.
type Dataset struct {
	Accounts   []model.Account
	Posts      []model.Post
	ForumPosts []model.ForumPost
	Comments   []model.Comment
}

// Options sizes a Dataset.
type Options struct {
	Seed     uint64
	Now      time.Time
	Accounts int
	Posts    int
	Forum    int
}

// DefaultOptions is a small neighbourhood.
func DefaultOptions() Options {
	return Options{Seed: 1, Now: time.Now(), Accounts: 12, Posts: 40, Forum: 10}
}

var (
	names      = []string{"Ada", "Bea", "Cal", "Dev", "Eli", "Fay", "Gus", "Hal", "Ivy", "Jo", "Kai", "Lou"}
	places     = model.Neighbourhoods
	categories = []string{"furniture", "electronics", "garden", "sports", "kids", "services", "events"}
	tags       = []string{"vintage", "new", "wood", "bike", "outdoor", "repair", "free", "weekend", "handmade", "local"}
	nouns      = []string{"lamp", "bicycle", "sofa", "drill", "stroller", "guitar", "desk", "kayak", "tent", "blender"}
	adjectives = []string{"Sturdy", "Cozy", "Compact", "Classic", "Lightly used", "Bright", "Quiet"}
	replies    = []string{"Try the shop by the station.", "I can help this weekend.", "Same question here.", "Sent you a message."}
	postTypes  = []model.PostType{model.PostProduct, model.PostProduct, model.PostService, model.PostEvent, model.PostRequest}
)

// Generate builds a Dataset.
func Generate(opts Options) Dataset {
	r := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	ids := rand.NewChaCha8(seedBytes(opts.Seed))
	newID := func() string {
		id, err := uuid.NewRandomFromReader(ids)
		if err != nil {
			panic(err) // ChaCha8 reads never fail
		}
		return id.String()
	}
	pick := func(s []string) string { return s[r.IntN(len(s))] }

	var ds Dataset
	for i := 0; i < opts.Accounts; i++ {
		ds.Accounts = append(ds.Accounts, model.Account{
			ID:        newID(),
			Name:      names[i%len(names)],
			Bio:       fmt.Sprintf("Neighbour from %s", pick(places)),
			Location:  pick(places),
			Tier:      model.Tier(r.IntN(3)),
			Views:     r.IntN(200),
			Followers: []string{},
			CreatedAt: opts.Now.Add(-time.Duration(r.IntN(365*24)) * time.Hour),
		})
	}
	author := func() string {
		if len(ds.Accounts) == 0 {
			return ""
		}
		return ds.Accounts[r.IntN(len(ds.Accounts))].ID
	}

	for i := 0; i < opts.Posts; i++ {
		noun := pick(nouns)
		p := model.DefaultPost()
		p.ID = newID()
		p.AuthorID = author()
		p.Type = postTypes[r.IntN(len(postTypes))]
		p.Title = fmt.Sprintf("%s %s", pick(adjectives), noun)
		p.Description = fmt.Sprintf("A %s in good shape, pick up in %s.", noun, pick(places))
		p.Category = pick(categories)
		p.Tags = uniqueTags(r)
		p.Price = float64(5 + r.IntN(300))
		if r.IntN(4) == 0 {
			p.SalePrice = model.Price(p.Price * 0.8)
		}
		p.Location = pick(places)
		p.CreatedAt = opts.Now.Add(-time.Duration(r.IntN(14*24)) * time.Hour)
		if r.IntN(3) == 0 {
			exp := opts.Now.Add(time.Duration(r.IntN(10*24)-48) * time.Hour)
			p.ExpiresAt = &exp
		}
		for _, a := range ds.Accounts {
			if r.IntN(5) == 0 {
				p.LikedBy = append(p.LikedBy, a.ID)
			}
		}
		ds.Posts = append(ds.Posts, p)
	}

	for i := 0; i < opts.Forum; i++ {
		ds.ForumPosts = append(ds.ForumPosts, model.ForumPost{
			ID:        newID(),
			AuthorID:  author(),
			Title:     fmt.Sprintf("Anyone know a good %s repair in %s?", pick(nouns), pick(places)),
			Body:      "Asking for a friend.",
			Category:  pick(categories),
			Votes:     r.IntN(50),
			Pinned:    i == 0,
			CreatedAt: opts.Now.Add(-time.Duration(r.IntN(30*24)) * time.Hour),
		})
	}

	for _, th := range ds.ForumPosts {
		for range r.IntN(4) {
			ds.Comments = append(ds.Comments, model.Comment{
				ID:        newID(),
				PostID:    th.ID,
				AuthorID:  author(),
				Body:      pick(replies),
				CreatedAt: th.CreatedAt.Add(time.Duration(1+r.IntN(48)) * time.Hour),
			})
		}
	}
	return ds
}

func uniqueTags(r *rand.Rand) []string {
	n := r.IntN(3)
	out := []string{}
	for _, i := range r.Perm(len(tags))[:n] {
		out = append(out, tags[i])
	}
	return out
}

func seedBytes(seed uint64) [32]byte {
	var b [32]byte
	for i := range 8 {
		b[i] = byte(seed >> (8 * i))
	}
	return b
}

// Writer is the strict side of store.Adapter.
type Writer interface {
	SetE(ctx context.Context, key string, value any) error
}

// Write stores ds under the shared collection keys.
func Write(ctx context.Context, w Writer, ds Dataset) error {
	for _, kv := range []struct {
		key string
		v   any
	}{
		{store.KeyAccounts, ds.Accounts},
		{store.KeyPosts, ds.Posts},
		{store.KeyForumPosts, ds.ForumPosts},
		{store.KeyForumComments, ds.Comments},
	} {
		if err := w.SetE(ctx, kv.key, kv.v); err != nil {
			return fmt.Errorf("seed %s: %w", kv.key, err)
		}
	}
	return nil
}
