package filter

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/abelbrown/hyperlocal/internal/model"
)

const (
	// ExpiringWindow is how far ahead "expiring soon" looks.
	ExpiringWindow = 72 * time.Hour
	// RecentWindow is how far back "recent" looks.
	RecentWindow = 7 * 24 * time.Hour
)

// Context carries what the stages need besides the spec.
type Context struct {
	Now time.Time
}

// Apply runs the predicate stage, the AI-annotation stage and the sort, in
// that order, and returns a new slice.
func Apply(posts []model.Post, s Spec, ctx Context) []model.Post {
	if ctx.Now.IsZero() {
		ctx.Now = time.Now()
	}
	out := Match(posts, s, ctx)
	if s.AIActive() {
		out = Annotate(out, s.AIResults)
	}
	Sort(out, s)
	return out
}

// Match keeps the posts satisfying every active dimension of s. While AI
// results are active the free-text query is not applied here.
func Match(posts []model.Post, s Spec, ctx Context) []model.Post {
	query := strings.ToLower(strings.TrimSpace(s.Query))
	if s.AIActive() {
		query = ""
	}

	var tags map[string]bool
	if len(s.Tags) > 0 {
		tags = make(map[string]bool, len(s.Tags))
		for _, t := range s.Tags {
			tags[strings.ToLower(t)] = true
		}
	}

	result := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if query != "" && !strings.Contains(p.SearchText(), query) {
			continue
		}
		if s.Type != "" && p.Type != s.Type {
			continue
		}
		if s.Category != "" && p.Category != s.Category {
			continue
		}
		price := p.EffectivePrice()
		if s.MinPrice != nil && price < *s.MinPrice {
			continue
		}
		if s.MaxPrice != nil && price > *s.MaxPrice {
			continue
		}
		if tags != nil && !anyTag(p.Tags, tags) {
			continue
		}
		if !s.ShowExpired && p.Expired(ctx.Now) {
			continue
		}
		if s.ExpiringSoon && !expiringSoon(p, ctx.Now) {
			continue
		}
		if s.Recent && ctx.Now.Sub(p.CreatedAt) > RecentWindow {
			continue
		}
		if s.Radius > 0 && (p.Distance == nil || *p.Distance > s.Radius) {
			continue
		}
		result = append(result, p)
	}
	return result
}

func anyTag(have []string, want map[string]bool) bool {
	for _, t := range have {
		if want[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

func expiringSoon(p model.Post, now time.Time) bool {
	if p.ExpiresAt == nil {
		return false
	}
	return p.ExpiresAt.After(now) && !p.ExpiresAt.After(now.Add(ExpiringWindow))
}

// Annotate restricts posts to the AI result set and copies each result's
// reasoning onto its post. Order follows the AI results.
func Annotate(posts []model.Post, results []AIResult) []model.Post {
	byID := make(map[string]model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	out := make([]model.Post, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		p, ok := byID[r.ID]
		if !ok || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		p.AIReason = r.Reason
		out = append(out, p)
	}
	return out
}

// Sort orders posts in place by s.Sort. Every comparator ends in an ID
// tiebreak so the order is total.
func Sort(posts []model.Post, s Spec) {
	switch s.Sort {
	case SortRelevance:
		if s.AIActive() {
			rank := make(map[string]int, len(s.AIResults))
			for i, r := range s.AIResults {
				if _, ok := rank[r.ID]; !ok {
					rank[r.ID] = i
				}
			}
			slices.SortStableFunc(posts, func(a, b model.Post) int {
				return cmp.Compare(rank[a.ID], rank[b.ID])
			})
			return
		}
		slices.SortFunc(posts, byNewest)
	case SortPopular:
		slices.SortFunc(posts, func(a, b model.Post) int {
			if c := cmp.Compare(b.Likes(), a.Likes()); c != 0 {
				return c
			}
			return byNewest(a, b)
		})
	case SortPriceAsc:
		slices.SortFunc(posts, func(a, b model.Post) int {
			if c := cmp.Compare(a.EffectivePrice(), b.EffectivePrice()); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	case SortPriceDesc:
		slices.SortFunc(posts, func(a, b model.Post) int {
			if c := cmp.Compare(b.EffectivePrice(), a.EffectivePrice()); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	case SortDistanceAsc:
		slices.SortFunc(posts, byDistance(false))
	case SortDistanceDesc:
		slices.SortFunc(posts, byDistance(true))
	default:
		slices.SortFunc(posts, byNewest)
	}
}

func byNewest(a, b model.Post) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// byDistance sorts posts without a distance last in both directions.
func byDistance(desc bool) func(a, b model.Post) int {
	return func(a, b model.Post) int {
		switch {
		case a.Distance == nil && b.Distance == nil:
			return cmp.Compare(a.ID, b.ID)
		case a.Distance == nil:
			return 1
		case b.Distance == nil:
			return -1
		}
		c := cmp.Compare(*a.Distance, *b.Distance)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	}
}
