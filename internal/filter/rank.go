package filter

import (
	"cmp"
	"slices"
	"strings"

	"github.com/abelbrown/hyperlocal/internal/model"
)

// Rank is the offline ranker behind AI search. It scores posts by the
// query words they contain, a title hit counting double, and returns at
// most limit picks (all when limit <= 0) best first, each with the words
// that matched as its reason.
func Rank(query string, posts []model.Post, limit int) []AIResult {
	words := uniqueWords(query)
	if len(words) == 0 {
		return []AIResult{}
	}

	type scored struct {
		post    model.Post
		score   int
		matched []string
	}
	var hits []scored
	for _, p := range posts {
		text, title := p.SearchText(), strings.ToLower(p.Title)
		var h scored
		for _, w := range words {
			if !strings.Contains(text, w) {
				continue
			}
			h.score++
			if strings.Contains(title, w) {
				h.score++
			}
			h.matched = append(h.matched, w)
		}
		if h.score > 0 {
			h.post = p
			hits = append(hits, h)
		}
	}

	slices.SortFunc(hits, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.post.Likes(), a.post.Likes()); c != 0 {
			return c
		}
		return cmp.Compare(a.post.ID, b.post.ID)
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]AIResult, len(hits))
	for i, h := range hits {
		out[i] = AIResult{ID: h.post.ID, Reason: "matches " + strings.Join(h.matched, ", ")}
	}
	return out
}

func uniqueWords(q string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(q)) {
		if !slices.Contains(words, w) {
			words = append(words, w)
		}
	}
	return words
}
