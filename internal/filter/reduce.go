package filter

import (
	"slices"
	"strings"

	"github.com/abelbrown/hyperlocal/internal/model"
)

// Action is a change to a Spec. The only way the application produces
// Spec values is by reducing actions, so Apply does not validate its input.
type Action interface {
	apply(Spec) Spec
}

// Reduce returns s with a applied. s itself is not modified.
func Reduce(s Spec, a Action) Spec {
	return a.apply(s.Clone())
}

type (
	SetQuery     struct{ Query string }
	SetType      struct{ Type model.PostType }
	SetCategory  struct{ Category string }
	SetPrice     struct{ Min, Max *float64 }
	ToggleTag    struct{ Tag string }
	SetTags      struct{ Tags []string }
	SetExpiring  struct{ On bool }
	SetExpired   struct{ On bool }
	SetRecent    struct{ On bool }
	SetRadius    struct{ Km float64 }
	SetSort      struct{ Sort SortKey }
	StartAI      struct{}
	SetAIResults struct{ Results []AIResult }
	ClearAI      struct{}
	Reset        struct{}
	// Restore replaces the whole spec, as when navigating back.
	Restore struct{ Spec Spec }
)

func (a SetQuery) apply(s Spec) Spec    { s.Query = a.Query; return s }
func (a SetType) apply(s Spec) Spec     { s.Type = a.Type; return s }
func (a SetCategory) apply(s Spec) Spec { s.Category = a.Category; return s }
func (a SetExpiring) apply(s Spec) Spec { s.ExpiringSoon = a.On; return s }
func (a SetExpired) apply(s Spec) Spec  { s.ShowExpired = a.On; return s }
func (a SetRecent) apply(s Spec) Spec   { s.Recent = a.On; return s }

func (a SetPrice) apply(s Spec) Spec {
	s.MinPrice, s.MaxPrice = a.Min, a.Max
	if s.MinPrice != nil && s.MaxPrice != nil && *s.MinPrice > *s.MaxPrice {
		s.MinPrice, s.MaxPrice = s.MaxPrice, s.MinPrice
	}
	return s
}

func (a ToggleTag) apply(s Spec) Spec {
	tag := strings.ToLower(strings.TrimSpace(a.Tag))
	if tag == "" {
		return s
	}
	if i := slices.Index(s.Tags, tag); i >= 0 {
		s.Tags = slices.Delete(s.Tags, i, i+1)
		return s
	}
	s.Tags = append(s.Tags, tag)
	return s
}

func (a SetTags) apply(s Spec) Spec {
	s.Tags = make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slices.Contains(s.Tags, t) {
			s.Tags = append(s.Tags, t)
		}
	}
	return s
}

func (a SetRadius) apply(s Spec) Spec {
	s.Radius = max(a.Km, 0)
	return s
}

func (a SetSort) apply(s Spec) Spec {
	if a.Sort == "" {
		a.Sort = SortNewest
	}
	s.Sort = a.Sort
	return s
}

func (StartAI) apply(s Spec) Spec {
	s.AISearching = true
	return s
}

func (a SetAIResults) apply(s Spec) Spec {
	s.AISearching = false
	s.AIResults = slices.Clone(a.Results)
	if s.AIResults == nil {
		s.AIResults = []AIResult{}
	}
	s.Sort = SortRelevance
	return s
}

func (ClearAI) apply(s Spec) Spec {
	s.AISearching = false
	s.AIResults = nil
	if s.Sort == SortRelevance {
		s.Sort = SortNewest
	}
	return s
}

func (Reset) apply(Spec) Spec { return Default() }

func (a Restore) apply(Spec) Spec { return a.Spec.Clone() }

// MaxRecentSearches bounds the recent-search list.
const MaxRecentSearches = 10

// AddRecent puts q at the front of recent, dropping duplicates and
// anything past MaxRecentSearches. Blank queries are ignored.
func AddRecent(recent []string, q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return recent
	}
	out := make([]string, 0, min(len(recent)+1, MaxRecentSearches))
	out = append(out, q)
	for _, r := range recent {
		if len(out) == MaxRecentSearches {
			break
		}
		if !strings.EqualFold(r, q) {
			out = append(out, r)
		}
	}
	return out
}
