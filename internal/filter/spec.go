// Package filter narrows and orders the candidate post list.
// Everything here is pure: Apply never modifies its input and the same
// Spec over the same candidates always yields the same order.
package filter

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/abelbrown/hyperlocal/internal/model"
)

// SortKey selects the comparator used by Sort.
type SortKey string

const (
	SortNewest       SortKey = "date"
	SortPopular      SortKey = "popular"
	SortPriceAsc     SortKey = "price-asc"
	SortPriceDesc    SortKey = "price-desc"
	SortDistanceAsc  SortKey = "distance-asc"
	SortDistanceDesc SortKey = "distance-desc"
	SortRelevance    SortKey = "relevance"
)

// AIResult is one post picked by AI search, with the engine's reasoning.
type AIResult struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Spec is the set of independent filter dimensions. The zero value of every
// field is "inactive" except Sort, whose default is SortNewest.
//
// AISearching and AIResults are session state and are never persisted.
type Spec struct {
	Query        string         `json:"searchQuery"`
	Type         model.PostType `json:"type"`
	Category     string         `json:"category"`
	MinPrice     *float64       `json:"minPrice,omitempty"`
	MaxPrice     *float64       `json:"maxPrice,omitempty"`
	Tags         []string       `json:"tags"`
	ExpiringSoon bool           `json:"expiringSoon"`
	ShowExpired  bool           `json:"showExpired"`
	Recent       bool           `json:"recent"`
	Radius       float64        `json:"radius"` // km; 0 disables
	Sort         SortKey        `json:"sortBy"`

	AISearching bool       `json:"-"`
	AIResults   []AIResult `json:"-"` // nil until an AI search completes
}

// Default is the spec with nothing active.
func Default() Spec {
	return Spec{Tags: []string{}, Sort: SortNewest}
}

// Active reports whether any dimension differs from Default.
func (s Spec) Active() bool {
	return strings.TrimSpace(s.Query) != "" ||
		s.Type != "" ||
		s.Category != "" ||
		s.MinPrice != nil ||
		s.MaxPrice != nil ||
		len(s.Tags) > 0 ||
		s.ExpiringSoon ||
		s.ShowExpired ||
		s.Recent ||
		s.Radius > 0 ||
		(s.Sort != "" && s.Sort != SortNewest) ||
		s.AIActive()
}

// AIActive reports whether an AI result set is restricting the candidates.
func (s Spec) AIActive() bool {
	return s.AIResults != nil
}

// Clone returns a deep copy, so snapshots never share backing arrays with
// later reducer output.
func (s Spec) Clone() Spec {
	c := s
	if s.Tags != nil {
		c.Tags = slices.Clone(s.Tags)
	}
	if s.AIResults != nil {
		c.AIResults = slices.Clone(s.AIResults)
	}
	if s.MinPrice != nil {
		v := *s.MinPrice
		c.MinPrice = &v
	}
	if s.MaxPrice != nil {
		v := *s.MaxPrice
		c.MaxPrice = &v
	}
	return c
}

// DecodePersisted reads the stored shape over Default. Session-only fields
// stay at their zero values.
func DecodePersisted(def Spec, raw []byte) (Spec, error) {
	s := Default()
	if err := json.Unmarshal(raw, &s); err != nil {
		return def, err
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.Sort == "" {
		s.Sort = SortNewest
	}
	return s, nil
}
