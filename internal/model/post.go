// Package model defines the records hyperlocal keeps in the durable store.
//
// Stored shapes carry no version field. Every shape has a Default… value
// and a Merge… decoder that lays a stored record over that default field by
// field, so records written by an older release load with sane values for
// fields they never had.
package model

import (
	"strings"
	"time"
)

// PostType is the kind of listing.
type PostType string

const (
	PostProduct PostType = "product"
	PostService PostType = "service"
	PostEvent   PostType = "event"
	PostRequest PostType = "request"
)

// Post is a marketplace listing.
type Post struct {
	ID          string     `json:"id"`
	AuthorID    string     `json:"authorId"`
	Type        PostType   `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	Price       float64    `json:"price"`
	SalePrice   *float64   `json:"salePrice,omitempty"`
	Location    string     `json:"location"`
	Images      []string   `json:"images"`
	LikedBy     []string   `json:"likedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`

	// Distance is computed per session from the viewer's location, in km.
	Distance *float64 `json:"-"`
	// AIReason is attached by the AI-annotation stage.
	AIReason string `json:"-"`
}

// DefaultPost is the base every stored post is merged over.
func DefaultPost() Post {
	return Post{
		Type:    PostProduct,
		Tags:    []string{},
		Images:  []string{},
		LikedBy: []string{},
	}
}

// EffectivePrice is the sale price when one is set, otherwise the list price.
func (p Post) EffectivePrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// OnSale reports whether a sale price is set.
func (p Post) OnSale() bool {
	return p.SalePrice != nil
}

// Likes is the derived popularity count.
func (p Post) Likes() int {
	return len(p.LikedBy)
}

// Expired reports whether the post has an expiry at or before now.
func (p Post) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !p.ExpiresAt.After(now)
}

// SearchText is the lower-cased text free-text queries are matched against.
func (p Post) SearchText() string {
	parts := []string{p.Title, p.Description, p.Category, p.Location, string(p.Type)}
	parts = append(parts, p.Tags...)
	return strings.ToLower(strings.Join(parts, "\n"))
}

func (p *Post) normalize() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.LikedBy == nil {
		p.LikedBy = []string{}
	}
}

// MergePosts decodes a stored post list, merging each element over
// DefaultPost. def is returned unchanged on malformed input.
func MergePosts(def []Post, raw []byte) ([]Post, error) {
	return mergeSlice(def, raw, DefaultPost, (*Post).normalize)
}

// Price returns a pointer for SalePrice literals.
func Price(v float64) *float64 {
	return &v
}
