package model

import (
	"cmp"
	"slices"
	"time"
)

// ForumPost is a discussion thread.
type ForumPost struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	Votes     int       `json:"votes"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"createdAt"`
}

// SortThreads orders threads pinned first, then by votes, then newest.
func SortThreads(threads []ForumPost) {
	slices.SortStableFunc(threads, func(a, b ForumPost) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(b.Votes, a.Votes); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// Vote returns threads with id's vote count raised by one.
func Vote(threads []ForumPost, id string) []ForumPost {
	out := slices.Clone(threads)
	for i := range out {
		if out[i].ID == id {
			out[i].Votes++
		}
	}
	return out
}

// CommentCounts counts comments per thread.
func CommentCounts(comments []Comment) map[string]int {
	counts := make(map[string]int, len(comments))
	for _, c := range comments {
		counts[c.PostID]++
	}
	return counts
}

// Comment belongs to a ForumPost.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	ParentID  string    `json:"parentId,omitempty"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// MergeForumPosts decodes stored threads element by element.
func MergeForumPosts(def []ForumPost, raw []byte) ([]ForumPost, error) {
	return mergeSlice(def, raw, func() ForumPost { return ForumPost{} }, nil)
}

func MergeComments(def []Comment, raw []byte) ([]Comment, error) {
	return mergeSlice(def, raw, func() Comment { return Comment{} }, nil)
}
