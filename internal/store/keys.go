package store

// Durable keys, one per logical collection.
const (
	KeyAccounts      = "accounts"
	KeyPosts         = "posts"
	KeyArchivedPosts = "archived_posts"
	KeyForumPosts    = "forum_posts"
	KeyForumComments = "forum_comments"
	KeyStoryPosts    = "story_posts"
)

// Per-user key prefixes. Combine with UserKey. The bag and view history
// live inside the lists bundle.
const (
	KeyActivity = "activity"
	KeyLists    = "lists"
)

// Keys lists the global collection keys.
var Keys = []string{
	KeyAccounts,
	KeyPosts,
	KeyArchivedPosts,
	KeyForumPosts,
	KeyForumComments,
	KeyStoryPosts,
}

// UserKey scopes a per-user collection to userID, e.g. "activity:u1".
func UserKey(base, userID string) string {
	return base + ":" + userID
}
