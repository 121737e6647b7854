package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want float64
	}{
		{"list price", Post{Price: 20}, 20},
		{"sale price wins", Post{Price: 20, SalePrice: Price(5)}, 5},
		{"free sale", Post{Price: 20, SalePrice: Price(0)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.post.EffectivePrice(); got != tt.want {
				t.Errorf("EffectivePrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if (Post{}).Expired(now) {
		t.Error("post without expiry never expires")
	}
	if !(Post{ExpiresAt: &past}).Expired(now) {
		t.Error("past expiry should be expired")
	}
	if !(Post{ExpiresAt: &now}).Expired(now) {
		t.Error("expiry at now should be expired")
	}
	if (Post{ExpiresAt: &future}).Expired(now) {
		t.Error("future expiry should not be expired")
	}
}

func TestMergePostsFillsMissingFields(t *testing.T) {
	raw := []byte(`[{"id":"p1","title":"Bike","price":40},{"id":"p2","tags":null,"type":"service"}]`)

	got, err := MergePosts(nil, raw)
	if err != nil {
		t.Fatalf("MergePosts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Type != PostProduct {
		t.Errorf("missing type should default to product, got %q", got[0].Type)
	}
	if got[1].Tags == nil || got[0].LikedBy == nil || got[1].Images == nil {
		t.Error("slices should never be nil after merge")
	}
	if got[1].Type != PostService {
		t.Errorf("stored type should win, got %q", got[1].Type)
	}
}

func TestMergePostsMalformedReturnsDefault(t *testing.T) {
	def := []Post{{ID: "seed"}}
	got, err := MergePosts(def, []byte(`{"not":"an array"}`))
	if err == nil {
		t.Fatal("expected an error")
	}
	if diff := cmp.Diff(def, got); diff != "" {
		t.Errorf("default not returned (-want +got):\n%s", diff)
	}
}

func TestMergeAccountsAndIncrementViews(t *testing.T) {
	accounts, err := MergeAccounts(nil, []byte(`[{"id":"u1","name":"Ada","views":2},{"id":"u2"}]`))
	if err != nil {
		t.Fatalf("MergeAccounts: %v", err)
	}

	bumped := IncrementViews(accounts, "u1")
	if bumped[0].Views != 3 {
		t.Errorf("views = %d, want 3", bumped[0].Views)
	}
	if accounts[0].Views != 2 {
		t.Error("IncrementViews must not modify its input")
	}
	if a, ok := FindAccount(bumped, "u2"); !ok || a.Followers == nil {
		t.Errorf("FindAccount(u2) = %+v, %v", a, ok)
	}
}

func TestMergeActivityOldShape(t *testing.T) {
	got, err := MergeActivity(DefaultActivity(), []byte(`{"liked":["p1"]}`))
	if err != nil {
		t.Fatalf("MergeActivity: %v", err)
	}
	want := ActivityBundle{Notifications: []Notification{}, Liked: []string{"p1"}, Following: []string{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeUserListsNulls(t *testing.T) {
	got, err := MergeUserLists(DefaultUserLists(), []byte(`{"bag":null,"lists":null}`))
	if err != nil {
		t.Fatalf("MergeUserLists: %v", err)
	}
	if got.Bag == nil || got.Lists == nil || got.ViewHistory == nil {
		t.Errorf("nil field after merge: %+v", got)
	}
}

func TestRecordView(t *testing.T) {
	l := DefaultUserLists()
	l = l.RecordView("a").RecordView("b").RecordView("a")

	if diff := cmp.Diff([]string{"a", "b"}, l.ViewHistory); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	for i := 0; i < MaxViewHistory+10; i++ {
		l = l.RecordView(string(rune('A' + i%60)) + "x")
	}
	if len(l.ViewHistory) > MaxViewHistory {
		t.Errorf("history grew to %d", len(l.ViewHistory))
	}
}

func TestTierString(t *testing.T) {
	for tier, want := range map[Tier]string{TierFree: "free", TierPlus: "plus", TierPro: "pro"} {
		if tier.String() != want {
			t.Errorf("%d.String() = %q, want %q", tier, tier.String(), want)
		}
	}
}

func TestSetInBagDoesNotAlias(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	before := DefaultUserLists().SetInBag("p1", true, now)
	after := before.SetInBag("p2", true, now).SetInBag("p2", true, now).SetInBag("p1", false, now)

	if !before.InBag("p1") || before.InBag("p2") {
		t.Errorf("earlier value changed: %+v", before.Bag)
	}
	want := []BagItem{{PostID: "p2", Quantity: 1, AddedAt: now}}
	if diff := cmp.Diff(want, after.Bag); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSetLiked(t *testing.T) {
	b := DefaultActivity().SetLiked("p1", true).SetLiked("p1", true).SetLiked("p2", true)
	if diff := cmp.Diff([]string{"p1", "p2"}, b.Liked); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	unliked := b.SetLiked("p1", false)
	if diff := cmp.Diff([]string{"p2"}, unliked.Liked); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if len(b.Liked) != 2 {
		t.Errorf("original modified: %v", b.Liked)
	}
}

func TestSortThreadsAndVote(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	threads := []ForumPost{
		{ID: "old", Votes: 3, CreatedAt: now.Add(-time.Hour)},
		{ID: "new", Votes: 3, CreatedAt: now},
		{ID: "top", Votes: 9, CreatedAt: now},
		{ID: "pin", Votes: 0, Pinned: true, CreatedAt: now},
	}
	voted := Vote(threads, "old")
	if threads[0].Votes != 3 {
		t.Fatalf("Vote modified its input")
	}
	SortThreads(voted)

	var ids []string
	for _, th := range voted {
		ids = append(ids, th.ID)
	}
	if diff := cmp.Diff([]string{"pin", "top", "old", "new"}, ids); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCommentCounts(t *testing.T) {
	got := CommentCounts([]Comment{{PostID: "a"}, {PostID: "b"}, {PostID: "a"}})
	if diff := cmp.Diff(map[string]int{"a": 2, "b": 1}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestWithDistances(t *testing.T) {
	posts := []Post{{ID: "same", Location: "Old Town"}, {ID: "far", Location: "Northside"}, {ID: "nowhere", Location: "Atlantis"}}
	got := WithDistances(posts, "Old Town")

	if posts[0].Distance != nil {
		t.Fatal("input modified")
	}
	if got[0].Distance == nil || *got[0].Distance != 0 {
		t.Errorf("same place distance = %v", got[0].Distance)
	}
	if got[1].Distance == nil || *got[1].Distance < 1.5 || *got[1].Distance > 3 {
		t.Errorf("Old Town to Northside = %v, want about 2 km", got[1].Distance)
	}
	if got[2].Distance != nil {
		t.Error("unknown place should have no distance")
	}

	for _, p := range WithDistances(posts, "") {
		if p.Distance != nil {
			t.Errorf("%s: distance without a home", p.ID)
		}
	}
}
