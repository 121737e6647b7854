package filter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/abelbrown/hyperlocal/internal/model"
	"github.com/google/go-cmp/cmp"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func km(v float64) *float64 { return &v }

func ids(posts []model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func fixture() []model.Post {
	return []model.Post{
		{ID: "bike", Type: model.PostProduct, Title: "Road Bike", Category: "sports", Tags: []string{"bike", "outdoor"}, Price: 120, CreatedAt: now.Add(-2 * time.Hour), LikedBy: []string{"a", "b"}, Distance: km(1.5)},
		{ID: "desk", Type: model.PostProduct, Title: "Standing desk", Category: "furniture", Tags: []string{"office"}, Price: 200, SalePrice: model.Price(90), CreatedAt: now.Add(-30 * time.Hour), Distance: km(4)},
		{ID: "yoga", Type: model.PostEvent, Title: "Park yoga", Description: "Sunday mornings", Category: "sports", Tags: []string{"outdoor"}, CreatedAt: now.Add(-10 * 24 * time.Hour), ExpiresAt: at(24 * time.Hour), LikedBy: []string{"a", "b", "c"}},
		{ID: "sale", Type: model.PostProduct, Title: "Garage sale", Category: "misc", Price: 5, CreatedAt: now.Add(-1 * time.Hour), ExpiresAt: at(-time.Hour), Distance: km(0.5)},
		{ID: "tutor", Type: model.PostService, Title: "Maths tutor", Category: "lessons", Price: 30, CreatedAt: now.Add(-2 * time.Hour), LikedBy: []string{"z", "y"}},
	}
}

func TestPriceAscUsesSalePrice(t *testing.T) {
	posts := []model.Post{
		{ID: "first", Price: 10, CreatedAt: now},
		{ID: "second", Price: 20, SalePrice: model.Price(5), CreatedAt: now},
	}
	s := Reduce(Default(), SetSort{Sort: SortPriceAsc})

	got := ids(Apply(posts, s, Context{Now: now}))
	if diff := cmp.Diff([]string{"second", "first"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultSpecHidesExpiredAndSortsNewest(t *testing.T) {
	got := ids(Apply(fixture(), Default(), Context{Now: now}))
	want := []string{"bike", "tutor", "desk", "yoga"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want []string
	}{
		{"query is case-insensitive across fields", Reduce(Default(), SetQuery{Query: "  SUNDAY "}), []string{"yoga"}},
		{"query matches tags", Reduce(Default(), SetQuery{Query: "office"}), []string{"desk"}},
		{"type", Reduce(Default(), SetType{Type: model.PostService}), []string{"tutor"}},
		{"category", Reduce(Default(), SetCategory{Category: "sports"}), []string{"bike", "yoga"}},
		{"price bounds are inclusive on effective price", Reduce(Default(), SetPrice{Min: model.Price(30), Max: model.Price(90)}), []string{"tutor", "desk"}},
		{"tags intersect", Reduce(Default(), SetTags{Tags: []string{"Outdoor", "nothing"}}), []string{"bike", "yoga"}},
		{"show expired", Reduce(Default(), SetExpired{On: true}), []string{"sale", "bike", "tutor", "desk", "yoga"}},
		{"expiring soon", Reduce(Default(), SetExpiring{On: true}), []string{"yoga"}},
		{"recent", Reduce(Default(), SetRecent{On: true}), []string{"bike", "tutor", "desk"}},
		{"radius needs a distance", Reduce(Default(), SetRadius{Km: 2}), []string{"bike"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(fixture(), tt.spec, Context{Now: now}))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortOptions(t *testing.T) {
	base := Reduce(Default(), SetExpired{On: true})
	tests := []struct {
		sort SortKey
		want []string
	}{
		{SortNewest, []string{"sale", "bike", "tutor", "desk", "yoga"}},
		{SortPopular, []string{"yoga", "bike", "tutor", "sale", "desk"}},
		{SortPriceAsc, []string{"yoga", "sale", "tutor", "desk", "bike"}},
		{SortPriceDesc, []string{"bike", "desk", "tutor", "sale", "yoga"}},
		{SortDistanceAsc, []string{"sale", "bike", "desk", "tutor", "yoga"}},
		{SortDistanceDesc, []string{"desk", "bike", "sale", "tutor", "yoga"}},
		{SortRelevance, []string{"sale", "bike", "tutor", "desk", "yoga"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			s := Reduce(base, SetSort{Sort: tt.sort})
			got := ids(Apply(fixture(), s, Context{Now: now}))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyIsIdempotentAndPure(t *testing.T) {
	input := fixture()
	before := ids(input)
	s := Reduce(Reduce(Default(), SetSort{Sort: SortPopular}), SetExpired{On: true})

	first := Apply(input, s, Context{Now: now})
	second := Apply(input, s, Context{Now: now})

	if diff := cmp.Diff(ids(first), ids(second)); diff != "" {
		t.Errorf("same input gave different output:\n%s", diff)
	}
	if diff := cmp.Diff(before, ids(input)); diff != "" {
		t.Errorf("Apply reordered its input:\n%s", diff)
	}
}

func TestAIResultsReplaceQueryAndAnnotate(t *testing.T) {
	s := Reduce(Default(), SetQuery{Query: "does not match anything"})
	s = Reduce(s, StartAI{})
	if !s.AISearching || s.AIActive() {
		t.Fatalf("StartAI should only mark the search in flight: %+v", s)
	}
	s = Reduce(s, SetAIResults{Results: []AIResult{
		{ID: "tutor", Reason: "teaches maths"},
		{ID: "ghost", Reason: "not a candidate"},
		{ID: "bike", Reason: "fits a commute"},
	}})

	got := Apply(fixture(), s, Context{Now: now})
	if diff := cmp.Diff([]string{"tutor", "bike"}, ids(got)); diff != "" {
		t.Fatalf("AI order mismatch (-want +got):\n%s", diff)
	}
	if got[0].AIReason != "teaches maths" || got[1].AIReason != "fits a commute" {
		t.Errorf("reasons not attached: %q, %q", got[0].AIReason, got[1].AIReason)
	}

	cleared := Reduce(s, ClearAI{})
	if cleared.AIActive() || cleared.Sort != SortNewest {
		t.Errorf("ClearAI left AI state behind: %+v", cleared)
	}
	if n := len(Apply(fixture(), cleared, Context{Now: now})); n != 0 {
		t.Errorf("query should apply again after ClearAI, got %d results", n)
	}
}

func TestAIStageStillHonoursOtherDimensions(t *testing.T) {
	s := Reduce(Default(), SetCategory{Category: "sports"})
	s = Reduce(s, SetAIResults{Results: []AIResult{{ID: "tutor"}, {ID: "bike"}}})

	got := ids(Apply(fixture(), s, Context{Now: now}))
	if diff := cmp.Diff([]string{"bike"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestActive(t *testing.T) {
	if Default().Active() {
		t.Error("Default should be inactive")
	}
	actions := []Action{
		SetQuery{Query: "x"},
		SetType{Type: model.PostEvent},
		SetCategory{Category: "c"},
		SetPrice{Max: model.Price(1)},
		ToggleTag{Tag: "t"},
		SetExpiring{On: true},
		SetExpired{On: true},
		SetRecent{On: true},
		SetRadius{Km: 3},
		SetSort{Sort: SortPriceAsc},
		SetAIResults{},
	}
	for _, a := range actions {
		if !Reduce(Default(), a).Active() {
			t.Errorf("%T should make the spec active", a)
		}
	}
	if Reduce(Default(), SetQuery{Query: "   "}).Active() {
		t.Error("blank query should not count")
	}
	if Reduce(Reduce(Default(), SetRadius{Km: 3}), Reset{}).Active() {
		t.Error("Reset should clear everything")
	}
}

func TestReduceDoesNotAlias(t *testing.T) {
	a := Reduce(Default(), ToggleTag{Tag: "one"})
	b := Reduce(a, ToggleTag{Tag: "two"})
	c := Reduce(b, ToggleTag{Tag: "one"})

	if diff := cmp.Diff([]string{"one"}, a.Tags); diff != "" {
		t.Errorf("earlier spec changed:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"one", "two"}, b.Tags); diff != "" {
		t.Errorf("earlier spec changed:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"two"}, c.Tags); diff != "" {
		t.Errorf("toggle off failed:\n%s", diff)
	}
}

func TestSetPriceSwapsInvertedBounds(t *testing.T) {
	s := Reduce(Default(), SetPrice{Min: model.Price(50), Max: model.Price(10)})
	if *s.MinPrice != 10 || *s.MaxPrice != 50 {
		t.Errorf("bounds = %v..%v", *s.MinPrice, *s.MaxPrice)
	}
}

func TestPersistedShapeExcludesAIFields(t *testing.T) {
	s := Reduce(Default(), SetCategory{Category: "sports"})
	s = Reduce(s, SetAIResults{Results: []AIResult{{ID: "x"}}})

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	json.Unmarshal(data, &m)
	for _, k := range []string{"isAiSearching", "aiSmartFilterResults", "AISearching", "AIResults"} {
		if _, ok := m[k]; ok {
			t.Errorf("%s should not be persisted", k)
		}
	}

	got, err := DecodePersisted(Default(), data)
	if err != nil {
		t.Fatalf("DecodePersisted: %v", err)
	}
	if got.Category != "sports" || got.AIActive() || got.Sort != SortRelevance {
		t.Errorf("unexpected decode: %+v", got)
	}
}

func TestDecodePersistedOldShape(t *testing.T) {
	got, err := DecodePersisted(Default(), []byte(`{"category":"misc"}`))
	if err != nil {
		t.Fatalf("DecodePersisted: %v", err)
	}
	want := Default()
	want.Category = "misc"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAddRecent(t *testing.T) {
	var recent []string
	recent = AddRecent(recent, "bike")
	recent = AddRecent(recent, "desk")
	recent = AddRecent(recent, "BIKE")
	recent = AddRecent(recent, "  ")

	if diff := cmp.Diff([]string{"BIKE", "desk"}, recent); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	for i := 0; i < 20; i++ {
		recent = AddRecent(recent, string(rune('a'+i)))
	}
	if len(recent) != MaxRecentSearches {
		t.Errorf("len = %d, want %d", len(recent), MaxRecentSearches)
	}
}

func TestQueryDebounceIgnoresStaleTicks(t *testing.T) {
	d := QueryDebounce{Delay: time.Millisecond}

	first := d.Input("b")
	second := d.Input("bi")

	stale := first().(QueryReadyMsg)
	latest := second().(QueryReadyMsg)

	if d.Ready(stale) {
		t.Error("superseded input should be stale")
	}
	if !d.Ready(latest) || latest.Query != "bi" {
		t.Errorf("latest input should apply, got %+v", latest)
	}

	d.Cancel()
	if d.Ready(latest) {
		t.Error("Cancel should make outstanding ticks stale")
	}
}

func TestRank(t *testing.T) {
	got := Rank("outdoor BIKE bike", fixture(), 0)
	want := []AIResult{
		{ID: "bike", Reason: "matches outdoor, bike"},
		{ID: "yoga", Reason: "matches outdoor"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if got := Rank("outdoor", fixture(), 1); len(got) != 1 || got[0].ID != "yoga" {
		t.Errorf("limit 1 should keep the most liked tie, got %+v", got)
	}
	if got := Rank("   ", fixture(), 0); len(got) != 0 {
		t.Errorf("blank query picked %+v", got)
	}
}

func TestRankFeedsAIStage(t *testing.T) {
	s := Reduce(Reduce(Default(), StartAI{}), SetAIResults{Results: Rank("sports", fixture(), 0)})
	got := ids(Apply(fixture(), s, Context{Now: now}))
	if diff := cmp.Diff([]string{"yoga", "bike"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
