package personalize

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/profile"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/request"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/result"
)

func newResult(t *testing.T, id, title, content, category string, tags []string, sim float64) *result.Result {
	t.Helper()
	doc, err := document.New(id, document.KindTool, title, content, document.Fields{
		Category: category, Tags: tags,
	})
	require.NoError(t, err)
	return result.New(&doc, sim)
}

func testService() *Service {
	return NewService(Config{DiversityCeiling: 0.8})
}

func TestBoostsAreAdditiveAndCapped(t *testing.T) {
	prof := profile.New("u1")
	prof.PreferredCategories = []string{"Design"}
	prof.PreferredTags = []string{"free"}
	prof.RecordFavorite("fav")
	prof.RecordClick("fav")
	prof.RecordFeedback("fav", 5)

	// Favorite+clicked+feedback+category+tag exceeds the cap.
	fav := newResult(t, "fav", "Logo Kit", "makes logos", "design", []string{"Free"}, 0.5)
	plain := newResult(t, "plain", "Spread Sheet", "numbers grid", "finance", nil, 0.5)

	opts := request.Options{BoostFavorites: true, BoostHistory: true}
	out := testService().Apply(context.Background(), []*result.Result{fav, plain}, prof, opts)

	require.Len(t, out, 2)
	assert.InDelta(t, 0.7, fav.Similarity(), 1e-9, "total boost capped at 0.2")
	assert.InDelta(t, 1.0, fav.Personalization(), 1e-9)
	assert.InDelta(t, 0.5, plain.Similarity(), 1e-9)
	assert.Zero(t, plain.Personalization())
}

func TestBoostFlagsGateSignals(t *testing.T) {
	prof := profile.New("u1")
	prof.RecordFavorite("a")
	prof.RecordClick("a")

	r := newResult(t, "a", "Logo Kit", "makes logos", "design", nil, 0.5)
	testService().Apply(context.Background(), []*result.Result{r}, prof, request.Options{})

	assert.InDelta(t, 0.5, r.Similarity(), 1e-9, "favorite/history boosts need their flags")
}

func TestExcludeDisliked(t *testing.T) {
	prof := profile.New("u1")
	prof.RecordSkip("skipped")
	prof.RecordFeedback("hated", 1)
	prof.RecordFeedback("loved", 5)

	results := []*result.Result{
		newResult(t, "skipped", "One", "body one", "", nil, 0.9),
		newResult(t, "hated", "Two", "body two", "", nil, 0.9),
		newResult(t, "loved", "Three", "body three", "", nil, 0.9),
		newResult(t, "neutral", "Four", "body four", "", nil, 0.9),
	}

	out := testService().Apply(context.Background(), results, prof, request.Options{ExcludeDisliked: true})
	require.Len(t, out, 2)
	assert.Equal(t, "loved", out[0].Doc().ID())
	assert.Equal(t, "neutral", out[1].Doc().ID())
}

func TestDiversityDropsNearDuplicates(t *testing.T) {
	results := []*result.Result{
		newResult(t, "a", "Fast Image Resizer Tool", "resizes images quickly in batches", "", nil, 0.9),
		newResult(t, "b", "Fast Image Resizer Tool", "resizes images quickly in batches", "", nil, 0.8),
		newResult(t, "c", "Fast Image Resizer Tool", "resizes images quickly in batches", "", nil, 0.7),
		newResult(t, "d", "Invoice Ledger", "tracks billing and payments", "", nil, 0.6),
		newResult(t, "e", "Podcast Recorder", "captures multitrack audio shows", "", nil, 0.5),
		newResult(t, "f", "Trail Planner", "maps hiking routes offline", "", nil, 0.4),
	}

	// A tight ceiling: three copies among six average well under the
	// default, since overlap is averaged across the whole set.
	svc := NewService(Config{DiversityCeiling: 0.35})
	out := svc.Apply(context.Background(), results, nil, request.Options{})

	ids := make([]string, len(out))
	for i, r := range out {
		ids[i] = r.Doc().ID()
	}
	assert.NotContains(t, ids, "b", "duplicates above the ceiling are dropped")
	assert.Contains(t, ids, "d")
	assert.Contains(t, ids, "e")
	assert.Contains(t, ids, "f")
}

func TestDiversityOverFilteringGuard(t *testing.T) {
	// Every result is a near-duplicate of every other; dropping all of
	// them would empty the set, so half must be restored.
	var results []*result.Result
	for i := 0; i < 6; i++ {
		results = append(results, newResult(t, fmt.Sprintf("dup%d", i),
			"Fast Image Resizer Tool", "resizes images quickly in batches", "", nil, 0.9))
	}

	out := testService().Apply(context.Background(), results, nil, request.Options{})
	assert.GreaterOrEqual(t, len(out), 3, "at least half the set survives")
}

func TestDiversityNeverReorders(t *testing.T) {
	results := []*result.Result{
		newResult(t, "a", "Invoice Ledger", "tracks billing and payments", "", nil, 0.2),
		newResult(t, "b", "Podcast Recorder", "captures multitrack audio shows", "", nil, 0.9),
		newResult(t, "c", "Trail Planner", "maps hiking routes offline", "", nil, 0.5),
	}

	out := testService().Apply(context.Background(), results, nil, request.Options{})
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Doc().ID())
	assert.Equal(t, "b", out[1].Doc().ID())
	assert.Equal(t, "c", out[2].Doc().ID())
}

func TestUnderrepresentedCategoryBoost(t *testing.T) {
	var results []*result.Result
	for i := 0; i < 10; i++ {
		title := fmt.Sprintf("Writing Helper Number%d", i)
		results = append(results, newResult(t, fmt.Sprintf("w%d", i), title,
			fmt.Sprintf("drafts prose edition%d with distinct body text", i), "writing", nil, 0.5))
	}
	rare := newResult(t, "rare", "Trail Planner", "maps hiking routes offline", "outdoors", nil, 0.5)
	results = append(results, rare)

	testService().Apply(context.Background(), results, nil, request.Options{})

	// 1 of 11 puts outdoors under the 10% share.
	for _, r := range results[:10] {
		assert.LessOrEqual(t, r.Diversity(), rare.Diversity())
	}
}
