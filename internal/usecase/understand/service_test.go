package understand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
)

func TestIntentClassificationOrder(t *testing.T) {
	tests := []struct {
		query string
		want  query.Intent
	}{
		{"how to remove backgrounds", query.IntentTutorial},
		{"midjourney review", query.IntentReview},
		{"photoshop alternatives", query.IntentAlternative},
		{"figma vs canva", query.IntentComparative},
		{"buy premium subscription", query.IntentTransactional},
		{"notion official website", query.IntentNavigational},
		{"best writing tools", query.IntentRecommendation},
		{"image upscaler", query.IntentInformational},
		// Tutorial cues outrank the recommendation catch-all.
		{"best guide to prompting", query.IntentTutorial},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyIntent(tt.query))
		})
	}
}

func TestProcessExtractsEntitiesAndFilters(t *testing.T) {
	svc := NewService()
	p := svc.Process(context.Background(), "free image generation under $20 with 4 stars", "")

	categories := p.EntitiesOfType(query.EntityCategory)
	require.Len(t, categories, 1)
	assert.Equal(t, "image generation", categories[0].Value)
	assert.InDelta(t, 0.9, categories[0].Confidence, 1e-9)

	prices := p.EntitiesOfType(query.EntityPrice)
	require.Len(t, prices, 1)
	assert.Equal(t, "20", prices[0].Value)

	ratings := p.EntitiesOfType(query.EntityRating)
	require.Len(t, ratings, 1)
	assert.Equal(t, "4", ratings[0].Value)

	assert.False(t, p.Filters.IsEmpty())
	assert.NotContains(t, p.Cleaned, "$20")
	assert.NotContains(t, p.Cleaned, "4 stars")
}

func TestProcessFoldsCompetingNumericEntities(t *testing.T) {
	svc := NewService()
	p := svc.Process(context.Background(), "crm under $30 or $10 with 3 stars and 4.5 rating plans", "")

	free, err := document.New("a", document.KindTool, "CRM", "body", document.Fields{
		Rating: ptr(4.6), Extra: map[string]string{"price": "9"},
	})
	require.NoError(t, err)
	cheapLowRated, err := document.New("b", document.KindTool, "CRM", "body", document.Fields{
		Rating: ptr(4.0), Extra: map[string]string{"price": "9"},
	})
	require.NoError(t, err)
	expensive, err := document.New("c", document.KindTool, "CRM", "body", document.Fields{
		Rating: ptr(5.0), Extra: map[string]string{"price": "25"},
	})
	require.NoError(t, err)

	// maxPrice keeps the minimum ($10); minRating keeps the maximum (4.5).
	assert.True(t, p.Filters.Matches(&free))
	assert.False(t, p.Filters.Matches(&cheapLowRated))
	assert.False(t, p.Filters.Matches(&expensive))
}

func TestProcessParsesInlineFilters(t *testing.T) {
	svc := NewService()
	p := svc.Process(context.Background(), `category:design rating:>4 "vector editor" ~0.8 logo maker`, "")

	assert.Equal(t, []string{"vector editor"}, p.Phrases)
	assert.True(t, p.Fuzzy)
	assert.InDelta(t, 0.8, p.FuzzyLevel, 1e-9)
	assert.Contains(t, p.Cleaned, "logo maker")
	assert.Contains(t, p.Cleaned, "vector editor", "phrase words stay in the residual")
	assert.NotContains(t, p.Cleaned, "category:")

	match, err := document.New("m", document.KindTool, "Vexa", "body", document.Fields{
		Category: "Design", Rating: ptr(4.5),
	})
	require.NoError(t, err)
	wrongCategory, err := document.New("w", document.KindTool, "Vexa", "body", document.Fields{
		Category: "Writing", Rating: ptr(4.5),
	})
	require.NoError(t, err)

	assert.True(t, p.Filters.Matches(&match))
	assert.False(t, p.Filters.Matches(&wrongCategory))
}

func TestProcessUnderscoreJoinedInlineValues(t *testing.T) {
	svc := NewService()
	p := svc.Process(context.Background(), "free image generator", "category:image_generation")

	match, err := document.New("m", document.KindTool, "Forge", "body", document.Fields{
		Category: "image generation", Tags: []string{"free"},
	})
	require.NoError(t, err)
	wrongCategory, err := document.New("w", document.KindTool, "Cut", "body", document.Fields{
		Category: "video editing", Tags: []string{"free"},
	})
	require.NoError(t, err)

	assert.True(t, p.Filters.Matches(&match), "underscores stand in for spaces in inline values")
	assert.False(t, p.Filters.Matches(&wrongCategory))
}

func TestProcessDedicatedFilterParameter(t *testing.T) {
	svc := NewService()
	p := svc.Process(context.Background(), "screen recorder", "tag:free ~")

	assert.True(t, p.Fuzzy)
	assert.InDelta(t, DefaultFuzzyLevel, p.FuzzyLevel, 1e-9)
	assert.Equal(t, "screen recorder", p.Cleaned)

	tagged, err := document.New("a", document.KindTool, "Rec", "body", document.Fields{
		Tags: []string{"Free", "video"},
	})
	require.NoError(t, err)
	labeled, err := document.New("b", document.KindTool, "Rec", "body", document.Fields{
		Pricing: document.Pricing{Label: "freemium", HasFree: true},
	})
	require.NoError(t, err)
	paid, err := document.New("c", document.KindTool, "Rec", "body", document.Fields{
		Pricing: document.Pricing{Label: "paid", HasPaid: true},
	})
	require.NoError(t, err)

	assert.True(t, p.Filters.Matches(&tagged))
	assert.True(t, p.Filters.Matches(&labeled), "pricing label counts for pricing-flavored tags")
	assert.False(t, p.Filters.Matches(&paid))
}

func TestProcessNeverFails(t *testing.T) {
	svc := NewService()

	p := svc.Process(context.Background(), "   ", "")
	assert.Equal(t, query.IntentInformational, p.Intent)
	assert.True(t, p.Filters.IsEmpty())
	assert.Empty(t, p.Entities)

	p = svc.Process(context.Background(), `:::: "" ~abc rating:>x`, "")
	assert.Equal(t, query.IntentInformational, p.Intent)
	assert.True(t, p.Filters.IsEmpty())
}

func TestIntentDefaults(t *testing.T) {
	sort, limit := intentDefaults(query.IntentRecommendation)
	require.NotNil(t, sort)
	assert.Equal(t, query.SortRating, sort.Field)
	assert.Equal(t, query.SortDesc, sort.Order)
	assert.Zero(t, limit)

	sort, limit = intentDefaults(query.IntentComparative)
	assert.Nil(t, sort)
	assert.Equal(t, 10, limit)

	sort, limit = intentDefaults(query.IntentInformational)
	assert.Nil(t, sort)
	assert.Zero(t, limit)
}

func ptr(f float64) *float64 { return &f }
