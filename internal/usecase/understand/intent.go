package understand

import (
	"strings"

	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
)

// intentRule pairs an intent with its trigger cues. Rules are checked in
// order and the first match wins, so specific intents sit above the
// generic recommendation catch-all.
type intentRule struct {
	intent query.Intent
	cues   []string
}

var intentRules = []intentRule{
	{query.IntentTutorial, []string{
		"how to", "tutorial", "guide", "step by step", "getting started", "learn",
	}},
	{query.IntentReview, []string{
		"review", "reviews", "is it worth", "pros and cons", "opinion",
	}},
	{query.IntentAlternative, []string{
		"alternative", "alternatives", "instead of", "replacement for", "similar to",
	}},
	{query.IntentComparative, []string{
		" vs ", " vs.", "versus", "compare", "comparison", "difference between",
		"better than", "which is better",
	}},
	{query.IntentTransactional, []string{
		"buy", "purchase", "pricing", "price of", "subscribe", "discount", "deal", "cost of",
	}},
	{query.IntentNavigational, []string{
		"login", "sign in", "official site", "official website", "homepage", "download",
	}},
	{query.IntentRecommendation, []string{
		"best", "top", "recommend", "recommended", "popular", "favorite", "good",
	}},
}

// classifyIntent matches the lowercase query against the ordered rules.
func classifyIntent(lower string) query.Intent {
	padded := " " + lower + " "
	for _, rule := range intentRules {
		for _, cue := range rule.cues {
			if strings.Contains(cue, " ") {
				if strings.Contains(padded, cue) {
					return rule.intent
				}
				continue
			}
			if containsWord(lower, cue) {
				return rule.intent
			}
		}
	}
	return query.IntentInformational
}

// intentDefaults returns the intent-derived sort and result cap. Both are
// applied only when the caller did not set them explicitly.
func intentDefaults(intent query.Intent) (*query.Sort, int) {
	switch intent {
	case query.IntentRecommendation, query.IntentReview:
		return &query.Sort{Field: query.SortRating, Order: query.SortDesc}, 0
	case query.IntentTutorial:
		return &query.Sort{Field: query.SortDate, Order: query.SortDesc}, 0
	case query.IntentComparative, query.IntentAlternative:
		return nil, 10
	case query.IntentNavigational:
		return nil, 5
	}
	return nil, 0
}

// containsWord reports whether lower contains cue as a whole word.
func containsWord(lower, cue string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], cue)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(cue)
		before := start == 0 || !isWordByte(lower[start-1])
		after := end == len(lower) || !isWordByte(lower[end])
		if before && after {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
