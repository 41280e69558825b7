package scoring

import (
	"strings"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
)

// Lexical scoring weights. The raw accumulated score is normalized by
// lexicalScale and clamped to [0,1].
const (
	weightExactWord   = 2.0
	weightSubstring   = 0.5
	bonusTitle        = 3.0
	bonusCategory     = 1.5
	bonusSubcategory  = 1.0
	bonusTag          = 1.0
	bonusQuotedPhrase = 6.0
	lexicalScale      = 20.0
)

// lexicalScore ranks a document against the query by term frequency and
// field bonuses. Whole-word matches weigh four times substring matches;
// exact quoted phrases dominate everything else.
func lexicalScore(p *query.Processed, doc *document.Document) float64 {
	queryTerms := terms(p.Cleaned)
	if len(queryTerms) == 0 && len(p.Phrases) == 0 {
		return 0
	}

	text := strings.ToLower(doc.SearchText())
	title := strings.ToLower(doc.Title())
	words := wordSet(text)

	var raw float64
	for _, term := range queryTerms {
		switch {
		case words[term]:
			raw += weightExactWord
		case strings.Contains(text, term):
			raw += weightSubstring
		}
		if strings.Contains(title, term) {
			raw += bonusTitle
		}
		if strings.EqualFold(doc.Category(), term) {
			raw += bonusCategory
		}
		if strings.EqualFold(doc.Subcategory(), term) {
			raw += bonusSubcategory
		}
		for _, tag := range doc.Tags() {
			if strings.EqualFold(tag, term) {
				raw += bonusTag
				break
			}
		}
	}

	for _, phrase := range p.Phrases {
		if strings.Contains(text, phrase) {
			raw += bonusQuotedPhrase
		}
	}

	return domain.Clamp01(raw / lexicalScale)
}
