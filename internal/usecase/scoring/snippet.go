package scoring

import (
	"strings"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
)

const snippetLength = 180

// snippet extracts a window of document text around the first query term
// match. It never fails: with no match it degrades to the summary or the
// content prefix.
func snippet(p *query.Processed, doc *document.Document) string {
	body := doc.Summary()
	if body == "" {
		body = doc.Content()
	}
	lower := strings.ToLower(body)

	idx := -1
	for _, phrase := range p.Phrases {
		if i := strings.Index(lower, phrase); i >= 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		for _, term := range terms(p.Cleaned) {
			if i := strings.Index(lower, term); i >= 0 {
				idx = i
				break
			}
		}
	}

	if idx < 0 {
		return truncate(body, snippetLength)
	}

	start := idx - snippetLength/3
	if start < 0 {
		start = 0
	}
	// Back up to a word boundary.
	if start > 0 {
		if sp := strings.LastIndexByte(body[:start+1], ' '); sp >= 0 {
			start = sp + 1
		}
	}

	out := truncate(body[start:], snippetLength)
	if start > 0 {
		out = "…" + out
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if sp := strings.LastIndexByte(cut, ' '); sp > n/2 {
		cut = cut[:sp]
	}
	return cut + "…"
}
