package rerank

import (
	"strings"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
)

// A small lexicon is enough here: the sentiment factor carries a 0.05
// weight and only needs a rough tone signal.
var positiveWords = map[string]bool{
	"great": true, "excellent": true, "powerful": true, "fast": true,
	"easy": true, "intuitive": true, "reliable": true, "beautiful": true,
	"best": true, "love": true, "amazing": true, "seamless": true,
	"flexible": true, "polished": true,
}

var negativeWords = map[string]bool{
	"slow": true, "buggy": true, "broken": true, "confusing": true,
	"limited": true, "expensive": true, "clunky": true, "outdated": true,
	"worst": true, "poor": true, "unreliable": true, "bloated": true,
}

// sentimentOf scores the document tone in [0,1]; 0.5 is neutral.
func sentimentOf(doc *document.Document) float64 {
	var pos, neg int
	for _, w := range strings.Fields(strings.ToLower(doc.SearchText())) {
		w = strings.Trim(w, `.,;:!?()[]{}"'`)
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0.5
	}
	return 0.5 + 0.5*float64(pos-neg)/float64(total)
}
