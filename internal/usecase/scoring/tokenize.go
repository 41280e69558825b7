package scoring

import "strings"

// stopWords are filtered out of term scoring; they match everything and
// mean nothing.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "with": true,
	"about": true, "what": true, "when": true, "where": true, "who": true,
	"why": true, "how": true, "of": true, "from": true, "by": true, "as": true,
	"this": true, "that": true, "these": true, "those": true, "which": true,
	"i": true, "me": true, "my": true, "you": true, "your": true, "it": true,
	"its": true, "can": true, "will": true, "do": true, "does": true, "not": true,
}

// terms splits lowercase text into scoring terms, dropping stop words
// and one-letter fragments.
func terms(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,;:!?()[]{}"'`)
		if len(w) > 1 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// wordSet returns the distinct terms of text.
func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range terms(text) {
		set[w] = true
	}
	return set
}
