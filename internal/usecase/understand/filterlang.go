package understand

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/digital-hub-ai/hubsearch/internal/domain/search/filter"
)

// DefaultFuzzyLevel applies when a bare ~ marker carries no threshold.
const DefaultFuzzyLevel = 0.7

var (
	phraseRegex = regexp.MustCompile(`"([^"]+)"`)
	fieldRegex  = regexp.MustCompile(`^([a-zA-Z_]+):(>=|<=|>|<)?(.+)$`)
	fuzzyRegex  = regexp.MustCompile(`^~(\d*\.?\d+)?$`)
)

// Inline field names map onto document field names.
var inlineFields = map[string]string{
	"category":    "category",
	"subcategory": "subcategory",
	"tag":         "tags",
	"tags":        "tags",
	"type":        "type",
	"kind":        "kind",
	"rating":      "rating",
	"reviews":     "reviews",
	"views":       "views",
	"price":       "price",
	"pricing":     "pricing",
}

// inlineFilter is the parse result of the filter mini-language.
type inlineFilter struct {
	conditions []filter.Condition
	phrases    []string
	fuzzy      bool
	fuzzyLevel float64
	residual   string
}

// parseInline extracts `field:value`, `field:>v`, `field:<v`, quoted
// phrases and the fuzzy marker from text, returning the residual words.
// Malformed tokens are left in the residual untouched; parsing never
// fails.
func parseInline(text string) inlineFilter {
	out := inlineFilter{residual: text}

	out.residual = phraseRegex.ReplaceAllStringFunc(out.residual, func(m string) string {
		phrase := strings.TrimSpace(strings.Trim(m, `"`))
		if phrase != "" {
			out.phrases = append(out.phrases, strings.ToLower(phrase))
		}
		// Phrase words still count for term scoring.
		return " " + phrase + " "
	})

	var residual []string
	for _, token := range strings.Fields(out.residual) {
		if m := fuzzyRegex.FindStringSubmatch(token); m != nil {
			out.fuzzy = true
			out.fuzzyLevel = DefaultFuzzyLevel
			if m[1] != "" {
				if level, err := strconv.ParseFloat(m[1], 64); err == nil && level > 0 && level <= 1 {
					out.fuzzyLevel = level
				}
			}
			continue
		}

		if cond, ok := parseFieldToken(token); ok {
			out.conditions = append(out.conditions, cond)
			continue
		}

		residual = append(residual, token)
	}

	out.residual = strings.Join(residual, " ")
	return out
}

func parseFieldToken(token string) (filter.Condition, bool) {
	m := fieldRegex.FindStringSubmatch(token)
	if m == nil {
		return filter.Condition{}, false
	}

	field, known := inlineFields[strings.ToLower(m[1])]
	if !known {
		return filter.Condition{}, false
	}
	rawOp, rawValue := m[2], strings.ToLower(m[3])

	if rawOp != "" {
		num, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return filter.Condition{}, false
		}
		ops := map[string]filter.Operator{
			">": filter.OpGreater, "<": filter.OpLess,
			">=": filter.OpGreaterEq, "<=": filter.OpLessEq,
		}
		cond, err := filter.NewCondition(field, ops[rawOp], num)
		return cond, err == nil
	}

	// Multi-word values arrive underscore-joined (category:image_generation);
	// documents carry them spaced.
	var value any = strings.ReplaceAll(rawValue, "_", " ")
	if num, err := strconv.ParseFloat(rawValue, 64); err == nil {
		value = num
	}
	cond, err := filter.NewCondition(field, filter.OpEquals, value)
	return cond, err == nil
}
