package understand

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
)

// Extraction confidence is fixed per entity type, not computed.
const (
	confidenceCategory = 0.9
	confidenceTag      = 0.7
	confidencePrice    = 0.95
	confidenceRating   = 0.95
	confidenceDate     = 0.85
	confidenceBrand    = 0.8
)

// Category phrases are matched longest-first so "image generation" wins
// over a bare "image".
var knownCategories = []string{
	"image generation",
	"video editing",
	"code assistant",
	"data analysis",
	"text to speech",
	"writing",
	"design",
	"productivity",
	"marketing",
	"chatbot",
	"automation",
	"audio",
	"seo",
}

// Feature and pricing keywords become tag entities.
var knownTags = []string{
	"free", "freemium", "paid", "premium", "subscription",
	"open source", "api", "no signup", "self hosted",
}

var knownBrands = []string{
	"photoshop", "figma", "notion", "chatgpt", "midjourney",
	"canva", "slack", "github", "zapier", "obsidian",
}

var (
	priceRegex   = regexp.MustCompile(`\$(\d+(?:\.\d+)?)`)
	ratingRegex  = regexp.MustCompile(`(\d(?:\.\d)?)\s*(?:\+\s*)?(?:stars?|rating)`)
	isoDateRegex = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	usDateRegex  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
)

// extractEntities scans the lowercase query for typed spans.
func extractEntities(lower string) []query.Entity {
	var entities []query.Entity

	for _, cat := range knownCategories {
		if strings.Contains(lower, cat) {
			entities = append(entities, query.Entity{
				Type: query.EntityCategory, Text: cat, Value: cat, Confidence: confidenceCategory,
			})
		}
	}
	for _, tag := range knownTags {
		if containsPhrase(lower, tag) {
			entities = append(entities, query.Entity{
				Type: query.EntityTag, Text: tag, Value: tag, Confidence: confidenceTag,
			})
		}
	}
	for _, brand := range knownBrands {
		if containsWord(lower, brand) {
			entities = append(entities, query.Entity{
				Type: query.EntityBrand, Text: brand, Value: brand, Confidence: confidenceBrand,
			})
		}
	}

	for _, m := range priceRegex.FindAllStringSubmatch(lower, -1) {
		entities = append(entities, query.Entity{
			Type: query.EntityPrice, Text: m[0], Value: m[1], Confidence: confidencePrice,
		})
	}
	for _, m := range ratingRegex.FindAllStringSubmatch(lower, -1) {
		entities = append(entities, query.Entity{
			Type: query.EntityRating, Text: m[0], Value: m[1], Confidence: confidenceRating,
		})
	}
	for _, text := range isoDateRegex.FindAllString(lower, -1) {
		entities = append(entities, query.Entity{
			Type: query.EntityDate, Text: text, Value: text, Confidence: confidenceDate,
		})
	}
	for _, text := range usDateRegex.FindAllString(lower, -1) {
		entities = append(entities, query.Entity{
			Type: query.EntityDate, Text: text, Value: text, Confidence: confidenceDate,
		})
	}

	return entities
}

// entityFilters is the filter map folded from extracted entities.
// List-valued entries accumulate; price keeps the minimum across
// entities and rating keeps the maximum.
type entityFilters struct {
	categories []string
	tags       []string
	brands     []string
	maxPrice   float64
	hasPrice   bool
	minRating  float64
	hasRating  bool
}

func foldEntities(entities []query.Entity) entityFilters {
	var f entityFilters
	for _, e := range entities {
		switch e.Type {
		case query.EntityCategory:
			f.categories = appendUnique(f.categories, e.Value)
		case query.EntityTag:
			f.tags = appendUnique(f.tags, e.Value)
		case query.EntityBrand:
			f.brands = appendUnique(f.brands, e.Value)
		case query.EntityPrice:
			if v, err := strconv.ParseFloat(e.Value, 64); err == nil {
				if !f.hasPrice || v < f.maxPrice {
					f.maxPrice = v
					f.hasPrice = true
				}
			}
		case query.EntityRating:
			if v, err := strconv.ParseFloat(e.Value, 64); err == nil {
				if !f.hasRating || v > f.minRating {
					f.minRating = v
					f.hasRating = true
				}
			}
		}
	}
	return f
}

// stripEntityText removes extracted spans from the query so scoring sees
// the residual text only.
func stripEntityText(lower string, entities []query.Entity) string {
	residual := lower
	for _, e := range entities {
		// Category and tag words still carry meaning for scoring; only
		// structured tokens are stripped.
		if e.Type == query.EntityPrice || e.Type == query.EntityRating || e.Type == query.EntityDate {
			residual = strings.ReplaceAll(residual, e.Text, " ")
		}
	}
	return strings.Join(strings.Fields(residual), " ")
}

func containsPhrase(lower, phrase string) bool {
	if strings.Contains(phrase, " ") {
		return strings.Contains(" "+lower+" ", " "+phrase+" ")
	}
	return containsWord(lower, phrase)
}

func appendUnique(list []string, v string) []string {
	for _, item := range list {
		if item == v {
			return list
		}
	}
	return append(list, v)
}
