// Package understand turns raw query text into a structured query: an
// inferred intent, extracted entities, a synthesized filter and the
// residual text used for scoring. This stage never fails; a query with
// no recognizable structure comes out informational with empty filters.
package understand

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/domain/search/filter"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
	"github.com/digital-hub-ai/hubsearch/internal/logger"
)

// Pricing-flavored tags are matched against the pricing label as well as
// the tag list, since sites label plans rather than tagging them.
var pricingTags = map[string]bool{
	"free": true, "freemium": true, "paid": true, "premium": true, "subscription": true,
}

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Process analyzes the raw query plus an optional dedicated filter
// expression and returns the structured query.
func (s *Service) Process(ctx context.Context, rawQuery, filterExpr string) query.Processed {
	lower := strings.ToLower(strings.TrimSpace(rawQuery))

	inline := parseInline(lower)
	if filterExpr != "" {
		extra := parseInline(strings.ToLower(filterExpr))
		inline.conditions = append(inline.conditions, extra.conditions...)
		inline.phrases = append(inline.phrases, extra.phrases...)
		if extra.fuzzy {
			inline.fuzzy = true
			inline.fuzzyLevel = extra.fuzzyLevel
		}
	}

	intent := classifyIntent(lower)
	entities := extractEntities(inline.residual)
	folded := foldEntities(entities)

	cleaned := stripEntityText(inline.residual, entities)
	if cleaned == "" {
		cleaned = strings.Join(strings.Fields(lower), " ")
	}

	defaultSort, defaultLimit := intentDefaults(intent)

	p := query.Processed{
		Raw:          rawQuery,
		Cleaned:      cleaned,
		Intent:       intent,
		Entities:     entities,
		Filters:      buildFilter(inline.conditions, folded),
		Phrases:      inline.phrases,
		Fuzzy:        inline.fuzzy,
		FuzzyLevel:   inline.fuzzyLevel,
		DefaultSort:  defaultSort,
		DefaultLimit: defaultLimit,
	}

	logger.FromContext(ctx).Debug("query understood",
		zap.String("intent", string(intent)),
		zap.Int("entities", len(entities)),
		zap.Int("inline_conditions", len(inline.conditions)),
		zap.Bool("fuzzy", p.Fuzzy))

	return p
}

// buildFilter assembles the AND group from inline conditions and the
// folded entity filter map. Constructor errors cannot occur for the
// values produced here; conditions that would error are skipped.
func buildFilter(inline []filter.Condition, folded entityFilters) filter.Group {
	var conds []filter.Condition
	var groups []filter.Group

	for _, c := range inline {
		if c.Field() == "tags" && c.Op() == filter.OpEquals {
			if tag, ok := c.Value().(string); ok && pricingTags[tag] {
				if priceCond, err := filter.NewCondition("pricing", filter.OpContains, tag); err == nil {
					groups = append(groups, filter.Or(c, priceCond))
					continue
				}
			}
		}
		conds = append(conds, c)
	}

	if len(folded.categories) > 0 {
		if c, err := filter.NewSetCondition("category", filter.OpIn, folded.categories); err == nil {
			conds = append(conds, c)
		}
	}
	if len(folded.brands) > 0 {
		var brandConds []filter.Condition
		for _, b := range folded.brands {
			if c, err := filter.NewCondition("content", filter.OpContains, b); err == nil {
				brandConds = append(brandConds, c)
			}
		}
		if len(brandConds) > 0 {
			groups = append(groups, filter.Or(brandConds...))
		}
	}
	for _, tag := range folded.tags {
		tagCond, err := filter.NewCondition("tags", filter.OpEquals, tag)
		if err != nil {
			continue
		}
		if pricingTags[tag] {
			priceCond, err := filter.NewCondition("pricing", filter.OpContains, tag)
			if err == nil {
				groups = append(groups, filter.Or(tagCond, priceCond))
				continue
			}
		}
		conds = append(conds, tagCond)
	}
	if folded.hasRating {
		if c, err := filter.NewCondition("rating", filter.OpGreaterEq, folded.minRating); err == nil {
			conds = append(conds, c)
		}
	}
	if folded.hasPrice {
		if c, err := filter.NewCondition("price", filter.OpLessEq, folded.maxPrice); err == nil {
			conds = append(conds, c)
		}
	}

	return filter.And(conds...).WithGroups(groups...)
}
