// Package rerank combines the per-result factors into one final score
// and sorts. Every factor is normalized to [0,1] before weighting, the
// weight vector sums to 1, and the sort is stable so equal scores keep
// their pipeline order.
package rerank

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/rank"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/result"
	"github.com/digital-hub-ai/hubsearch/internal/logger"
)

// recencyHalfLife is the publication age at which the recency factor
// decays to one half.
const recencyHalfLife = 180 * 24 * time.Hour

// popularityScale saturates the popularity factor; view counts at or
// above it score 1.
const popularityScale = 10000.0

type Service struct {
	weights rank.Weights
	now     func() time.Time
}

func NewService(weights rank.Weights) *Service {
	return &Service{weights: weights, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Rerank computes the combined score for each result and sorts
// descending. An explicit sort request replaces relevance ordering with
// a field sort; the combined score is still recorded for display.
func (s *Service) Rerank(ctx context.Context, results []*result.Result, sortOverride *query.Sort) []*result.Result {
	for _, r := range results {
		s.score(r)
	}

	if sortOverride != nil {
		sortByField(results, *sortOverride)
	} else {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Final() > results[j].Final()
		})
	}

	logger.FromContext(ctx).Debug("reranked",
		zap.Int("results", len(results)),
		zap.Bool("field_sort", sortOverride != nil))
	return results
}

func (s *Service) score(r *result.Result) {
	doc := r.Doc()

	rating := 0.0
	if v, ok := doc.Rating(); ok {
		rating = v / document.MaxRating
	}
	recency := s.recency(doc)
	popularity := math.Min(float64(doc.Views())/popularityScale, 1)
	sentiment := sentimentOf(doc)

	r.RecordFactor("similarity", r.Similarity())
	r.RecordFactor("rating", rating)
	r.RecordFactor("recency", recency)
	r.RecordFactor("popularity", popularity)
	r.RecordFactor("sentiment", sentiment)
	r.RecordFactor("personalization", r.Personalization())
	r.RecordFactor("diversity", r.Diversity())

	w := s.weights
	r.SetFinal(w.Similarity*r.Similarity() +
		w.Rating*rating +
		w.Recency*recency +
		w.Popularity*popularity +
		w.Sentiment*sentiment +
		w.Personalization*r.Personalization() +
		w.Diversity*r.Diversity())
}

// recency decays exponentially with publication age. Undated documents
// score a flat middle value rather than zero, so missing metadata is not
// a death sentence.
func (s *Service) recency(doc *document.Document) float64 {
	published := doc.PublishedAt()
	if published.IsZero() {
		published = doc.UpdatedAt()
	}
	if published.IsZero() {
		return 0.5
	}
	age := s.now().Sub(published)
	if age < 0 {
		age = 0
	}
	return math.Exp2(-float64(age) / float64(recencyHalfLife))
}

// sortByField orders results by an explicit document field instead of
// the combined score. The stable sort keeps relevance order within ties.
func sortByField(results []*result.Result, srt query.Sort) {
	key := func(r *result.Result) float64 {
		switch srt.Field {
		case query.SortRating:
			v, _ := r.Doc().Rating()
			return v
		case query.SortDate:
			t := r.Doc().PublishedAt()
			if t.IsZero() {
				t = r.Doc().UpdatedAt()
			}
			if t.IsZero() {
				return 0
			}
			return float64(t.Unix())
		case query.SortViews:
			return float64(r.Doc().Views())
		case query.SortPrice:
			if raw, ok := r.Doc().Extra("price"); ok {
				if v, err := strconv.ParseFloat(raw, 64); err == nil {
					return v
				}
			}
			return 0
		default:
			return r.Final()
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if srt.Order == query.SortAsc {
			return key(results[i]) < key(results[j])
		}
		return key(results[i]) > key(results[j])
	})
}
