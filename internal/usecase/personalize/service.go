// Package personalize adjusts scored results using the user's profile
// and a diversity pass over the result set. Scores and factors change;
// order never does. Reordering is the rerank stage's job.
package personalize

import (
	"context"

	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/domain/profile"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/request"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/result"
	"github.com/digital-hub-ai/hubsearch/internal/logger"
)

// Per-signal boosts are additive up to maxBoost, then the similarity is
// re-clamped to [0,1].
const (
	boostCategory = 0.05
	boostTag      = 0.05
	boostFavorite = 0.10
	boostClicked  = 0.05
	boostFeedback = 0.10
	maxBoost      = 0.20

	positiveFeedbackFloor = 4.0
	negativeFeedbackCeil  = 2.0
)

// Config holds the diversity settings.
type Config struct {
	// DiversityCeiling is the average pairwise overlap above which a
	// result counts as near-duplicate.
	DiversityCeiling float64
}

type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Apply boosts results from the profile, drops disliked ones when asked
// to, and runs the diversity adjustment. The returned slice preserves
// the input order of every surviving result.
func (s *Service) Apply(ctx context.Context, results []*result.Result, prof *profile.Profile, opts request.Options) []*result.Result {
	if prof != nil {
		if opts.ExcludeDisliked {
			results = dropDisliked(results, prof)
		}
		for _, r := range results {
			s.boost(r, prof, opts)
		}
	}

	results = s.adjustDiversity(results)

	logger.FromContext(ctx).Debug("personalization applied",
		zap.Bool("profiled", prof != nil),
		zap.Int("results", len(results)))
	return results
}

// boost applies the additive capped profile boosts to one result and
// records the personalization factor consumed by reranking.
func (s *Service) boost(r *result.Result, prof *profile.Profile, opts request.Options) {
	doc := r.Doc()
	var total float64

	if prof.PrefersCategory(doc.Category()) {
		total += boostCategory
	}
	if prof.PrefersAnyTag(doc.Tags()) {
		total += boostTag
	}
	if opts.BoostFavorites && prof.HasFavorited(doc.ID()) {
		total += boostFavorite
	}
	if opts.BoostHistory && prof.HasClicked(doc.ID()) {
		total += boostClicked
	}
	if rating, ok := prof.FeedbackFor(doc.ID()); ok && rating >= positiveFeedbackFloor {
		total += boostFeedback
	}

	if total > maxBoost {
		total = maxBoost
	}
	r.Boost(total)
	r.SetPersonalization(total / maxBoost)
}

// dropDisliked removes results the user skipped or rated poorly.
func dropDisliked(results []*result.Result, prof *profile.Profile) []*result.Result {
	out := make([]*result.Result, 0, len(results))
	for _, r := range results {
		if prof.HasSkipped(r.Doc().ID()) {
			continue
		}
		if rating, ok := prof.FeedbackFor(r.Doc().ID()); ok && rating <= negativeFeedbackCeil {
			continue
		}
		out = append(out, r)
	}
	return out
}
