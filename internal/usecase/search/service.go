// Package search is the pipeline entry point. It wires the stages
// together per request: cache check, understanding, filtering, scoring
// with its lexical fallback, personalization, reranking, optional
// clustering, and the cache store on the way out.
package search

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/profile"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/filter"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/request"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/result"
	"github.com/digital-hub-ai/hubsearch/internal/logger"
	"github.com/digital-hub-ai/hubsearch/internal/metrics"
	"github.com/digital-hub-ai/hubsearch/internal/repository/resultcache"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/clusterize"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/personalize"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/rerank"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/scoring"
	"github.com/digital-hub-ai/hubsearch/internal/usecase/understand"
)

// Service orchestrates the search pipeline.
type Service struct {
	understand  *understand.Service
	scoring     *scoring.Service
	personalize *personalize.Service
	rerank      *rerank.Service
	clusterize  *clusterize.Service

	collection Collection
	profiles   ProfileStore
	cache      ResultCache
	analytics  Analytics
}

func NewService(
	understandSvc *understand.Service,
	scoringSvc *scoring.Service,
	personalizeSvc *personalize.Service,
	rerankSvc *rerank.Service,
	clusterizeSvc *clusterize.Service,
	collection Collection,
	profiles ProfileStore,
	cache ResultCache,
	analytics Analytics,
) *Service {
	return &Service{
		understand:  understandSvc,
		scoring:     scoringSvc,
		personalize: personalizeSvc,
		rerank:      rerankSvc,
		clusterize:  clusterizeSvc,
		collection:  collection,
		profiles:    profiles,
		cache:       cache,
		analytics:   analytics,
	}
}

// Search runs the pipeline for one validated request. Within the cache
// TTL, identical requests return the identical response.
func (s *Service) Search(ctx context.Context, req request.Request) (*Response, error) {
	log := logger.FromContext(ctx)
	opts := req.Options()

	cacheKey := resultcache.Key(&req)
	if payload, ok := s.cache.Get(ctx, cacheKey); ok {
		var cached Response
		if err := json.Unmarshal(payload, &cached); err == nil {
			log.Debug("search served from cache", zap.String("query", req.Query()))
			return &cached, nil
		}
		log.Warn("dropping corrupt result cache entry", zap.String("key", cacheKey))
	}

	done := stageTimer("understand")
	processed := s.understand.Process(ctx, req.Query(), opts.FilterExpr)
	done()

	snapshot, err := s.collection.Snapshot(ctx)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	done = stageTimer("filter")
	candidates := s.filterCandidates(snapshot, &processed, opts)
	done()

	done = stageTimer("score")
	results, degraded := s.score(ctx, &processed, candidates)
	done()

	var prof *profile.Profile
	if opts.UserID != "" {
		// The query is recorded under the store lock and the pipeline
		// reads a clone, so concurrent Track calls cannot race with it.
		err := s.profiles.Update(ctx, opts.UserID, func(p *profile.Profile) {
			p.RecordQuery(req.Query())
			prof = p.Clone()
		})
		if err != nil {
			log.Warn("profile update failed", zap.String("user_id", opts.UserID), zap.Error(err))
		}
	}

	done = stageTimer("personalize")
	results = s.personalize.Apply(ctx, results, prof, opts)
	done()

	done = stageTimer("rerank")
	results = s.rerank.Rerank(ctx, results, req.EffectiveSort(processed.DefaultSort))
	done()

	if limit := req.EffectiveLimit(processed.DefaultLimit); len(results) > limit {
		results = results[:limit]
	}

	resp := &Response{
		Success: true,
		Query:   req.Query(),
		Count:   len(results),
		Results: make([]ResultItem, 0, len(results)),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, buildResultItem(r))
	}

	if opts.Cluster {
		done = stageTimer("cluster")
		clusters := s.clusterize.Cluster(ctx, results, opts.AdvancedClustering, opts.ClusterCount)
		resp.Clusters, resp.ClusterStats = buildClusterItems(clusters)
		done()
	}

	if facets, err := s.collection.Facets(ctx); err == nil {
		resp.Facets = facets
	}

	s.analytics.RecordSearch(ctx, req.Query())

	switch {
	case degraded:
		metrics.SearchRequestsTotal.WithLabelValues("degraded").Inc()
	case len(results) == 0:
		metrics.SearchRequestsTotal.WithLabelValues("empty").Inc()
	default:
		metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	}

	if payload, err := json.Marshal(resp); err == nil {
		s.cache.Set(ctx, cacheKey, payload)
	}

	log.Info("search completed",
		zap.String("query", req.Query()),
		zap.String("intent", string(processed.Intent)),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Bool("degraded", degraded))
	return resp, nil
}

// Facets exposes the collection facet summary for the facets endpoint.
func (s *Service) Facets(ctx context.Context) (document.Facets, error) {
	return s.collection.Facets(ctx)
}

// filterCandidates merges the caller's option filters with the filter
// synthesized by query understanding and applies them to the snapshot.
func (s *Service) filterCandidates(snapshot []document.Document, processed *query.Processed, opts request.Options) []*document.Document {
	docs := make([]*document.Document, len(snapshot))
	for i := range snapshot {
		docs[i] = &snapshot[i]
	}

	group := filter.And(optionConditions(opts)...).WithGroups(processed.Filters)
	return group.Apply(docs)
}

// optionConditions translates the explicit request options into filter
// conditions.
func optionConditions(opts request.Options) []filter.Condition {
	var conds []filter.Condition
	add := func(c filter.Condition, err error) {
		if err == nil {
			conds = append(conds, c)
		}
	}

	if opts.Kind != "" {
		add(filter.NewCondition("kind", filter.OpEquals, string(opts.Kind)))
	}
	if opts.Category != "" {
		add(filter.NewCondition("category", filter.OpEquals, opts.Category))
	}
	if opts.Subcategory != "" {
		add(filter.NewCondition("subcategory", filter.OpEquals, opts.Subcategory))
	}
	if opts.MinRating > 0 {
		add(filter.NewCondition("rating", filter.OpGreaterEq, opts.MinRating))
	}
	if opts.MinReviews > 0 {
		add(filter.NewCondition("reviews", filter.OpGreaterEq, float64(opts.MinReviews)))
	}
	if opts.MaxPrice > 0 {
		add(filter.NewCondition("price", filter.OpLessEq, opts.MaxPrice))
	}
	if opts.PricingType != "" {
		add(filter.NewCondition("pricing", filter.OpContains, opts.PricingType))
	}
	return conds
}

// score runs the semantic path and falls back to lexical scoring when
// the outcome asks for it. The fallback is transparent to the caller.
func (s *Service) score(ctx context.Context, processed *query.Processed, candidates []*document.Document) (results []*result.Result, degraded bool) {
	outcome := s.scoring.ScoreSemantic(ctx, processed, candidates)
	if !outcome.NeedsFallback {
		return outcome.Results, false
	}

	if outcome.Err != nil {
		logger.FromContext(ctx).Warn("semantic scoring failed, using lexical path",
			zap.String("reason", outcome.Reason), zap.Error(outcome.Err))
	}
	return s.scoring.ScoreLexical(ctx, processed, candidates), outcome.Reason == scoring.ReasonEmbedError
}

func stageTimer(stage string) func() {
	start := time.Now()
	return func() {
		metrics.SearchStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
