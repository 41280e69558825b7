package collection

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/logger"
	"github.com/digital-hub-ai/hubsearch/internal/metrics"
)

// Source loads the full set of content items from wherever they live.
type Source interface {
	Load(ctx context.Context) ([]document.Document, error)
}

// Repo serves an in-memory snapshot of the collection, refreshed from
// its Source once the snapshot is older than the refresh interval. A
// failed refresh keeps serving the previous snapshot.
type Repo struct {
	source  Source
	refresh time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	docs     []document.Document
	facets   document.Facets
	loadedAt time.Time
}

func NewRepo(source Source, refresh time.Duration) *Repo {
	return &Repo{
		source:  source,
		refresh: refresh,
		now:     time.Now,
	}
}

// WithClock overrides the time source for tests.
func (r *Repo) WithClock(now func() time.Time) *Repo {
	r.now = now
	return r
}

// Snapshot returns the current documents, reloading first when the
// snapshot is stale or missing. Callers must not mutate the slice.
func (r *Repo) Snapshot(ctx context.Context) ([]document.Document, error) {
	r.mu.RLock()
	fresh := !r.loadedAt.IsZero() && r.now().Sub(r.loadedAt) < r.refresh
	docs := r.docs
	r.mu.RUnlock()

	if fresh {
		return docs, nil
	}
	return r.reload(ctx)
}

// Len reports how many documents the current snapshot holds, loading it
// on first use.
func (r *Repo) Len(ctx context.Context) (int, error) {
	docs, err := r.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Facets returns facet counts for the current snapshot, loading it on
// first use.
func (r *Repo) Facets(ctx context.Context) (document.Facets, error) {
	if _, err := r.Snapshot(ctx); err != nil {
		return document.Facets{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.facets, nil
}

func (r *Repo) reload(ctx context.Context) ([]document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if !r.loadedAt.IsZero() && r.now().Sub(r.loadedAt) < r.refresh {
		return r.docs, nil
	}

	docs, err := r.source.Load(ctx)
	if err != nil || len(docs) == 0 {
		if len(r.docs) > 0 {
			// Serve the stale snapshot rather than fail the request.
			logger.FromContext(ctx).Warn("collection refresh failed, serving stale snapshot",
				zap.Int("stale_docs", len(r.docs)), zap.Error(err))
			r.loadedAt = r.now()
			return r.docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCollectionUnavailable, err)
		}
		return nil, domain.ErrCollectionUnavailable
	}

	r.docs = docs
	r.facets = buildFacets(docs)
	r.loadedAt = r.now()
	metrics.CollectionDocuments.Set(float64(len(docs)))

	logger.FromContext(ctx).Info("collection snapshot loaded", zap.Int("documents", len(docs)))
	return r.docs, nil
}

func buildFacets(docs []document.Document) document.Facets {
	categories := make(map[string]int)
	types := make(map[string]int)
	for i := range docs {
		if c := docs[i].Category(); c != "" {
			categories[strings.ToLower(c)]++
		}
		types[string(docs[i].Kind())]++
	}
	return document.Facets{
		Categories: sortedFacets(categories),
		Types:      sortedFacets(types),
	}
}

func sortedFacets(counts map[string]int) []document.Facet {
	facets := make([]document.Facet, 0, len(counts))
	for v, n := range counts {
		facets = append(facets, document.Facet{Value: v, Count: n})
	}
	sort.Slice(facets, func(i, j int) bool {
		if facets[i].Count != facets[j].Count {
			return facets[i].Count > facets[j].Count
		}
		return facets[i].Value < facets[j].Value
	})
	return facets
}
