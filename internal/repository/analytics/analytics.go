package analytics

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/db"
	"github.com/digital-hub-ai/hubsearch/internal/logger"
)

const keyPrefix = "hubsearch:term_count:"

// TermCount is one search term with its running counter.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Recorder counts normalized search terms in the key-value store and
// keeps a local term index so popular terms can be listed without a
// store scan. Recording is best-effort; failures are logged, never
// returned to the search path.
type Recorder struct {
	store db.KVStore

	mu    sync.Mutex
	terms map[string]int64
}

func NewRecorder(store db.KVStore) *Recorder {
	return &Recorder{store: store, terms: make(map[string]int64)}
}

// RecordSearch bumps the counter for a normalized query.
func (r *Recorder) RecordSearch(ctx context.Context, query string) {
	term := Normalize(query)
	if term == "" {
		return
	}

	count, err := r.store.IncrBy(ctx, keyPrefix+term, 1)
	if err != nil {
		logger.FromContext(ctx).Warn("search term count failed",
			zap.String("term", term), zap.Error(err))
		return
	}

	r.mu.Lock()
	r.terms[term] = count
	r.mu.Unlock()
}

// TopTerms returns the n most searched terms seen by this process,
// most frequent first.
func (r *Recorder) TopTerms(n int) []TermCount {
	r.mu.Lock()
	counts := make([]TermCount, 0, len(r.terms))
	for term, count := range r.terms {
		counts = append(counts, TermCount{Term: term, Count: count})
	}
	r.mu.Unlock()

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Term < counts[j].Term
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// Normalize lowercases a query and collapses runs of whitespace.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
