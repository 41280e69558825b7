// Package scoring assigns each candidate document a similarity score in
// [0,1]. The semantic path embeds the query and candidates and scores by
// cosine similarity; the lexical path ranks by term matching. The
// orchestrator switches paths based on the Outcome, never on a panic.
package scoring

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/result"
	"github.com/digital-hub-ai/hubsearch/internal/logger"
	"github.com/digital-hub-ai/hubsearch/internal/metrics"
)

// Fallback reasons reported in the Outcome and the fallback counter.
const (
	ReasonFuzzyRequested = "fuzzy_requested"
	ReasonShortQuery     = "short_query"
	ReasonEmbedError     = "embed_error"
)

// Config holds the scoring thresholds.
type Config struct {
	// MinSimilarity is the hard floor: results scoring below it are
	// dropped before any ranking stage runs.
	MinSimilarity float64
	// MinEmbedQueryLen is the minimum residual query length worth
	// embedding; shorter queries go straight to the lexical path.
	MinEmbedQueryLen int
	// FuzzyBlend is the fraction of the fuzzy similarity blended into
	// the base score when fuzzy matching is requested.
	FuzzyBlend float64
	// ChunkSize caps how many candidate texts share one embed call.
	ChunkSize int
	// Workers bounds concurrent embed calls per request.
	Workers int
}

// Outcome is the explicit result of a scoring pass. NeedsFallback tells
// the orchestrator to retry on the lexical path; Err carries the cause
// when there is one.
type Outcome struct {
	Results       []*result.Result
	NeedsFallback bool
	Reason        string
	Err           error
}

// Service scores candidates on the semantic or lexical path.
type Service struct {
	embedder Embedder
	pool     *ants.Pool
	cfg      Config
}

func NewService(embedder Embedder, cfg Config) (*Service, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 32
	}
	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create embed pool: %w", err)
	}
	return &Service{embedder: embedder, pool: pool, cfg: cfg}, nil
}

// Release frees the worker pool. The service must not be used after.
func (s *Service) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// ScoreSemantic embeds the residual query and every candidate and scores
// by cosine similarity. A fallback outcome is returned for fuzzy
// requests, too-short queries, and embedding failures.
func (s *Service) ScoreSemantic(ctx context.Context, p *query.Processed, docs []*document.Document) Outcome {
	if p.Fuzzy {
		return s.fallback(ReasonFuzzyRequested, nil)
	}
	if len([]rune(p.Cleaned)) < s.cfg.MinEmbedQueryLen {
		return s.fallback(ReasonShortQuery, nil)
	}
	if len(docs) == 0 {
		return Outcome{Results: []*result.Result{}}
	}

	queryEmb, err := s.embedder.Embed(ctx, p.Cleaned)
	if err != nil {
		return s.fallback(ReasonEmbedError, fmt.Errorf("embed query: %w", err))
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.SearchText()
	}

	embeddings, err := s.batchEmbedChunked(ctx, texts)
	if err != nil {
		return s.fallback(ReasonEmbedError, fmt.Errorf("embed candidates: %w", err))
	}

	results := make([]*result.Result, 0, len(docs))
	for i, doc := range docs {
		sim := domain.Cosine(queryEmb.Embedding, embeddings[i])
		if sim < s.cfg.MinSimilarity {
			continue
		}
		r := result.New(doc, sim)
		r.SetSnippet(snippet(p, doc))
		results = append(results, r)
	}

	logger.FromContext(ctx).Debug("semantic scoring done",
		zap.Int("candidates", len(docs)),
		zap.Int("kept", len(results)))
	return Outcome{Results: results}
}

// ScoreLexical ranks candidates by term matching, optionally blended
// with fuzzy edit-distance similarity. This path cannot fail.
func (s *Service) ScoreLexical(ctx context.Context, p *query.Processed, docs []*document.Document) []*result.Result {
	results := make([]*result.Result, 0, len(docs))
	for _, doc := range docs {
		score := lexicalScore(p, doc)
		if p.Fuzzy {
			// A short query against the full text scores near zero by
			// edit distance alone, so the title is matched separately.
			fuzzy := fuzzySimilarity(p.Cleaned, strings.ToLower(doc.Title()))
			if full := fuzzySimilarity(p.Cleaned, strings.ToLower(doc.SearchText())); full > fuzzy {
				fuzzy = full
			}
			if fuzzy < p.FuzzyLevel {
				fuzzy = 0
			}
			score = (1-s.cfg.FuzzyBlend)*score + s.cfg.FuzzyBlend*fuzzy
		}
		if score < s.cfg.MinSimilarity {
			continue
		}
		r := result.New(doc, score)
		r.SetSnippet(snippet(p, doc))
		results = append(results, r)
	}

	logger.FromContext(ctx).Debug("lexical scoring done",
		zap.Int("candidates", len(docs)),
		zap.Int("kept", len(results)),
		zap.Bool("fuzzy", p.Fuzzy))
	return results
}

// batchEmbedChunked splits texts into chunks and embeds them through the
// bounded worker pool, preserving input order.
func (s *Service) batchEmbedChunked(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(texts); start += s.cfg.ChunkSize {
		end := start + s.cfg.ChunkSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			res, err := s.embedder.BatchEmbed(ctx, texts[start:end])
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(embeddings[start:], res.Embeddings)
		})
		if submitErr != nil {
			wg.Done()
			return nil, fmt.Errorf("submit embed chunk: %w", submitErr)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return embeddings, nil
}

func (s *Service) fallback(reason string, err error) Outcome {
	metrics.ScoringFallbacksTotal.WithLabelValues(reason).Inc()
	return Outcome{NeedsFallback: true, Reason: reason, Err: err}
}
