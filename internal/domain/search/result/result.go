package result

import (
	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
)

// Result is a scored search hit flowing through the ranking pipeline.
// Similarity, personalization, diversity, and the final score are always
// clamped to [0,1].
type Result struct {
	doc             *document.Document
	similarity      float64
	personalization float64
	diversity       float64
	final           float64
	snippet         string
	breakdown       map[string]float64
}

// New creates a scored result. Similarity is clamped to [0,1].
func New(doc *document.Document, similarity float64) *Result {
	return &Result{
		doc:        doc,
		similarity: domain.Clamp01(similarity),
		diversity:  1, // until adjusted, a result is maximally diverse
	}
}

// Doc returns the underlying document.
func (r *Result) Doc() *document.Document { return r.doc }

// Similarity returns the clamped similarity score.
func (r *Result) Similarity() float64 { return r.similarity }

// SetSimilarity replaces the similarity, re-clamping to [0,1].
func (r *Result) SetSimilarity(v float64) { r.similarity = domain.Clamp01(v) }

// Boost adds delta to the similarity, re-clamping to [0,1].
func (r *Result) Boost(delta float64) { r.similarity = domain.Clamp01(r.similarity + delta) }

// Personalization returns the personalization factor.
func (r *Result) Personalization() float64 { return r.personalization }

// SetPersonalization sets the personalization factor, clamped to [0,1].
func (r *Result) SetPersonalization(v float64) { r.personalization = domain.Clamp01(v) }

// Diversity returns the diversity factor (1 = unlike the rest of the set).
func (r *Result) Diversity() float64 { return r.diversity }

// SetDiversity sets the diversity factor, clamped to [0,1].
func (r *Result) SetDiversity(v float64) { r.diversity = domain.Clamp01(v) }

// Final returns the combined reranking score.
func (r *Result) Final() float64 { return r.final }

// SetFinal sets the combined reranking score, clamped to [0,1].
func (r *Result) SetFinal(v float64) { r.final = domain.Clamp01(v) }

// Snippet returns the generated snippet.
func (r *Result) Snippet() string { return r.snippet }

// SetSnippet sets the generated snippet.
func (r *Result) SetSnippet(s string) { r.snippet = s }

// Breakdown returns the per-factor sub-scores recorded during reranking.
func (r *Result) Breakdown() map[string]float64 { return r.breakdown }

// RecordFactor stores a named sub-score in the breakdown.
func (r *Result) RecordFactor(name string, v float64) {
	if r.breakdown == nil {
		r.breakdown = make(map[string]float64, 8)
	}
	r.breakdown[name] = v
}
