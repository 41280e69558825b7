package request

import (
	"fmt"
	"strings"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
)

// Search parameter limits.
const (
	MaxQueryLength = 2048
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Options is the caller-supplied options bundle accompanying a query.
// Zero values mean "not specified" and leave room for intent-derived defaults.
type Options struct {
	Limit              int
	Kind               document.Kind
	Category           string
	Subcategory        string
	MinRating          float64
	MinReviews         int
	MaxPrice           float64
	PricingType        string
	FilterExpr         string
	SortBy             query.SortField
	SortOrder          query.SortOrder
	UserID             string
	BoostFavorites     bool
	BoostHistory       bool
	ExcludeDisliked    bool
	Cluster            bool
	AdvancedClustering bool
	ClusterCount       int
}

// Request is a validated search request.
type Request struct {
	rawQuery string
	opts     Options
}

// New validates and normalizes a search request.
// An empty query is rejected before any pipeline stage runs.
func New(rawQuery string, opts Options) (Request, error) {
	trimmed := strings.TrimSpace(rawQuery)
	if trimmed == "" {
		return Request{}, domain.ErrEmptyQuery
	}
	if len(trimmed) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if opts.Limit < 0 {
		return Request{}, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidRequest)
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}
	if opts.Kind != "" && !opts.Kind.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidRequest, opts.Kind)
	}
	if opts.MinRating < 0 || opts.MinRating > document.MaxRating {
		return Request{}, fmt.Errorf("%w: minRating must be between 0 and %.0f", domain.ErrInvalidRequest, document.MaxRating)
	}
	if opts.SortOrder != "" && opts.SortOrder != query.SortAsc && opts.SortOrder != query.SortDesc {
		return Request{}, fmt.Errorf("%w: sortOrder must be asc or desc", domain.ErrInvalidRequest)
	}
	if opts.ClusterCount < 0 {
		return Request{}, fmt.Errorf("%w: clusterCount must not be negative", domain.ErrInvalidRequest)
	}
	return Request{rawQuery: trimmed, opts: opts}, nil
}

// Query returns the trimmed raw query text.
func (r *Request) Query() string { return r.rawQuery }

// Options returns the options bundle.
func (r *Request) Options() Options { return r.opts }

// EffectiveLimit resolves the result limit: explicit limit wins, then the
// intent-derived default, then DefaultLimit.
func (r *Request) EffectiveLimit(intentDefault int) int {
	if r.opts.Limit > 0 {
		return r.opts.Limit
	}
	if intentDefault > 0 {
		return intentDefault
	}
	return DefaultLimit
}

// EffectiveSort resolves the sort: explicit sort wins over the intent default.
// Nil means rank by combined relevance score.
func (r *Request) EffectiveSort(intentDefault *query.Sort) *query.Sort {
	if r.opts.SortBy != "" && r.opts.SortBy != query.SortRelevance {
		order := r.opts.SortOrder
		if order == "" {
			order = query.SortDesc
		}
		return &query.Sort{Field: r.opts.SortBy, Order: order}
	}
	if r.opts.SortBy == query.SortRelevance {
		return nil
	}
	return intentDefault
}
