// Package chi exposes the search pipeline over HTTP with hand-written
// handlers on the go-chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/query"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/request"
	healthuc "github.com/digital-hub-ai/hubsearch/internal/usecase/health"
	searchuc "github.com/digital-hub-ai/hubsearch/internal/usecase/search"
)

// Error codes returned in the error response body.
const (
	codeBadRequest            = "bad_request"
	codeMissingQuery          = "missing_query"
	codeValidationFailed      = "validation_failed"
	codeCollectionUnavailable = "collection_unavailable"
	codeProfileNotFound       = "profile_not_found"
	codeEmbeddingProvider     = "embedding_provider_error"
	codeNotImplemented        = "not_implemented"
	codeInternalError         = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeMissingQuery),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrProfileNotFound, http.StatusNotFound, codeProfileNotFound),
		sentinelHandler(domain.ErrCollectionUnavailable, http.StatusServiceUnavailable, codeCollectionUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, codeNotImplemented),
	}
	return s
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeBadRequest, "not found")
	})

	r.Get("/api/search", s.handleSearch)
	r.Post("/api/search/track", s.handleTrack)
	r.Get("/api/facets", s.handleFacets)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// handleSearch handles GET /api/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromQuery(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// TrackRequest is the POST /api/search/track body.
type TrackRequest struct {
	UserID string  `json:"userId"`
	DocID  string  `json:"docId"`
	Event  string  `json:"event"`
	Rating float64 `json:"rating,omitempty"`
}

// handleTrack handles POST /api/search/track.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.search.Track(r.Context(), req.UserID, req.DocID, req.Event, req.Rating); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleFacets handles GET /api/facets.
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := s.search.Facets(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"facets":  facets,
	})
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// searchRequestFromQuery parses and validates the search query string.
func searchRequestFromQuery(r *http.Request) (request.Request, error) {
	q := r.URL.Query()

	opts := request.Options{
		Kind:        document.Kind(q.Get("type")),
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		PricingType: q.Get("pricingType"),
		FilterExpr:  q.Get("filter"),
		UserID:      q.Get("userId"),
	}

	var err error
	if opts.Limit, err = queryInt(q.Get("limit")); err != nil {
		return request.Request{}, fmt.Errorf("%w: limit: %v", domain.ErrInvalidRequest, err)
	}
	if opts.MinRating, err = queryFloat(q.Get("minRating")); err != nil {
		return request.Request{}, fmt.Errorf("%w: minRating: %v", domain.ErrInvalidRequest, err)
	}
	if opts.MinReviews, err = queryInt(q.Get("minReviews")); err != nil {
		return request.Request{}, fmt.Errorf("%w: minReviews: %v", domain.ErrInvalidRequest, err)
	}
	if opts.MaxPrice, err = queryFloat(q.Get("maxPrice")); err != nil {
		return request.Request{}, fmt.Errorf("%w: maxPrice: %v", domain.ErrInvalidRequest, err)
	}
	if opts.ClusterCount, err = queryInt(q.Get("clusterCount")); err != nil {
		return request.Request{}, fmt.Errorf("%w: clusterCount: %v", domain.ErrInvalidRequest, err)
	}
	if opts.BoostFavorites, err = queryBool(q.Get("boostFavorites")); err != nil {
		return request.Request{}, fmt.Errorf("%w: boostFavorites: %v", domain.ErrInvalidRequest, err)
	}
	if opts.BoostHistory, err = queryBool(q.Get("boostHistory")); err != nil {
		return request.Request{}, fmt.Errorf("%w: boostHistory: %v", domain.ErrInvalidRequest, err)
	}
	if opts.ExcludeDisliked, err = queryBool(q.Get("excludeDisliked")); err != nil {
		return request.Request{}, fmt.Errorf("%w: excludeDisliked: %v", domain.ErrInvalidRequest, err)
	}
	if opts.Cluster, err = queryBool(q.Get("cluster")); err != nil {
		return request.Request{}, fmt.Errorf("%w: cluster: %v", domain.ErrInvalidRequest, err)
	}
	if opts.AdvancedClustering, err = queryBool(q.Get("advancedClustering")); err != nil {
		return request.Request{}, fmt.Errorf("%w: advancedClustering: %v", domain.ErrInvalidRequest, err)
	}

	if opts.SortBy, err = sortFieldFromQuery(q.Get("sortBy")); err != nil {
		return request.Request{}, err
	}
	opts.SortOrder = query.SortOrder(q.Get("sortOrder"))

	return request.New(q.Get("q"), opts)
}

func sortFieldFromQuery(v string) (query.SortField, error) {
	switch f := query.SortField(v); f {
	case "", query.SortRelevance, query.SortRating, query.SortDate, query.SortPrice, query.SortViews:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown sortBy %q", domain.ErrInvalidRequest, v)
	}
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func queryFloat(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

func queryBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidRequest,
		domain.ErrProfileNotFound,
		domain.ErrCollectionUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
