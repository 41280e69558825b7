package domain

import "errors"

var (
	// ErrEmptyQuery signals a missing or blank search query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInvalidRequest signals malformed search parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCollectionUnavailable signals that no document snapshot could be served.
	ErrCollectionUnavailable = errors.New("document collection unavailable")
	// ErrProfileNotFound signals a missing user profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)
