package health

import "context"

// StorePinger checks cache store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// CollectionChecker checks that the document collection is servable.
type CollectionChecker interface {
	Len(ctx context.Context) (int, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
