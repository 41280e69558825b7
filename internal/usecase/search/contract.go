package search

import (
	"context"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/profile"
)

// Collection serves document snapshots and their facet summary.
type Collection interface {
	Snapshot(ctx context.Context) ([]document.Document, error)
	Facets(ctx context.Context) (document.Facets, error)
}

// ProfileStore applies profile mutations under its own lock, creating
// profiles on first sight.
type ProfileStore interface {
	Update(ctx context.Context, userID string, fn func(*profile.Profile)) error
}

// ResultCache stores serialized responses with a TTL.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte)
}

// Analytics counts search terms.
type Analytics interface {
	RecordSearch(ctx context.Context, query string)
}
