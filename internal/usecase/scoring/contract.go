package scoring

import (
	"context"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
)

// Embedder vectorizes the query and candidate texts. Satisfied by the
// cached embedder chain.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
