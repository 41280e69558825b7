package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-hub-ai/hubsearch/internal/db/memory"
)

func TestRecordSearchCountsNormalizedTerms(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(memory.NewStore())

	rec.RecordSearch(ctx, "Image Generator")
	rec.RecordSearch(ctx, "  image   generator ")
	rec.RecordSearch(ctx, "code editor")
	rec.RecordSearch(ctx, "")

	top := rec.TopTerms(10)
	require.Len(t, top, 2)
	assert.Equal(t, TermCount{Term: "image generator", Count: 2}, top[0])
	assert.Equal(t, TermCount{Term: "code editor", Count: 1}, top[1])
}

func TestTopTermsLimit(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(memory.NewStore())

	for _, q := range []string{"a", "b", "b", "c", "c", "c"} {
		rec.RecordSearch(ctx, q)
	}

	top := rec.TopTerms(2)
	require.Len(t, top, 2)
	assert.Equal(t, "c", top[0].Term)
	assert.Equal(t, "b", top[1].Term)
}
