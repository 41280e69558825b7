package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/repository/profilestore"
)

func TestTrackRecordsEvents(t *testing.T) {
	coll := &stubCollection{}
	svc := newPipeline(t, &stubEmbedder{err: errors.New("unused")}, coll, newStubCache(), &stubAnalytics{})
	ctx := context.Background()

	require.NoError(t, svc.Track(ctx, "u1", "d1", EventClick, 0))
	require.NoError(t, svc.Track(ctx, "u1", "d2", EventFavorite, 0))
	require.NoError(t, svc.Track(ctx, "u1", "d3", EventSkip, 0))
	require.NoError(t, svc.Track(ctx, "u1", "d4", EventFeedback, 4.5))

	store := svc.profiles.(*profilestore.Store)
	prof, err := store.Get(ctx, "u1")
	require.NoError(t, err)

	assert.True(t, prof.HasClicked("d1"))
	assert.True(t, prof.HasFavorited("d2"))
	assert.True(t, prof.HasSkipped("d3"))
	rating, ok := prof.FeedbackFor("d4")
	require.True(t, ok)
	assert.InDelta(t, 4.5, rating, 1e-9)
}

func TestTrackValidation(t *testing.T) {
	svc := newPipeline(t, &stubEmbedder{err: errors.New("unused")}, &stubCollection{}, newStubCache(), &stubAnalytics{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Track(ctx, "", "d1", EventClick, 0), domain.ErrInvalidRequest)
	assert.ErrorIs(t, svc.Track(ctx, "u1", "", EventClick, 0), domain.ErrInvalidRequest)
	assert.ErrorIs(t, svc.Track(ctx, "u1", "d1", "purchase", 0), domain.ErrInvalidRequest)
	assert.ErrorIs(t, svc.Track(ctx, "u1", "d1", EventFeedback, 9), domain.ErrInvalidRequest)
}
