package search

import (
	"context"
	"fmt"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/domain/profile"
)

// Interaction event names accepted by Track.
const (
	EventClick    = "click"
	EventFavorite = "favorite"
	EventSkip     = "skip"
	EventFeedback = "feedback"
)

// Track records a user interaction on the profile. The rating argument
// is only meaningful for feedback events.
func (s *Service) Track(ctx context.Context, userID, docID, event string, rating float64) error {
	if userID == "" {
		return fmt.Errorf("%w: userId is required", domain.ErrInvalidRequest)
	}
	if docID == "" {
		return fmt.Errorf("%w: docId is required", domain.ErrInvalidRequest)
	}

	var fn func(*profile.Profile)
	switch event {
	case EventClick:
		fn = func(p *profile.Profile) { p.RecordClick(docID) }
	case EventFavorite:
		fn = func(p *profile.Profile) { p.RecordFavorite(docID) }
	case EventSkip:
		fn = func(p *profile.Profile) { p.RecordSkip(docID) }
	case EventFeedback:
		if rating < 0 || rating > document.MaxRating {
			return fmt.Errorf("%w: rating must be between 0 and %.0f", domain.ErrInvalidRequest, document.MaxRating)
		}
		fn = func(p *profile.Profile) { p.RecordFeedback(docID, rating) }
	default:
		return fmt.Errorf("%w: unknown event %q", domain.ErrInvalidRequest, event)
	}

	return s.profiles.Update(ctx, userID, fn)
}
