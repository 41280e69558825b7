package profile

import (
	"strings"
	"time"
)

// History caps keep behavioral lists bounded.
const (
	MaxRecentQueries = 50
	MaxRecentClicks  = 200
)

// Feedback is an explicit user rating of a result, on the document scale.
type Feedback struct {
	DocumentID string
	Rating     float64
	At         time.Time
}

// Profile holds a user's preferences and behavioral history.
// Created on first interaction, updated incrementally, volatile for the
// process lifetime; never explicitly deleted.
type Profile struct {
	UserID string

	PreferredCategories []string
	PreferredTags       []string
	PreferredKinds      []string
	MinRating           float64

	RecentQueries []string
	ClickedIDs    []string
	FavoritedIDs  []string
	SkippedIDs    []string
	Feedback      []Feedback

	// Optional demographic/context hints (free-form).
	Hints map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an empty profile for a user.
func New(userID string) *Profile {
	now := time.Now()
	return &Profile{UserID: userID, CreatedAt: now, UpdatedAt: now}
}

// Clone returns an independent copy. Readers outside the store lock work
// on a clone so concurrent updates cannot race with them.
func (p *Profile) Clone() *Profile {
	out := *p
	out.PreferredCategories = append([]string(nil), p.PreferredCategories...)
	out.PreferredTags = append([]string(nil), p.PreferredTags...)
	out.PreferredKinds = append([]string(nil), p.PreferredKinds...)
	out.RecentQueries = append([]string(nil), p.RecentQueries...)
	out.ClickedIDs = append([]string(nil), p.ClickedIDs...)
	out.FavoritedIDs = append([]string(nil), p.FavoritedIDs...)
	out.SkippedIDs = append([]string(nil), p.SkippedIDs...)
	out.Feedback = append([]Feedback(nil), p.Feedback...)
	if p.Hints != nil {
		out.Hints = make(map[string]string, len(p.Hints))
		for k, v := range p.Hints {
			out.Hints[k] = v
		}
	}
	return &out
}

// RecordQuery appends a query to the recent history, trimming to the cap.
func (p *Profile) RecordQuery(q string) {
	p.RecentQueries = appendBounded(p.RecentQueries, q, MaxRecentQueries)
	p.UpdatedAt = time.Now()
}

// RecordClick notes that the user opened a result.
func (p *Profile) RecordClick(docID string) {
	p.ClickedIDs = appendBounded(p.ClickedIDs, docID, MaxRecentClicks)
	p.UpdatedAt = time.Now()
}

// RecordFavorite notes that the user favorited a result.
func (p *Profile) RecordFavorite(docID string) {
	if !contains(p.FavoritedIDs, docID) {
		p.FavoritedIDs = append(p.FavoritedIDs, docID)
	}
	p.UpdatedAt = time.Now()
}

// RecordSkip notes that the user dismissed a result.
func (p *Profile) RecordSkip(docID string) {
	p.SkippedIDs = appendBounded(p.SkippedIDs, docID, MaxRecentClicks)
	p.UpdatedAt = time.Now()
}

// RecordFeedback stores an explicit rating, replacing any previous one for
// the same document.
func (p *Profile) RecordFeedback(docID string, rating float64) {
	for i, f := range p.Feedback {
		if f.DocumentID == docID {
			p.Feedback[i] = Feedback{DocumentID: docID, Rating: rating, At: time.Now()}
			p.UpdatedAt = time.Now()
			return
		}
	}
	p.Feedback = append(p.Feedback, Feedback{DocumentID: docID, Rating: rating, At: time.Now()})
	p.UpdatedAt = time.Now()
}

// HasClicked reports whether the user clicked the document recently.
func (p *Profile) HasClicked(docID string) bool { return contains(p.ClickedIDs, docID) }

// HasFavorited reports whether the user favorited the document.
func (p *Profile) HasFavorited(docID string) bool { return contains(p.FavoritedIDs, docID) }

// HasSkipped reports whether the user dismissed the document.
func (p *Profile) HasSkipped(docID string) bool { return contains(p.SkippedIDs, docID) }

// FeedbackFor returns the explicit rating for a document, if any.
func (p *Profile) FeedbackFor(docID string) (float64, bool) {
	for _, f := range p.Feedback {
		if f.DocumentID == docID {
			return f.Rating, true
		}
	}
	return 0, false
}

// PrefersCategory reports whether the category is in the preference list.
func (p *Profile) PrefersCategory(category string) bool {
	return containsFold(p.PreferredCategories, category)
}

// PrefersAnyTag reports whether any of the tags is preferred.
func (p *Profile) PrefersAnyTag(tags []string) bool {
	for _, t := range tags {
		if containsFold(p.PreferredTags, t) {
			return true
		}
	}
	return false
}

func appendBounded(list []string, v string, cap int) []string {
	list = append(list, v)
	if len(list) > cap {
		list = list[len(list)-cap:]
	}
	return list
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
