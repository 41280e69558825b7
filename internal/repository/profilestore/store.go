package profilestore

import (
	"context"
	"sync"

	"github.com/digital-hub-ai/hubsearch/internal/domain"
	"github.com/digital-hub-ai/hubsearch/internal/domain/profile"
)

// Store keeps user profiles in process memory. Profiles are created on
// first interaction and live for the process lifetime.
type Store struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile
}

func New() *Store {
	return &Store{profiles: make(map[string]*profile.Profile)}
}

// Get returns the profile for a user or domain.ErrProfileNotFound.
func (s *Store) Get(_ context.Context, userID string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

// GetOrCreate returns the profile for a user, creating an empty one on
// first sight.
func (s *Store) GetOrCreate(_ context.Context, userID string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = profile.New(userID)
		s.profiles[userID] = p
	}
	return p, nil
}

// Update applies fn to the user's profile under the store lock, creating
// the profile first when needed. Mutations outside Update race with
// concurrent readers.
func (s *Store) Update(_ context.Context, userID string, fn func(*profile.Profile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = profile.New(userID)
		s.profiles[userID] = p
	}
	fn(p)
	return nil
}

// Len returns the number of known profiles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}
