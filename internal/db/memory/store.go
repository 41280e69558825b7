// Package memory implements db.Store as an in-process map. It is the
// default driver: every cache in the pipeline is volatile process state.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/digital-hub-ai/hubsearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Store is a mutex-guarded in-memory key-value store with lazy TTL expiry.
// Concurrent cache misses may both recompute and write; last writer wins,
// which is the accepted semantics for every cache built on top of it.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{items: make(map[string]entry), now: time.Now}
}

// WithClock overrides the time source (tests).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops all entries.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]entry)
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get retrieves a value by key. Expired entries are deleted on access.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.put(key, value, time.Time{})
	return nil
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.put(key, value, s.now().Add(ttl))
	return nil
}

// Del removes a key. Deleting a missing key is not an error.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// IncrBy atomically increments a numeric counter, creating it at zero.
func (s *Store) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if e, ok := s.items[key]; ok {
		if e.expiresAt.IsZero() || s.now().Before(e.expiresAt) {
			n, err := strconv.ParseInt(string(e.value), 10, 64)
			if err != nil {
				return 0, &db.Error{Op: db.OpIncrBy, Err: err}
			}
			current = n
		}
	}
	current += val
	s.items[key] = entry{value: []byte(strconv.FormatInt(current, 10))}
	return current, nil
}

func (s *Store) put(key string, value []byte, expiresAt time.Time) {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = entry{value: stored, expiresAt: expiresAt}
}
