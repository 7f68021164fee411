// Package memory provides an in-memory Store for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/probelab/pagecheck/internal/clock"
	"github.com/probelab/pagecheck/internal/store"
)

// Store keeps URLs and checks in process memory behind a mutex. IDs are
// assigned from monotonic counters so ordering matches the Postgres driver.
type Store struct {
	mu     sync.RWMutex
	clk    clock.Clock
	urls   []store.URL
	checks map[int64][]store.Check

	nextURLID   int64
	nextCheckID int64
}

// New constructs an empty Store stamping records with clk.
func New(clk clock.Clock) *Store {
	return &Store{
		clk:    clk,
		checks: make(map[int64][]store.Check),
	}
}

// GetOrCreateURL returns the URL registered under address, creating it on
// first sight. The mutex stands in for the database uniqueness constraint.
func (s *Store) GetOrCreateURL(_ context.Context, address string) (store.URL, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.urls {
		if u.Address == address {
			return u, false, nil
		}
	}
	s.nextURLID++
	u := store.URL{
		ID:        s.nextURLID,
		Address:   address,
		CreatedAt: s.clk.Now(),
	}
	s.urls = append(s.urls, u)
	return u, true, nil
}

// GetURL returns the URL with the given id, or store.ErrNotFound.
func (s *Store) GetURL(_ context.Context, id int64) (store.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.urls {
		if u.ID == id {
			return u, nil
		}
	}
	return store.URL{}, store.ErrNotFound
}

// ListURLs returns every registered URL in ascending id order.
func (s *Store) ListURLs(_ context.Context) ([]store.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.URL, len(s.urls))
	copy(out, s.urls)
	return out, nil
}

// InsertCheck appends a check to its URL's history.
func (s *Store) InsertCheck(_ context.Context, check store.Check) (store.Check, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.urlExists(check.URLID) {
		return store.Check{}, store.ErrNotFound
	}
	s.nextCheckID++
	check.ID = s.nextCheckID
	if check.CreatedAt.IsZero() {
		check.CreatedAt = s.clk.Now()
	}
	s.checks[check.URLID] = append(s.checks[check.URLID], check)
	return check, nil
}

// ListChecks returns the history for a URL, newest first.
func (s *Store) ListChecks(_ context.Context, urlID int64) ([]store.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.urlExists(urlID) {
		return nil, store.ErrNotFound
	}
	history := s.checks[urlID]
	out := make([]store.Check, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// LatestChecks returns the most recent check per URL id.
func (s *Store) LatestChecks(_ context.Context) (map[int64]store.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[int64]store.Check)
	for urlID, history := range s.checks {
		for _, c := range history {
			best, ok := latest[urlID]
			if !ok || newer(c, best) {
				latest[urlID] = c
			}
		}
	}
	return latest, nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) urlExists(id int64) bool {
	for _, u := range s.urls {
		if u.ID == id {
			return true
		}
	}
	return false
}

func newer(a, b store.Check) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
