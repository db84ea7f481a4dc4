package memory

import (
	"context"
	"sync"

	"github.com/tokimonsterAI/agent/internal/storage"
)

// DeployCounterStore is an in-memory implementation of storage.DeployCounterStore.
type DeployCounterStore struct {
	mu     sync.Mutex
	counts map[string]int // keyed by day
}

// NewDeployCounterStore creates a new in-memory deploy counter store.
func NewDeployCounterStore() *DeployCounterStore {
	return &DeployCounterStore{
		counts: make(map[string]int),
	}
}

// Compile-time interface check.
var _ storage.DeployCounterStore = (*DeployCounterStore)(nil)

// Get returns the number of deploys recorded for day.
func (s *DeployCounterStore) Get(_ context.Context, day string) (int, error) {
	if day == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counts[day], nil
}

// Increment records one deploy for day and returns the new count.
// Days other than the current one are dropped to keep the map bounded.
func (s *DeployCounterStore) Increment(_ context.Context, day string) (int, error) {
	if day == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for d := range s.counts {
		if d != day {
			delete(s.counts, d)
		}
	}
	s.counts[day]++
	return s.counts[day], nil
}
