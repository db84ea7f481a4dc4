package memory

import (
	"context"
	"sync"

	"github.com/tokimonsterAI/agent/internal/storage"
)

// CursorStore is an in-memory implementation of storage.CursorStore.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[string]string
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(map[string]string),
	}
}

// Compile-time interface check.
var _ storage.CursorStore = (*CursorStore)(nil)

// GetCursor returns the last checked post id for key.
func (s *CursorStore) GetCursor(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.cursors[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// SetCursor saves the last checked post id for key.
func (s *CursorStore) SetCursor(_ context.Context, key, lastSeenID string) error {
	if key == "" || lastSeenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[key] = lastSeenID
	return nil
}
