package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/storage"
)

// MemoryStore is an in-memory implementation of storage.MemoryStore.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Memory // keyed by memory id
}

// NewMemoryStore creates a new in-memory memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*domain.Memory),
	}
}

// Compile-time interface check.
var _ storage.MemoryStore = (*MemoryStore)(nil)

// Create adds a new memory. Returns ErrDuplicateKey if the id exists.
func (s *MemoryStore) Create(_ context.Context, m *domain.Memory) error {
	if m == nil || m.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	memCopy := *m
	s.data[m.ID] = &memCopy
	return nil
}

// GetByID retrieves a memory by its id. Returns ErrNotFound if not exists.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	memCopy := *m
	return &memCopy, nil
}

// ListByRoom retrieves the most recent memories of a room, ordered by created_at ASC.
func (s *MemoryStore) ListByRoom(_ context.Context, roomID string, limit int) ([]*domain.Memory, error) {
	return s.list(func(m *domain.Memory) bool { return m.RoomID == roomID }, limit), nil
}

// ListByAgent retrieves the most recent memories authored by the agent, ordered by created_at ASC.
func (s *MemoryStore) ListByAgent(_ context.Context, agentID string, limit int) ([]*domain.Memory, error) {
	return s.list(func(m *domain.Memory) bool { return m.UserID == agentID }, limit), nil
}

// Len returns the number of stored memories.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) list(match func(*domain.Memory) bool, limit int) []*domain.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Memory
	for _, m := range s.data {
		if match(m) {
			memCopy := *m
			result = append(result, &memCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result
}
