package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/idhash"
	"github.com/tokimonsterAI/agent/internal/storage"
)

// EvaluationStore is an in-memory implementation of storage.EvaluationStore.
type EvaluationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EvaluationRecord // keyed by evaluation id
}

// NewEvaluationStore creates a new in-memory evaluation store.
func NewEvaluationStore() *EvaluationStore {
	return &EvaluationStore{
		data: make(map[string]*domain.EvaluationRecord),
	}
}

// Compile-time interface check.
var _ storage.EvaluationStore = (*EvaluationStore)(nil)

// Insert appends a record. Returns ErrDuplicateKey if the same evaluation was recorded.
func (s *EvaluationStore) Insert(_ context.Context, r *domain.EvaluationRecord) error {
	if r == nil || r.RequestID == "" {
		return storage.ErrInvalidInput
	}

	key := idhash.ComputeEvaluationID(r.RequestID, r.UserID, r.EvaluatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	recCopy := *r
	s.data[key] = &recCopy
	return nil
}

// GetByTimeRange retrieves records evaluated within [start, end], ordered by evaluated_at ASC.
func (s *EvaluationStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EvaluationRecord
	for _, r := range s.data {
		if r.EvaluatedAt >= start && r.EvaluatedAt <= end {
			recCopy := *r
			result = append(result, &recCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EvaluatedAt < result[j].EvaluatedAt
	})
	return result, nil
}
