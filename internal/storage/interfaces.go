package storage

import (
	"context"

	"github.com/tokimonsterAI/agent/internal/domain"
)

// MemoryStore provides access to durable conversation records.
type MemoryStore interface {
	// Create adds a new memory. Returns ErrDuplicateKey if the id exists.
	Create(ctx context.Context, m *domain.Memory) error

	// GetByID retrieves a memory by its id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Memory, error)

	// ListByRoom retrieves the most recent memories of a room, ordered by created_at ASC.
	ListByRoom(ctx context.Context, roomID string, limit int) ([]*domain.Memory, error)

	// ListByAgent retrieves the most recent memories authored by the agent, ordered by created_at ASC.
	ListByAgent(ctx context.Context, agentID string, limit int) ([]*domain.Memory, error)
}

// CursorStore persists the poll cursor between cycles and restarts.
type CursorStore interface {
	// GetCursor returns the last checked post id for key.
	// Returns ErrNotFound if no cursor has been saved yet.
	GetCursor(ctx context.Context, key string) (string, error)

	// SetCursor saves the last checked post id for key.
	SetCursor(ctx context.Context, key, lastSeenID string) error
}

// CacheStore is a scoped key/value cache.
type CacheStore interface {
	// Get returns the cached value. Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// DeployCounterStore tracks deploy executions per calendar day.
type DeployCounterStore interface {
	// Get returns the number of deploys recorded for day (YYYY-MM-DD, UTC).
	// Returns 0 when nothing was recorded.
	Get(ctx context.Context, day string) (int, error)

	// Increment records one deploy for day and returns the new count.
	Increment(ctx context.Context, day string) (int, error)
}

// EvaluationStore is an append-only log of deploy evaluations.
type EvaluationStore interface {
	// Insert appends a record. Returns ErrDuplicateKey if the same evaluation was recorded.
	Insert(ctx context.Context, r *domain.EvaluationRecord) error

	// GetByTimeRange retrieves records evaluated within [start, end] (inclusive, ms),
	// ordered by evaluated_at ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.EvaluationRecord, error)
}
