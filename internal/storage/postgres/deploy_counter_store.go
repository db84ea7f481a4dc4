package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tokimonsterAI/agent/internal/storage"
)

// DeployCounterStore is a PostgreSQL implementation of storage.DeployCounterStore.
// One row per (agent_id, day) in deploy_counters.
type DeployCounterStore struct {
	pool    *Pool
	agentID string
}

// NewDeployCounterStore creates a new PostgreSQL deploy counter store scoped to agentID.
func NewDeployCounterStore(pool *Pool, agentID string) *DeployCounterStore {
	return &DeployCounterStore{pool: pool, agentID: agentID}
}

// Compile-time interface check.
var _ storage.DeployCounterStore = (*DeployCounterStore)(nil)

// Get returns the number of deploys recorded for day.
func (s *DeployCounterStore) Get(ctx context.Context, day string) (int, error) {
	if day == "" {
		return 0, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT count
		FROM deploy_counters
		WHERE agent_id = $1 AND day = $2::date
	`, s.agentID, day)

	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get deploy count: %w", err)
	}
	return count, nil
}

// Increment records one deploy for day and returns the new count.
func (s *DeployCounterStore) Increment(ctx context.Context, day string) (int, error) {
	if day == "" {
		return 0, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO deploy_counters (agent_id, day, count, updated_at)
		VALUES ($1, $2::date, 1, NOW())
		ON CONFLICT (agent_id, day) DO UPDATE
		SET count = deploy_counters.count + 1,
		    updated_at = NOW()
		RETURNING count
	`, s.agentID, day)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("increment deploy count: %w", err)
	}
	return count, nil
}
