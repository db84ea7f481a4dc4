package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tokimonsterAI/agent/internal/storage"
)

// CacheStore is a PostgreSQL implementation of storage.CacheStore.
// Entries are scoped by agent id so several agents can share one database.
type CacheStore struct {
	pool    *Pool
	agentID string
}

// NewCacheStore creates a new PostgreSQL cache store scoped to agentID.
func NewCacheStore(pool *Pool, agentID string) *CacheStore {
	return &CacheStore{pool: pool, agentID: agentID}
}

// Compile-time interface check.
var _ storage.CacheStore = (*CacheStore)(nil)

// Get returns the cached value. Returns ErrNotFound if the key is absent.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT value
		FROM cache
		WHERE agent_id = $1 AND key = $2
	`, s.agentID, key)

	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	return value, nil
}

// Set stores value under key.
func (s *CacheStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO cache (agent_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (agent_id, key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = NOW()
	`, s.agentID, key, value)
	if err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	return nil
}
