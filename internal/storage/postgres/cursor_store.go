package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tokimonsterAI/agent/internal/storage"
)

// CursorStore is a PostgreSQL implementation of storage.CursorStore.
// One row per cursor key in poll_cursors.
type CursorStore struct {
	pool *Pool
}

// NewCursorStore creates a new PostgreSQL cursor store.
func NewCursorStore(pool *Pool) *CursorStore {
	return &CursorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CursorStore = (*CursorStore)(nil)

// GetCursor returns the last checked post id for key.
func (s *CursorStore) GetCursor(ctx context.Context, key string) (string, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT last_seen_id
		FROM poll_cursors
		WHERE cursor_key = $1
	`, key)

	var lastSeenID string
	if err := row.Scan(&lastSeenID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get cursor: %w", err)
	}
	return lastSeenID, nil
}

// SetCursor saves the last checked post id for key.
// Uses upsert to handle initial insert and subsequent updates.
func (s *CursorStore) SetCursor(ctx context.Context, key, lastSeenID string) error {
	if key == "" || lastSeenID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO poll_cursors (cursor_key, last_seen_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (cursor_key) DO UPDATE
		SET last_seen_id = EXCLUDED.last_seen_id,
		    updated_at = NOW()
	`, key, lastSeenID)
	if err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	return nil
}
