package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/storage"
)

// MemoryStore implements storage.MemoryStore using PostgreSQL.
type MemoryStore struct {
	pool *Pool
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore(pool *Pool) *MemoryStore {
	return &MemoryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MemoryStore = (*MemoryStore)(nil)

// Create adds a new memory. Returns ErrDuplicateKey if the id exists.
func (s *MemoryStore) Create(ctx context.Context, m *domain.Memory) error {
	if m == nil || m.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO memories (
			id, agent_id, user_id, room_id, text, action, url, in_reply_to, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		m.ID,
		m.AgentID,
		m.UserID,
		m.RoomID,
		m.Content.Text,
		m.Content.Action,
		m.Content.URL,
		m.Content.InReplyTo,
		m.Content.Source,
		m.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// GetByID retrieves a memory by its id. Returns ErrNotFound if not exists.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Memory, error) {
	query := `
		SELECT id, agent_id, user_id, room_id, text, action, url, in_reply_to, source, created_at
		FROM memories
		WHERE id = $1
	`

	row := s.pool.QueryRow(ctx, query, id)
	m, err := scanMemory(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get memory by id: %w", err)
	}
	return m, nil
}

// ListByRoom retrieves the most recent memories of a room, ordered by created_at ASC.
func (s *MemoryStore) ListByRoom(ctx context.Context, roomID string, limit int) ([]*domain.Memory, error) {
	query := `
		SELECT id, agent_id, user_id, room_id, text, action, url, in_reply_to, source, created_at
		FROM (
			SELECT * FROM memories
			WHERE room_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, roomID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("list memories by room: %w", err)
	}
	defer rows.Close()

	return scanMemories(rows)
}

// ListByAgent retrieves the most recent memories authored by the agent, ordered by created_at ASC.
func (s *MemoryStore) ListByAgent(ctx context.Context, agentID string, limit int) ([]*domain.Memory, error) {
	query := `
		SELECT id, agent_id, user_id, room_id, text, action, url, in_reply_to, source, created_at
		FROM (
			SELECT * FROM memories
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, agentID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("list memories by agent: %w", err)
	}
	defer rows.Close()

	return scanMemories(rows)
}

// limitOrAll maps a non-positive limit to "no limit" (NULL in LIMIT).
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

func scanMemory(row pgx.Row) (*domain.Memory, error) {
	var m domain.Memory
	err := row.Scan(
		&m.ID,
		&m.AgentID,
		&m.UserID,
		&m.RoomID,
		&m.Content.Text,
		&m.Content.Action,
		&m.Content.URL,
		&m.Content.InReplyTo,
		&m.Content.Source,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMemories(rows pgx.Rows) ([]*domain.Memory, error) {
	var result []*domain.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}
	return result, nil
}
