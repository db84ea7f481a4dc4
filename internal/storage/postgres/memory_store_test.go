package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/storage"
	"github.com/tokimonsterAI/agent/internal/storage/postgres"
)

func newTestMemory(id, room, user string, createdAt int64) *domain.Memory {
	return &domain.Memory{
		ID:        id,
		AgentID:   "agent-1",
		UserID:    user,
		RoomID:    room,
		CreatedAt: createdAt,
		Content: domain.Content{
			Text:   "gm " + id,
			URL:    "https://x.com/u/status/" + id,
			Source: "twitter",
		},
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMemoryStore(pool)
	ctx := context.Background()

	m := newTestMemory("m1", "room-1", "user-1", 1000)
	m.Content.Action = domain.ActionContinue
	m.Content.InReplyTo = "m0"

	require.NoError(t, store.Create(ctx, m))

	got, err := store.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestMemoryStore_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMemoryStore(pool)
	ctx := context.Background()

	m := newTestMemory("m1", "room-1", "user-1", 1000)
	require.NoError(t, store.Create(ctx, m))

	err := store.Create(ctx, m)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMemoryStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStore_ListByRoom(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMemoryStore(pool)
	ctx := context.Background()

	for _, m := range []*domain.Memory{
		newTestMemory("m3", "room-1", "user-1", 3000),
		newTestMemory("m1", "room-1", "user-1", 1000),
		newTestMemory("m2", "room-1", "agent-1", 2000),
		newTestMemory("x1", "room-2", "user-1", 1500),
	} {
		require.NoError(t, store.Create(ctx, m))
	}

	all, err := store.ListByRoom(ctx, "room-1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "m1", all[0].ID)
	assert.Equal(t, "m2", all[1].ID)
	assert.Equal(t, "m3", all[2].ID)

	recent, err := store.ListByRoom(ctx, "room-1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "m2", recent[0].ID)
	assert.Equal(t, "m3", recent[1].ID)

	byAgent, err := store.ListByAgent(ctx, "agent-1", 10)
	require.NoError(t, err)
	require.Len(t, byAgent, 1)
	assert.Equal(t, "m2", byAgent[0].ID)
}
