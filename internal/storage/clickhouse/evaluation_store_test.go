package clickhouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/storage"
	"github.com/tokimonsterAI/agent/internal/storage/clickhouse"
)

func TestEvaluationStore_InsertAndQuery(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewEvaluationStore(conn)
	ctx := context.Background()

	records := []*domain.EvaluationRecord{
		{
			RequestID:   "req-2",
			UserID:      "user-1",
			Username:    "alice",
			TokenName:   "Moon Cat",
			TokenSymbol: "MCAT",
			Scores:      domain.Scores{Virality: 120, Storytelling: 100, Innovation: 30, Mood: 40},
			TotalScore:  290,
			Approved:    true,
			Eligible:    true,
			EvaluatedAt: 2000,
		},
		{
			RequestID:   "req-1",
			UserID:      "user-2",
			TokenName:   "Dull",
			Scores:      domain.Scores{Virality: 10},
			TotalScore:  10,
			Reason:      "score below threshold",
			EvaluatedAt: 1000,
		},
	}
	for _, r := range records {
		require.NoError(t, store.Insert(ctx, r))
	}

	got, err := store.GetByTimeRange(ctx, 0, 5000)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "req-1", got[0].RequestID)
	assert.False(t, got[0].Approved)
	assert.Equal(t, "score below threshold", got[0].Reason)

	assert.Equal(t, "req-2", got[1].RequestID)
	assert.True(t, got[1].Approved)
	assert.True(t, got[1].Eligible)
	assert.Equal(t, 290, got[1].TotalScore)
	assert.Equal(t, 120, got[1].Scores.Virality)

	got, err = store.GetByTimeRange(ctx, 1500, 5000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "req-2", got[0].RequestID)
}

func TestEvaluationStore_Duplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewEvaluationStore(conn)
	ctx := context.Background()

	r := &domain.EvaluationRecord{RequestID: "req-1", UserID: "u", EvaluatedAt: 1000}
	require.NoError(t, store.Insert(ctx, r))

	err := store.Insert(ctx, r)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
