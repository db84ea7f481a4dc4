package deploy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokimonsterAI/agent/internal/storage/memory"
)

func TestDailyCounter_CapAndRollover(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 23, 59, 0, 0, time.UTC)
	counter := newDailyCounter(memory.NewDeployCounterStore(), 2).WithClock(func() time.Time { return now })

	ok, n, err := counter.Allow(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	for i := 0; i < 2; i++ {
		_, err := counter.Increment(ctx)
		require.NoError(t, err)
	}

	ok, n, err = counter.Allow(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, n)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, "2026-10-16", counter.Day())
	ok, _, err = counter.Allow(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDailyCounter_UsesUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	counter := NewDailyCounter(memory.NewDeployCounterStore()).
		WithClock(func() time.Time { return time.Date(2026, 10, 16, 3, 0, 0, 0, loc) })

	assert.Equal(t, "2026-10-15", counter.Day())
}

func TestNewDailyCounter_FixedCap(t *testing.T) {
	ctx := context.Background()
	counter := NewDailyCounter(memory.NewDeployCounterStore())
	assert.Equal(t, 20, counter.Cap())

	for i := 0; i < 20; i++ {
		ok, _, err := counter.Allow(ctx)
		require.NoError(t, err)
		require.True(t, ok, "deploy %d", i+1)
		_, err = counter.Increment(ctx)
		require.NoError(t, err)
	}

	ok, n, err := counter.Allow(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 20, n)
}
