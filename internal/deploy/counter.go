package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/tokimonsterAI/agent/internal/observability"
	"github.com/tokimonsterAI/agent/internal/storage"
)

// DailyCap is the maximum number of live deploys per UTC day. It is fixed.
const DailyCap = 20

// dayLayout keys the counter by calendar day.
const dayLayout = "2006-01-02"

// DailyCounter caps deploy executions per UTC calendar day.
// The count resets implicitly because each day has its own row.
type DailyCounter struct {
	store storage.DeployCounterStore
	cap   int
	now   func() time.Time
}

// NewDailyCounter creates a counter over store capped at DailyCap.
func NewDailyCounter(store storage.DeployCounterStore) *DailyCounter {
	return newDailyCounter(store, DailyCap)
}

func newDailyCounter(store storage.DeployCounterStore, cap int) *DailyCounter {
	return &DailyCounter{store: store, cap: cap, now: time.Now}
}

// WithClock replaces the time source.
func (c *DailyCounter) WithClock(now func() time.Time) *DailyCounter {
	c.now = now
	return c
}

// Cap returns the daily limit.
func (c *DailyCounter) Cap() int { return c.cap }

// Day returns the current counter key.
func (c *DailyCounter) Day() string {
	return c.now().UTC().Format(dayLayout)
}

// Allow reports whether another deploy fits under today's cap.
func (c *DailyCounter) Allow(ctx context.Context) (bool, int, error) {
	n, err := c.store.Get(ctx, c.Day())
	if err != nil {
		return false, 0, fmt.Errorf("get deploy count: %w", err)
	}
	observability.UpdateDeploysToday(n)
	return n < c.cap, n, nil
}

// Increment records one deploy for today and returns the new count.
func (c *DailyCounter) Increment(ctx context.Context) (int, error) {
	n, err := c.store.Increment(ctx, c.Day())
	if err != nil {
		return 0, fmt.Errorf("increment deploy count: %w", err)
	}
	observability.UpdateDeploysToday(n)
	return n, nil
}
