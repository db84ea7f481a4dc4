package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/storage"
)

func TestCursorStore(t *testing.T) {
	store := NewCursorStore()
	ctx := context.Background()

	if _, err := store.GetCursor(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.SetCursor(ctx, "k", "1866503040001245184"); err != nil {
		t.Fatalf("SetCursor failed: %v", err)
	}
	got, err := store.GetCursor(ctx, "k")
	if err != nil || got != "1866503040001245184" {
		t.Errorf("GetCursor = %q, %v", got, err)
	}
	if err := store.SetCursor(ctx, "k", ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCacheStore_Eviction(t *testing.T) {
	store, err := NewCacheStore(2)
	if err != nil {
		t.Fatalf("NewCacheStore failed: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Set(ctx, fmt.Sprintf("k%d", i), []byte{byte(i)}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if _, err := store.Get(ctx, "k0"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected oldest key to be evicted, got %v", err)
	}
	v, err := store.Get(ctx, "k2")
	if err != nil || len(v) != 1 || v[0] != 2 {
		t.Errorf("Get(k2) = %v, %v", v, err)
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", store.Len())
	}
}

func TestDeployCounterStore_PerDay(t *testing.T) {
	store := NewDeployCounterStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := store.Increment(ctx, "2026-10-15")
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if n != i {
			t.Errorf("Increment returned %d, want %d", n, i)
		}
	}

	n, _ := store.Increment(ctx, "2026-10-16")
	if n != 1 {
		t.Errorf("new day should start at 1, got %d", n)
	}
	if old, _ := store.Get(ctx, "2026-10-15"); old != 0 {
		t.Errorf("previous day should be dropped, got %d", old)
	}
}

func TestEvaluationStore(t *testing.T) {
	store := NewEvaluationStore()
	ctx := context.Background()

	r := &domain.EvaluationRecord{RequestID: "req-1", UserID: "u", EvaluatedAt: 200, Approved: true}
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	_ = store.Insert(ctx, &domain.EvaluationRecord{RequestID: "req-2", EvaluatedAt: 100})
	_ = store.Insert(ctx, &domain.EvaluationRecord{RequestID: "req-3", EvaluatedAt: 900})

	got, err := store.GetByTimeRange(ctx, 50, 500)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 || got[0].RequestID != "req-2" || got[1].RequestID != "req-1" {
		t.Errorf("unexpected records: %+v", got)
	}
}
