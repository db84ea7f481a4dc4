package timeline

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/storage"
)

// CompareIDs compares two post ids numerically.
// Ids are decimal strings wider than float64 precision, so lexical order is wrong
// ("9" sorts before "10"). Non-numeric ids fall back to length then lexical order.
func CompareIDs(a, b string) int {
	x, okA := new(big.Int).SetString(a, 10)
	y, okB := new(big.Int).SetString(b, 10)
	if okA && okB {
		return x.Cmp(y)
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// SortCandidates sorts candidates ascending by id in place.
func SortCandidates(cs []*domain.Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		return CompareIDs(cs[i].ID, cs[j].ID) < 0
	})
}

// Cursor tracks the highest post id already processed.
// It only moves forward.
type Cursor struct {
	value string
}

// NewCursor creates a cursor positioned at lastSeenID. Empty means unset.
func NewCursor(lastSeenID string) *Cursor {
	return &Cursor{value: lastSeenID}
}

// IsNew reports whether id is beyond the cursor.
func (c *Cursor) IsNew(id string) bool {
	return c.value == "" || CompareIDs(id, c.value) > 0
}

// Advance moves the cursor to id if id is beyond it.
func (c *Cursor) Advance(id string) {
	if id != "" && c.IsNew(id) {
		c.value = id
	}
}

// Value returns the current position, empty when unset.
func (c *Cursor) Value() string {
	return c.value
}

// LoadCursor reads the cursor persisted under key. A missing cursor is unset.
func LoadCursor(ctx context.Context, store storage.CursorStore, key string) (*Cursor, error) {
	v, err := store.GetCursor(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewCursor(""), nil
		}
		return nil, fmt.Errorf("load cursor: %w", err)
	}
	return NewCursor(v), nil
}

// SaveCursor persists the cursor under key. An unset cursor is not written.
func SaveCursor(ctx context.Context, store storage.CursorStore, key string, c *Cursor) error {
	if c.Value() == "" {
		return nil
	}
	if err := store.SetCursor(ctx, key, c.Value()); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}
