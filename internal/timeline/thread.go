package timeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/domain"
)

// DefaultMaxThreadDepth bounds how many ancestors BuildThread fetches.
const DefaultMaxThreadDepth = 50

// PostGetter fetches a post by id.
type PostGetter interface {
	GetCandidate(ctx context.Context, id string) (*domain.Candidate, error)
}

// BuildThread reconstructs the reply chain ending at leaf, root first.
// The walk follows ParentID until a post has no parent, a fetch fails,
// an id repeats, or maxDepth ancestors were fetched. A failed fetch returns the
// partial thread. maxDepth <= 0 uses DefaultMaxThreadDepth.
func BuildThread(ctx context.Context, leaf *domain.Candidate, getter PostGetter, maxDepth int, logger *zap.Logger) domain.Thread {
	if leaf == nil {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxThreadDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Collected leaf first, reversed at the end.
	chain := []*domain.Candidate{leaf}
	visited := map[string]struct{}{leaf.ID: {}}

	current := leaf
	for depth := 0; depth < maxDepth && current.ParentID != ""; depth++ {
		parentID := current.ParentID
		if _, seen := visited[parentID]; seen {
			logger.Warn("reply chain cycle detected", zap.String("post_id", current.ID), zap.String("parent_id", parentID))
			break
		}

		parent, err := getter.GetCandidate(ctx, parentID)
		if err != nil || parent == nil {
			logger.Debug("stop thread walk", zap.String("parent_id", parentID), zap.Error(err))
			break
		}

		visited[parentID] = struct{}{}
		chain = append(chain, parent)
		current = parent
	}

	thread := make(domain.Thread, len(chain))
	for i, c := range chain {
		thread[len(chain)-1-i] = c
	}
	return thread
}
