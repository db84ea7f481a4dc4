package interaction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/observability"
	"github.com/tokimonsterAI/agent/internal/timeline"
)

const (
	// TargetFetchLimit is how many recent posts are fetched per target user.
	TargetFetchLimit = 3

	// TargetRecencyWindow bounds how old a target post may be.
	TargetRecencyWindow = 2 * time.Hour
)

// pickTargets selects at most one fresh post from each target user.
// Fetch failures for one user are logged and do not affect the others.
func (p *Poller) pickTargets(ctx context.Context, cursor *timeline.Cursor) []*domain.Candidate {
	var picks []*domain.Candidate
	now := p.opts.Now()

	for _, username := range p.opts.Config.TargetUsers {
		callCtx, cancel := p.callContext(ctx)
		posts, err := p.opts.Client.FetchUserRecent(callCtx, username, TargetFetchLimit)
		cancel()
		if err != nil {
			p.logger.Warn("fetch target user posts", zap.String("username", username), zap.Error(err))
			continue
		}

		eligible := filterTargetPosts(posts, cursor, now)
		if len(eligible) == 0 {
			continue
		}
		pick := eligible[p.opts.Rand.IntN(len(eligible))]
		p.logger.Debug("selected target post",
			zap.String("username", username),
			zap.String("tweet_id", pick.ID),
		)
		picks = append(picks, pick)
	}

	observability.RecordCandidatesFetched("target", len(picks))
	return picks
}

// filterTargetPosts keeps new original posts created within the recency window.
func filterTargetPosts(posts []*domain.Candidate, cursor *timeline.Cursor, now time.Time) []*domain.Candidate {
	var out []*domain.Candidate
	for _, c := range posts {
		if c.IsReply || c.IsRetweet || !cursor.IsNew(c.ID) {
			continue
		}
		if now.Sub(c.CreatedTime()) > TargetRecencyWindow {
			continue
		}
		out = append(out, c)
	}
	return out
}
