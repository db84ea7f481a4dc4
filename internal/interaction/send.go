package interaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/action"
	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/idhash"
	"github.com/tokimonsterAI/agent/internal/observability"
	"github.com/tokimonsterAI/agent/internal/storage"
)

// sendContent posts content as a reply chain under inReplyToID and returns one
// memory per posted part. All but the last part are tagged CONTINUE; the last
// carries content.Action. In dry run nothing is posted and ids are synthetic.
func (p *Poller) sendContent(ctx context.Context, content domain.Content, inReplyToID, roomID string) ([]*domain.Memory, error) {
	parts := SplitContent(content.Text, p.opts.Config.MaxTweetLength)
	if len(parts) == 0 {
		return nil, nil
	}

	memories := make([]*domain.Memory, 0, len(parts))
	parentID := inReplyToID
	for i, part := range parts {
		postID, url, err := p.postPart(ctx, part, parentID)
		if err != nil {
			observability.RecordReply("error")
			return memories, fmt.Errorf("send reply part %d/%d: %w", i+1, len(parts), err)
		}
		observability.RecordReply(p.replyStatus())

		tag := domain.ActionContinue
		if i == len(parts)-1 {
			tag = content.Action
		}
		memories = append(memories, &domain.Memory{
			ID:      idhash.MemoryID(postID, p.agentID),
			AgentID: p.agentID,
			UserID:  p.agentID,
			RoomID:  roomID,
			Content: domain.Content{
				Text:      part,
				Action:    tag,
				URL:       url,
				InReplyTo: idhash.MemoryID(parentID, p.agentID),
				Source:    sourceTwitter,
			},
			CreatedAt: p.opts.Now().UnixMilli(),
		})
		parentID = postID
	}
	return memories, nil
}

func (p *Poller) postPart(ctx context.Context, text, parentID string) (id, url string, err error) {
	if p.opts.Config.DryRun {
		id = uuid.NewString()
		p.logger.Info("dry run: reply not sent",
			zap.String("in_reply_to", parentID),
			zap.String("text", text),
		)
		return id, "", nil
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	post, err := p.opts.Client.SendReply(callCtx, text, parentID)
	if err != nil {
		return "", "", err
	}
	return post.ID, post.PermanentURL, nil
}

func (p *Poller) replyStatus() string {
	if p.opts.Config.DryRun {
		return "dry_run"
	}
	return "sent"
}

// saveMemories persists memories, skipping ones that already exist.
func (p *Poller) saveMemories(ctx context.Context, memories []*domain.Memory) {
	for _, m := range memories {
		callCtx, cancel := p.callContext(ctx)
		err := p.opts.Memories.Create(callCtx, m)
		cancel()
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			p.logger.Warn("save memory", zap.String("memory_id", m.ID), zap.Error(err))
		}
	}
}

// actionCallback returns the callback an action uses to reply in the
// conversation of c.
func (p *Poller) actionCallback(c *domain.Candidate, roomID string) action.Callback {
	return func(ctx context.Context, content domain.Content) ([]*domain.Memory, error) {
		if content.Source == "" {
			content.Source = sourceTwitter
		}
		memories, err := p.sendContent(ctx, content, c.ID, roomID)
		p.saveMemories(ctx, memories)
		return memories, err
	}
}
