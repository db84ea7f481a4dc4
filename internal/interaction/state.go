package interaction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/prompt"
)

const (
	recentMessagesLimit = 20
	recentPostsLimit    = 10
	loreLimit           = 10
)

// composeState builds the prompt context for a post within its thread.
func (p *Poller) composeState(ctx context.Context, c *domain.Candidate, thread domain.Thread, roomID, userID string) *prompt.State {
	char := p.opts.Character
	state := &prompt.State{
		AgentName:             char.Name,
		TwitterUserName:       p.self.Username,
		Bio:                   char.BioText(),
		Lore:                  char.LoreText(loreLimit),
		Topics:                char.TopicsText(),
		Knowledge:             char.KnowledgeText(),
		CharacterPostExamples: char.PostExamplesText(),
		PostDirections:        char.PostDirectionsText(),
		CurrentPost:           prompt.FormatPost(c),
		FormattedConversation: prompt.FormatThread(thread, time.UTC),
		PriorityUsers:         p.opts.Config.TargetUsers,
	}
	if p.opts.Processor != nil {
		state.ActionNames = p.opts.Processor.Names()
		state.Actions = p.opts.Processor.Descriptions()
	}
	p.refreshState(ctx, state, c, roomID, userID)
	return state
}

// refreshState reloads the conversation and own-post history into state.
func (p *Poller) refreshState(ctx context.Context, state *prompt.State, c *domain.Candidate, roomID, userID string) {
	names := map[string]string{
		p.agentID: p.opts.Character.Name,
		userID:    c.AuthorHandle,
	}

	callCtx, cancel := p.callContext(ctx)
	messages, err := p.opts.Memories.ListByRoom(callCtx, roomID, recentMessagesLimit)
	cancel()
	if err != nil {
		p.logger.Warn("list room memories", zap.String("room_id", roomID), zap.Error(err))
	} else {
		state.RecentMessages = prompt.FormatMemories(messages, names)
	}

	callCtx, cancel = p.callContext(ctx)
	posts, err := p.opts.Memories.ListByAgent(callCtx, p.agentID, recentPostsLimit)
	cancel()
	if err != nil {
		p.logger.Warn("list agent memories", zap.Error(err))
	} else {
		state.RecentPosts = prompt.FormatRecentPosts(p.opts.Character.Name, posts)
	}
}
