// Package interaction runs the mention and target-user poll loop: it selects
// new posts, decides whether to answer, replies, and dispatches actions.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/action"
	"github.com/tokimonsterAI/agent/internal/character"
	"github.com/tokimonsterAI/agent/internal/config"
	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/idhash"
	"github.com/tokimonsterAI/agent/internal/llm"
	"github.com/tokimonsterAI/agent/internal/observability"
	"github.com/tokimonsterAI/agent/internal/prompt"
	"github.com/tokimonsterAI/agent/internal/storage"
	"github.com/tokimonsterAI/agent/internal/timeline"
)

// MentionLimit is how many recent mentions are fetched per cycle.
const MentionLimit = 100

const sourceTwitter = "twitter"

// PollerOptions contains configuration for creating a Poller.
type PollerOptions struct {
	Client    timeline.Client
	LLM       llm.Provider
	Character *character.Character
	Config    *config.Config
	Memories  storage.MemoryStore
	Cursors   storage.CursorStore
	Cache     storage.CacheStore
	Processor *action.Processor // optional
	Logger    *zap.Logger

	Now   func() time.Time                                 // Default: time.Now
	Rand  *rand.Rand                                       // Default: seeded from the clock
	Sleep func(ctx context.Context, d time.Duration) error // Default: timer honoring ctx
}

// Poller processes mentions and target-user posts once per poll interval.
// A single goroutine owns the cursor; Cycle must not be called concurrently.
type Poller struct {
	opts    PollerOptions
	logger  *zap.Logger
	decider *RespondDecider
	replies *ReplyGenerator

	agentID string
	self    *domain.Profile
	cursor  *timeline.Cursor
}

// NewPoller creates a poller. Client, LLM, Character, Config, Memories,
// Cursors and Cache are required.
func NewPoller(opts PollerOptions) (*Poller, error) {
	switch {
	case opts.Client == nil:
		return nil, errors.New("interaction: timeline client is required")
	case opts.LLM == nil:
		return nil, errors.New("interaction: llm provider is required")
	case opts.Character == nil:
		return nil, errors.New("interaction: character is required")
	case opts.Config == nil:
		return nil, errors.New("interaction: config is required")
	case opts.Memories == nil || opts.Cursors == nil || opts.Cache == nil:
		return nil, errors.New("interaction: memory, cursor and cache stores are required")
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		seed := uint64(opts.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}

	logger := opts.Logger.With(zap.String("component", "interaction"))
	return &Poller{
		opts:    opts,
		logger:  logger,
		decider: NewRespondDecider(opts.LLM, logger),
		replies: NewReplyGenerator(opts.LLM),
		agentID: idhash.AgentID(opts.Character.Name),
	}, nil
}

// Start logs in if needed, loads the agent profile and the persisted cursor.
func (p *Poller) Start(ctx context.Context) error {
	if !p.opts.Client.IsAuthenticated() {
		if err := p.opts.Client.Login(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	callCtx, cancel := p.callContext(ctx)
	self, err := p.opts.Client.Profile(callCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	p.self = self

	callCtx, cancel = p.callContext(ctx)
	cursor, err := timeline.LoadCursor(callCtx, p.opts.Cursors, idhash.CursorKey(self.Username))
	cancel()
	if err != nil {
		return err
	}
	p.cursor = cursor

	p.logger.Info("interaction poller started",
		zap.String("username", self.Username),
		zap.String("cursor", cursor.Value()),
		zap.Bool("dry_run", p.opts.Config.DryRun),
		zap.Strings("target_users", p.opts.Config.TargetUsers),
	)
	return nil
}

// Run starts the poller and runs cycles until ctx is cancelled.
// Cycles are serial with a fixed delay between the end of one and the start
// of the next.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}

	interval := p.opts.Config.PollInterval()
	for {
		if err := p.Cycle(ctx); err != nil {
			p.logger.Warn("poll cycle failed", zap.Error(err))
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("interaction poller stopping")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Cycle runs one poll cycle. Candidate failures are logged and never abort the
// cycle; a failed mention fetch ends it without touching the cursor.
func (p *Poller) Cycle(ctx context.Context) error {
	if p.self == nil || p.cursor == nil {
		return errors.New("interaction: poller not started")
	}

	start := p.opts.Now()
	if !p.opts.Client.IsAuthenticated() {
		p.logger.Warn("not authenticated, skipping cycle")
		observability.RecordPollCycle("skipped", p.opts.Now().Sub(start))
		return nil
	}

	callCtx, cancel := p.callContext(ctx)
	mentions, err := p.opts.Client.FetchMentions(callCtx, p.self.ID, MentionLimit)
	cancel()
	if err != nil {
		observability.RecordPollCycle("error", p.opts.Now().Sub(start))
		return fmt.Errorf("fetch mentions: %w", err)
	}
	observability.RecordCandidatesFetched("mention", len(mentions))

	candidates := dedupe(append(mentions, p.pickTargets(ctx, p.cursor)...))
	timeline.SortCandidates(candidates)

	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		if !p.cursor.IsNew(c.ID) {
			observability.RecordCandidateSkipped("seen")
			continue
		}
		advance, err := p.process(ctx, c)
		if err != nil {
			// Stop here so the cursor stays below c and it is retried next cycle.
			p.logger.Error("candidate processing halted", zap.String("tweet_id", c.ID), zap.Error(err))
			break
		}
		if advance {
			p.cursor.Advance(c.ID)
		}
	}

	saveCtx, cancel := p.callContext(context.WithoutCancel(ctx))
	err = timeline.SaveCursor(saveCtx, p.opts.Cursors, idhash.CursorKey(p.self.Username), p.cursor)
	cancel()
	if err != nil {
		observability.RecordPollCycle("error", p.opts.Now().Sub(start))
		return err
	}

	observability.RecordPollCycle("success", p.opts.Now().Sub(start))
	p.logger.Debug("poll cycle finished",
		zap.Int("candidates", len(candidates)),
		zap.String("cursor", p.cursor.Value()),
	)
	return nil
}

// Cursor returns the current cursor position.
func (p *Poller) Cursor() string {
	if p.cursor == nil {
		return ""
	}
	return p.cursor.Value()
}

// process handles one candidate and reports whether the cursor may advance
// past it. An error means the candidate could not be checked for a previous
// run and the rest of the cycle must wait.
func (p *Poller) process(ctx context.Context, c *domain.Candidate) (bool, error) {
	logger := p.logger.With(zap.String("tweet_id", c.ID), zap.String("author", c.AuthorHandle))
	memoryID := idhash.MemoryID(c.ID, p.agentID)

	callCtx, cancel := p.callContext(ctx)
	_, err := p.opts.Memories.GetByID(callCtx, memoryID)
	cancel()
	switch {
	case err == nil:
		observability.RecordCandidateSkipped("processed")
		return false, nil
	case !errors.Is(err, storage.ErrNotFound):
		observability.RecordCandidateSkipped("lookup_error")
		return false, fmt.Errorf("memory lookup %s: %w", memoryID, err)
	}

	if c.AuthorID == p.self.ID {
		observability.RecordCandidateSkipped("self")
		return false, nil
	}
	if c.Text == "" {
		logger.Debug("skipping empty post")
		observability.RecordCandidateSkipped("empty")
		return true, nil
	}

	thread := timeline.BuildThread(ctx, c, p.opts.Client, timeline.DefaultMaxThreadDepth, logger)

	conversationID := c.ConversationID
	if conversationID == "" {
		conversationID = c.ID
	}
	roomID := idhash.RoomID(conversationID, p.agentID)
	userID := idhash.UserID(c.AuthorID)

	state := p.composeState(ctx, c, thread, roomID, userID)

	incoming := &domain.Memory{
		ID:      memoryID,
		AgentID: p.agentID,
		UserID:  userID,
		RoomID:  roomID,
		Content: domain.Content{
			Text:   c.Text,
			URL:    c.PermanentURL,
			Source: sourceTwitter,
		},
		CreatedAt: c.CreatedAt * 1000,
	}
	if c.ParentID != "" {
		incoming.Content.InReplyTo = idhash.MemoryID(c.ParentID, p.agentID)
	}
	p.saveMemories(ctx, []*domain.Memory{incoming})

	decision := p.decide(ctx, state)
	logger.Info("respond decision", zap.String("decision", decision.String()))
	if decision != domain.DecisionRespond {
		return true, nil
	}

	p.respond(ctx, logger, c, thread, incoming, state)
	return true, nil
}

func (p *Poller) decide(ctx context.Context, state *prompt.State) domain.Decision {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return p.decider.Decide(callCtx, state)
}

// respond generates, sends and records a reply, then dispatches its action.
// Failures are logged; the candidate still counts as processed.
func (p *Poller) respond(ctx context.Context, logger *zap.Logger, c *domain.Candidate, thread domain.Thread, incoming *domain.Memory, state *prompt.State) {
	callCtx, cancel := p.callContext(ctx)
	content, promptText, err := p.replies.Generate(callCtx, state)
	cancel()
	if err != nil {
		logger.Error("reply generation failed", zap.Error(err))
		observability.RecordReply("generation_error")
		return
	}
	if content.Text == "" {
		logger.Warn("model returned an empty reply")
		observability.RecordReply("empty")
		return
	}
	content.InReplyTo = incoming.ID

	memories, err := p.sendContent(ctx, *content, c.ID, incoming.RoomID)
	p.saveMemories(ctx, memories)
	if err != nil {
		logger.Error("send reply failed", zap.Error(err))
		return
	}

	p.refreshState(ctx, state, c, incoming.RoomID, incoming.UserID)

	if p.opts.Processor != nil {
		req := &action.Request{
			Message: incoming,
			State:   state,
			Payload: &domain.ClientPayload{Twitter: &domain.TwitterPayload{
				ID:       c.ID,
				UserID:   c.AuthorID,
				Username: c.AuthorHandle,
				URL:      c.PermanentURL,
			}},
			Photos: thread.Photos(),
		}
		p.opts.Processor.Process(ctx, req, memories, p.actionCallback(c, incoming.RoomID))
	}

	p.saveTranscript(ctx, logger, c, promptText, content.Text)

	minDelay, maxDelay := p.opts.Config.ReplyDelay()
	if err := p.opts.Sleep(ctx, p.randomDelay(minDelay, maxDelay)); err != nil {
		logger.Debug("reply delay interrupted", zap.Error(err))
	}
}

func (p *Poller) saveTranscript(ctx context.Context, logger *zap.Logger, c *domain.Candidate, promptText, output string) {
	transcript := fmt.Sprintf("Context:\n\n%s\n\nSelected Post: %s - %s: %s\nAgent's Output:\n%s",
		promptText, c.ID, c.AuthorHandle, c.Text, output)

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	if err := p.opts.Cache.Set(callCtx, idhash.TranscriptKey(c.ID), []byte(transcript)); err != nil {
		logger.Warn("save transcript", zap.Error(err))
	}
}

func (p *Poller) randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(p.opts.Rand.Int64N(int64(max-min)+1))
}

func (p *Poller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := p.opts.Config.CallTimeout()
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// dedupe drops repeated ids, keeping the first occurrence.
func dedupe(cs []*domain.Candidate) []*domain.Candidate {
	seen := make(map[string]struct{}, len(cs))
	out := cs[:0]
	for _, c := range cs {
		if c == nil {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
