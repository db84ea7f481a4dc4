package interaction

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"

	"github.com/tokimonsterAI/agent/internal/action"
	"github.com/tokimonsterAI/agent/internal/character"
	"github.com/tokimonsterAI/agent/internal/config"
	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/idhash"
	llmstub "github.com/tokimonsterAI/agent/internal/llm/stub"
	"github.com/tokimonsterAI/agent/internal/storage"
	"github.com/tokimonsterAI/agent/internal/storage/memory"
	"github.com/tokimonsterAI/agent/internal/timeline"
	"github.com/tokimonsterAI/agent/internal/timeline/stub"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

var self = domain.Profile{ID: "100", Username: "tokimonster", Name: "Tokimonster"}

const cursorKey = "twitter/tokimonster/latest_checked_tweet_id"

type fixture struct {
	client   *stub.Client
	llm      *llmstub.Provider
	memories *memory.MemoryStore
	cursors  *memory.CursorStore
	cache    *memory.CacheStore
	cfg      *config.Config
	char     *character.Character
	sleeps   []time.Duration

	// lookupErrs fails memory lookups for the given memory ids.
	lookupErrs map[string]error

	decision string
	reply    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cache, err := memory.NewCacheStore(64)
	require.NoError(t, err)

	f := &fixture{
		client:   stub.NewClient(self),
		memories: memory.NewMemoryStore(),
		cursors:  memory.NewCursorStore(),
		cache:    cache,
		cfg: &config.Config{
			Username:            self.Username,
			MaxTweetLength:      config.DefaultMaxTweetLength,
			PollIntervalSeconds: 1,
			ReplyMinDelayMs:     1000,
			ReplyMaxDelayMs:     3000,
			CallTimeoutSeconds:  5,
		},
		char: &character.Character{
			Name:   "Tokimonster",
			Bio:    []string{"A monster that mints tokens."},
			Topics: []string{"memes", "aptos"},
		},
		decision: "[RESPOND]",
		reply:    `{"text": "gm fren", "action": "NONE"}`,
	}
	f.llm = &llmstub.Provider{
		Text:   func(string) (string, error) { return f.decision, nil },
		Object: func(string, *genai.Schema) (string, error) { return f.reply, nil },
	}
	return f
}

func (f *fixture) newPoller(t *testing.T, processor *action.Processor) *Poller {
	t.Helper()

	p, err := NewPoller(PollerOptions{
		Client:    f.client,
		LLM:       f.llm,
		Character: f.char,
		Config:    f.cfg,
		Memories:  &lookupFailingStore{MemoryStore: f.memories, errs: f},
		Cursors:   f.cursors,
		Cache:     f.cache,
		Processor: processor,
		Now:       func() time.Time { return testNow },
		Rand:      rand.New(rand.NewPCG(1, 2)),
		Sleep: func(_ context.Context, d time.Duration) error {
			f.sleeps = append(f.sleeps, d)
			return nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	return p
}

// lookupFailingStore wraps a memory store and fails GetByID for selected ids.
type lookupFailingStore struct {
	storage.MemoryStore
	errs *fixture
}

func (s *lookupFailingStore) GetByID(ctx context.Context, id string) (*domain.Memory, error) {
	if err, ok := s.errs.lookupErrs[id]; ok {
		return nil, err
	}
	return s.MemoryStore.GetByID(ctx, id)
}

func mention(id, text string) *domain.Candidate {
	return &domain.Candidate{
		ID:             id,
		AuthorID:       "200",
		AuthorHandle:   "alice",
		AuthorName:     "Alice",
		Text:           text,
		CreatedAt:      testNow.Add(-time.Minute).Unix(),
		ConversationID: id,
		PermanentURL:   "https://x.com/alice/status/" + id,
	}
}

func targetPost(id, author string, age time.Duration) *domain.Candidate {
	return &domain.Candidate{
		ID:             id,
		AuthorID:       "3" + id,
		AuthorHandle:   author,
		AuthorName:     author,
		Text:           "post " + id,
		CreatedAt:      testNow.Add(-age).Unix(),
		ConversationID: id,
		PermanentURL:   "https://x.com/" + author + "/status/" + id,
	}
}

func (f *fixture) savedCursor(t *testing.T) string {
	t.Helper()
	v, err := f.cursors.GetCursor(context.Background(), cursorKey)
	require.NoError(t, err)
	return v
}

func TestCycle_RespondsToMention(t *testing.T) {
	f := newFixture(t)
	f.client.Mentions = []*domain.Candidate{mention("1850000000000000001", "@tokimonster gm")}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	sent := f.client.SentReplies()
	require.Len(t, sent, 1)
	assert.Equal(t, "gm fren", sent[0].Text)
	assert.Equal(t, "1850000000000000001", sent[0].InReplyToID)

	assert.Equal(t, "1850000000000000001", f.savedCursor(t))

	transcript, err := f.cache.Get(context.Background(), "twitter/tweet_generation_1850000000000000001.txt")
	require.NoError(t, err)
	assert.Contains(t, string(transcript), "Selected Post: 1850000000000000001 - alice: @tokimonster gm")
	assert.Contains(t, string(transcript), "Agent's Output:\ngm fren")

	agentID := idhash.AgentID(f.char.Name)
	incoming, err := f.memories.GetByID(context.Background(), idhash.MemoryID("1850000000000000001", agentID))
	require.NoError(t, err)
	assert.Equal(t, "@tokimonster gm", incoming.Content.Text)
	assert.Equal(t, idhash.UserID("200"), incoming.UserID)

	reply, err := f.memories.GetByID(context.Background(), idhash.MemoryID(sent[0].ID, agentID))
	require.NoError(t, err)
	assert.Equal(t, agentID, reply.UserID)
	assert.Equal(t, incoming.ID, reply.Content.InReplyTo)
	assert.Equal(t, incoming.RoomID, reply.RoomID)

	require.Len(t, f.sleeps, 1)
	assert.GreaterOrEqual(t, f.sleeps[0], time.Second)
	assert.LessOrEqual(t, f.sleeps[0], 3*time.Second)
}

func TestCycle_ProcessesInNumericOrder(t *testing.T) {
	f := newFixture(t)
	f.client.Mentions = []*domain.Candidate{mention("10", "ten"), mention("9", "nine")}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	sent := f.client.SentReplies()
	require.Len(t, sent, 2)
	assert.Equal(t, "9", sent[0].InReplyToID)
	assert.Equal(t, "10", sent[1].InReplyToID)
	assert.Equal(t, "10", f.savedCursor(t))
}

func TestCycle_SkipsPostsAtOrBelowCursor(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.cursors.SetCursor(context.Background(), cursorKey, "20"))
	f.client.Mentions = []*domain.Candidate{mention("19", "old"), mention("20", "same"), mention("21", "new")}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	sent := f.client.SentReplies()
	require.Len(t, sent, 1)
	assert.Equal(t, "21", sent[0].InReplyToID)
}

func TestCycle_IdempotentAcrossRestart(t *testing.T) {
	f := newFixture(t)
	f.client.Mentions = []*domain.Candidate{mention("42", "gm")}

	p := f.newPoller(t, nil)
	require.NoError(t, p.Cycle(context.Background()))
	require.Len(t, f.client.SentReplies(), 1)

	// A lost cursor must not cause a second reply.
	f.cursors = memory.NewCursorStore()
	restarted := f.newPoller(t, nil)
	require.NoError(t, restarted.Cycle(context.Background()))

	assert.Len(t, f.client.SentReplies(), 1)
	assert.Equal(t, "", restarted.Cursor())
}

func TestCycle_IgnoreAdvancesCursor(t *testing.T) {
	f := newFixture(t)
	f.decision = "[IGNORE]"
	f.client.Mentions = []*domain.Candidate{mention("7", "unrelated")}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	assert.Empty(t, f.client.SentReplies())
	assert.Empty(t, f.llm.ObjectPrompts)
	assert.Equal(t, "7", f.savedCursor(t))
	assert.Equal(t, 1, f.memories.Len())
}

func TestCycle_ClassifierFailureIsIgnore(t *testing.T) {
	f := newFixture(t)
	f.llm.Text = func(string) (string, error) { return "", errors.New("model unavailable") }
	f.client.Mentions = []*domain.Candidate{mention("7", "gm")}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	assert.Empty(t, f.client.SentReplies())
	assert.Equal(t, "7", f.savedCursor(t))
}

func TestCycle_MentionFetchErrorLeavesCursor(t *testing.T) {
	f := newFixture(t)
	f.client.MentionsErr = errors.New("rate limited")
	p := f.newPoller(t, nil)

	err := p.Cycle(context.Background())
	require.Error(t, err)

	_, err = f.cursors.GetCursor(context.Background(), cursorKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, f.llm.TextPrompts)
}

func TestCycle_LookupErrorHoldsCursorBelowCandidate(t *testing.T) {
	f := newFixture(t)
	f.client.Mentions = []*domain.Candidate{mention("5", "gm"), mention("6", "gm"), mention("7", "gm")}
	f.lookupErrs = map[string]error{
		idhash.MemoryID("6", idhash.AgentID(f.char.Name)): errors.New("connection reset"),
	}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))
	assert.Equal(t, "5", f.savedCursor(t))
	assert.Len(t, f.client.SentReplies(), 1)

	f.lookupErrs = nil
	require.NoError(t, p.Cycle(context.Background()))
	assert.Equal(t, "7", f.savedCursor(t))
	assert.Len(t, f.client.SentReplies(), 3)
}

func TestCycle_SkipsOwnPosts(t *testing.T) {
	f := newFixture(t)
	own := mention("5", "my own post")
	own.AuthorID = self.ID
	own.AuthorHandle = self.Username
	f.client.Mentions = []*domain.Candidate{own}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	assert.Empty(t, f.client.SentReplies())
	assert.Empty(t, f.llm.TextPrompts)
	assert.Equal(t, "", p.Cursor())
}

func TestCycle_EmptyTextAdvances(t *testing.T) {
	f := newFixture(t)
	f.client.Mentions = []*domain.Candidate{mention("5", "")}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	assert.Empty(t, f.llm.TextPrompts)
	assert.Equal(t, "5", f.savedCursor(t))
}

func TestCycle_NotAuthenticatedSkips(t *testing.T) {
	f := newFixture(t)
	f.client.Mentions = []*domain.Candidate{mention("5", "gm")}
	p := f.newPoller(t, nil)
	f.client.Authenticated = false

	require.NoError(t, p.Cycle(context.Background()))
	assert.Empty(t, f.client.SentReplies())
}

func TestCycle_SendFailureStillAdvances(t *testing.T) {
	f := newFixture(t)
	f.client.SendErr = errors.New("403 forbidden")
	f.client.Mentions = []*domain.Candidate{mention("8", "gm")}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))
	assert.Equal(t, "8", f.savedCursor(t))
}

func TestCycle_DryRunDoesNotPost(t *testing.T) {
	f := newFixture(t)
	f.cfg.DryRun = true
	f.client.Mentions = []*domain.Candidate{mention("8", "gm")}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	assert.Empty(t, f.client.SentReplies())
	assert.Equal(t, "8", f.savedCursor(t))

	posts, err := f.memories.ListByAgent(context.Background(), idhash.AgentID(f.char.Name), 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "gm fren", posts[0].Content.Text)
}

func TestCycle_SplitsLongReplies(t *testing.T) {
	f := newFixture(t)
	f.cfg.MaxTweetLength = 12
	f.reply = `{"text": "hello world\n\nsecond part", "action": "NONE"}`
	f.client.Mentions = []*domain.Candidate{mention("8", "gm")}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	sent := f.client.SentReplies()
	require.Len(t, sent, 2)
	assert.Equal(t, "hello world", sent[0].Text)
	assert.Equal(t, "8", sent[0].InReplyToID)
	assert.Equal(t, "second part", sent[1].Text)
	assert.Equal(t, sent[0].ID, sent[1].InReplyToID)

	agentID := idhash.AgentID(f.char.Name)
	first, err := f.memories.GetByID(context.Background(), idhash.MemoryID(sent[0].ID, agentID))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionContinue, first.Content.Action)

	last, err := f.memories.GetByID(context.Background(), idhash.MemoryID(sent[1].ID, agentID))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionNone, last.Content.Action)
}

func TestCycle_PicksOneTargetPostPerUser(t *testing.T) {
	f := newFixture(t)
	f.cfg.TargetUsers = []string{"bob"}
	f.client.Recent["bob"] = []*domain.Candidate{
		targetPost("31", "bob", 10*time.Minute),
		targetPost("32", "bob", 20*time.Minute),
		targetPost("33", "bob", 30*time.Minute),
	}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	sent := f.client.SentReplies()
	require.Len(t, sent, 1)
	assert.Contains(t, []string{"31", "32", "33"}, sent[0].InReplyToID)
}

func TestCycle_NoTargetsWhenNoneConfigured(t *testing.T) {
	f := newFixture(t)
	f.client.Recent["bob"] = []*domain.Candidate{targetPost("31", "bob", time.Minute)}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))
	assert.Empty(t, f.client.SentReplies())
}

func TestCycle_TargetFetchErrorIsIsolated(t *testing.T) {
	f := newFixture(t)
	f.cfg.TargetUsers = []string{"bob", "carol"}
	f.client.RecentErr["bob"] = errors.New("suspended")
	f.client.Recent["carol"] = []*domain.Candidate{targetPost("40", "carol", time.Minute)}
	p := f.newPoller(t, nil)

	require.NoError(t, p.Cycle(context.Background()))

	sent := f.client.SentReplies()
	require.Len(t, sent, 1)
	assert.Equal(t, "40", sent[0].InReplyToID)
}

func TestFilterTargetPosts(t *testing.T) {
	reply := targetPost("51", "bob", time.Minute)
	reply.IsReply = true
	retweet := targetPost("52", "bob", time.Minute)
	retweet.IsRetweet = true
	stale := targetPost("53", "bob", 3*time.Hour)
	seen := targetPost("10", "bob", time.Minute)
	fresh := targetPost("54", "bob", time.Hour)

	cursor := timeline.NewCursor("20")
	got := filterTargetPosts([]*domain.Candidate{reply, retweet, stale, seen, fresh}, cursor, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, "54", got[0].ID)
}

type recordingAction struct {
	requests []*action.Request
	reply    string
}

func (a *recordingAction) Name() string        { return "RECORD" }
func (a *recordingAction) Similes() []string   { return nil }
func (a *recordingAction) Description() string { return "records requests" }

func (a *recordingAction) Validate(context.Context, *action.Request) (bool, error) {
	return true, nil
}

func (a *recordingAction) Handle(ctx context.Context, req *action.Request, cb action.Callback) error {
	a.requests = append(a.requests, req)
	_, err := cb(ctx, domain.Content{Text: a.reply, Action: domain.ActionNone})
	return err
}

func TestCycle_DispatchesTaggedAction(t *testing.T) {
	f := newFixture(t)
	f.reply = `{"text": "on it", "action": "RECORD"}`
	m := mention("60", "deploy a token")
	m.Attachments = []domain.Attachment{{URL: "https://pbs.twimg.com/media/a.jpg"}}
	f.client.Mentions = []*domain.Candidate{m}

	rec := &recordingAction{reply: "done"}
	p := f.newPoller(t, action.NewProcessor(nil, rec))

	require.NoError(t, p.Cycle(context.Background()))

	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	require.True(t, req.Payload.Valid())
	assert.Equal(t, "alice", req.Payload.Username())
	assert.Equal(t, "60", req.Payload.Twitter.ID)
	assert.Equal(t, "deploy a token", req.Message.Content.Text)
	assert.Equal(t, m.Attachments, req.Photos)
	assert.Contains(t, req.State.Actions, "RECORD: records requests")

	sent := f.client.SentReplies()
	require.Len(t, sent, 2)
	assert.Equal(t, "on it", sent[0].Text)
	assert.Equal(t, "done", sent[1].Text)
	assert.Equal(t, "60", sent[1].InReplyToID)

	assert.Contains(t, f.llm.ObjectPrompts[0], "RECORD")
}

func TestRun_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	f.client.Mentions = []*domain.Candidate{mention("5", "gm")}

	p, err := NewPoller(PollerOptions{
		Client:    f.client,
		LLM:       f.llm,
		Character: f.char,
		Config:    f.cfg,
		Memories:  f.memories,
		Cursors:   f.cursors,
		Cache:     f.cache,
		Sleep:     func(context.Context, time.Duration) error { return nil },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		v, err := f.cursors.GetCursor(context.Background(), cursorKey)
		return err == nil && v == "5"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_LoginFailure(t *testing.T) {
	f := newFixture(t)
	f.client.Authenticated = false
	f.client.LoginErr = errors.New("bad credentials")

	p, err := NewPoller(PollerOptions{
		Client:    f.client,
		LLM:       f.llm,
		Character: f.char,
		Config:    f.cfg,
		Memories:  f.memories,
		Cursors:   f.cursors,
		Cache:     f.cache,
	})
	require.NoError(t, err)

	err = p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")
}

func TestNewPoller_RequiresDependencies(t *testing.T) {
	_, err := NewPoller(PollerOptions{})
	require.Error(t, err)
}

func TestDedupe(t *testing.T) {
	in := []*domain.Candidate{mention("1", "a"), nil, mention("2", "b"), mention("1", "c")}
	out := dedupe(in)

	ids := make([]string, len(out))
	for i, c := range out {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"1", "2"}, ids)
	assert.Equal(t, "a", out[0].Text)
}

func TestRandomDelayBounds(t *testing.T) {
	f := newFixture(t)
	p := f.newPoller(t, nil)

	for i := 0; i < 100; i++ {
		d := p.randomDelay(time.Second, 3*time.Second)
		assert.GreaterOrEqual(t, d, time.Second, strconv.Itoa(i))
		assert.LessOrEqual(t, d, 3*time.Second, strconv.Itoa(i))
	}
	assert.Equal(t, time.Second, p.randomDelay(time.Second, time.Second))
}
