// Package stub provides an in-memory timeline.Client for tests.
package stub

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/timeline"
)

// SentReply is a reply recorded by SendReply.
type SentReply struct {
	ID          string
	Text        string
	InReplyToID string
}

// Client implements timeline.Client for testing.
type Client struct {
	mu sync.Mutex

	Self          domain.Profile
	Authenticated bool
	LoginErr      error

	Mentions    []*domain.Candidate
	MentionsErr error
	Recent      map[string][]*domain.Candidate // keyed by lower-case username
	RecentErr   map[string]error
	Posts       map[string]*domain.Candidate
	Accounts    map[string]*domain.Account // keyed by lower-case username
	SendErr     error

	Sent        []SentReply
	LoginCalls  int
	NextID      int64 // id assigned to the next sent reply
	MentionsArg []string
}

// NewClient creates an authenticated stub client for self.
func NewClient(self domain.Profile) *Client {
	return &Client{
		Self:          self,
		Authenticated: true,
		Recent:        make(map[string][]*domain.Candidate),
		RecentErr:     make(map[string]error),
		Posts:         make(map[string]*domain.Candidate),
		Accounts:      make(map[string]*domain.Account),
		NextID:        9000000000000000000,
	}
}

// Compile-time interface check.
var _ timeline.Client = (*Client)(nil)

// IsAuthenticated reports the Authenticated field.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Authenticated
}

// Login records the call and returns LoginErr.
func (c *Client) Login(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LoginCalls++
	if c.LoginErr != nil {
		return c.LoginErr
	}
	c.Authenticated = true
	return nil
}

// Profile returns Self.
func (c *Client) Profile(_ context.Context) (*domain.Profile, error) {
	p := c.Self
	return &p, nil
}

// FetchMentions returns Mentions.
func (c *Client) FetchMentions(_ context.Context, userID string, limit int) ([]*domain.Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.MentionsArg = append(c.MentionsArg, userID)
	if c.MentionsErr != nil {
		return nil, c.MentionsErr
	}
	return limitCandidates(c.Mentions, limit), nil
}

// FetchUserRecent returns Recent[username].
func (c *Client) FetchUserRecent(_ context.Context, username string, limit int) ([]*domain.Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(username)
	if err := c.RecentErr[key]; err != nil {
		return nil, err
	}
	return limitCandidates(c.Recent[key], limit), nil
}

// GetCandidate returns Posts[id], falling back to mentions and sent replies.
func (c *Client) GetCandidate(_ context.Context, id string) (*domain.Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.Posts[id]; ok {
		return p, nil
	}
	for _, m := range c.Mentions {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, timeline.ErrNotFound
}

// LookupAccount returns Accounts[handle] or nil.
func (c *Client) LookupAccount(_ context.Context, handle string) (*domain.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[strings.ToLower(strings.TrimPrefix(handle, "@"))], nil
}

// SendReply records the reply and stores it as a post.
func (c *Client) SendReply(_ context.Context, text, inReplyToID string) (*domain.Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return nil, c.SendErr
	}

	id := strconv.FormatInt(c.NextID, 10)
	c.NextID++

	post := &domain.Candidate{
		ID:           id,
		AuthorID:     c.Self.ID,
		AuthorHandle: c.Self.Username,
		AuthorName:   c.Self.Name,
		Text:         text,
		CreatedAt:    time.Now().Unix(),
		IsReply:      inReplyToID != "",
		ParentID:     inReplyToID,
		PermanentURL: "https://x.com/" + c.Self.Username + "/status/" + id,
	}
	c.Posts[id] = post
	c.Sent = append(c.Sent, SentReply{ID: id, Text: text, InReplyToID: inReplyToID})
	return post, nil
}

// SentReplies returns a copy of the recorded replies.
func (c *Client) SentReplies() []SentReply {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentReply, len(c.Sent))
	copy(out, c.Sent)
	return out
}

func limitCandidates(cs []*domain.Candidate, limit int) []*domain.Candidate {
	if limit > 0 && len(cs) > limit {
		cs = cs[:limit]
	}
	out := make([]*domain.Candidate, len(cs))
	copy(out, cs)
	return out
}
