// Package timeline is the social platform boundary: fetching posts and
// accounts, posting replies, and the cursor that bounds reprocessing.
package timeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/tokimonsterAI/agent/internal/domain"
)

// Client defines the platform operations the agent consumes.
type Client interface {
	// IsAuthenticated reports whether the last Login succeeded.
	IsAuthenticated() bool

	// Login verifies credentials against the platform.
	Login(ctx context.Context) error

	// Profile returns the authenticated agent account.
	Profile(ctx context.Context) (*domain.Profile, error)

	// FetchMentions returns up to limit most recent posts mentioning userID.
	FetchMentions(ctx context.Context, userID string, limit int) ([]*domain.Candidate, error)

	// FetchUserRecent returns up to limit most recent posts authored by username.
	FetchUserRecent(ctx context.Context, username string, limit int) ([]*domain.Candidate, error)

	// GetCandidate fetches a single post by id. Returns ErrNotFound if missing.
	GetCandidate(ctx context.Context, id string) (*domain.Candidate, error)

	// LookupAccount fetches an account by handle.
	// Returns nil, nil when the account does not exist.
	LookupAccount(ctx context.Context, handle string) (*domain.Account, error)

	// SendReply posts text as a reply to inReplyToID and returns the created post.
	SendReply(ctx context.Context, text, inReplyToID string) (*domain.Candidate, error)
}

// ErrNotFound is returned when a post does not exist or is not visible.
var ErrNotFound = errors.New("post not found")

// ErrNotAuthenticated is returned by operations attempted before Login succeeded.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is a non-retryable error response from the platform API.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("timeline api error %d: %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("timeline api error %d: %s", e.StatusCode, e.Title)
}
