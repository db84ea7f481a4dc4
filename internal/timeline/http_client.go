package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dghubble/oauth1"
	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.twitter.com"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// X API v2 page size bounds.
const (
	minMentionsPage = 5
	minSearchPage   = 10
	maxPage         = 100
)

const (
	tweetFields = "created_at,author_id,conversation_id,referenced_tweets,attachments"
	expansions  = "author_id,attachments.media_keys"
	mediaFields = "url,type"
	userFields  = "created_at,protected,withheld,public_metrics"
)

// Credentials are the OAuth 1.0a user-context keys of the agent account.
type Credentials struct {
	AppKey       string
	AppSecret    string
	AccessToken  string
	AccessSecret string
}

// HTTPClient implements Client over the X API v2.
type HTTPClient struct {
	baseURL       string
	client        *http.Client
	maxRetries    int
	retryDelay    time.Duration
	maxDelay      time.Duration
	backoffMult   float64
	loginAttempts int
	username      string
	logger        *zap.Logger
	authenticated atomic.Bool
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *HTTPClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts per request.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithLoginAttempts sets how many times Login tries before giving up.
func WithLoginAttempts(n int) ClientOption {
	return func(c *HTTPClient) {
		c.loginAttempts = n
	}
}

// WithExpectedUsername makes Login warn when the credentials belong to another account.
func WithExpectedUsername(username string) ClientOption {
	return func(c *HTTPClient) {
		c.username = username
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom http.Client. Requests are sent unsigned.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a client whose requests are signed with creds.
func NewHTTPClient(creds Credentials, opts ...ClientOption) *HTTPClient {
	base := &http.Client{Timeout: DefaultTimeout}
	config := oauth1.NewConfig(creds.AppKey, creds.AppSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	signed := config.Client(context.WithValue(context.Background(), oauth1.HTTPClient, base), token)
	signed.Timeout = DefaultTimeout

	c := &HTTPClient{
		baseURL:       DefaultBaseURL,
		client:        signed,
		maxRetries:    DefaultMaxRetries,
		retryDelay:    DefaultRetryDelay,
		maxDelay:      DefaultMaxDelay,
		backoffMult:   DefaultBackoffMult,
		loginAttempts: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.loginAttempts < 1 {
		c.loginAttempts = 1
	}
	return c
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// apiErrorItem is one entry of the v2 "errors" array.
type apiErrorItem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Status int    `json:"status"`
}

// do performs a request with retries and exponential backoff.
// Transport errors, 429 and 5xx are retried for GET only, since a repeated
// POST can create a second post. Other statuses are returned as APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, payload interface{}, result interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	start := time.Now()
	retries := c.maxRetries
	if method != http.MethodGet {
		retries = 0
	}
	err := c.doWithRetry(ctx, method, endpoint, body, result, retries)
	observability.RecordExternalCall("timeline", method+" "+routeName(path), time.Since(start), err)
	return err
}

func (c *HTTPClient) doWithRetry(ctx context.Context, method, endpoint string, body []byte, result interface{}, maxRetries int) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return decodeAPIError(resp.StatusCode, respBody)
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func decodeAPIError(status int, body []byte) error {
	var payload struct {
		Title  string         `json:"title"`
		Detail string         `json:"detail"`
		Errors []apiErrorItem `json:"errors"`
	}
	apiErr := &APIError{StatusCode: status, Title: http.StatusText(status)}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Title != "" {
			apiErr.Title = payload.Title
			apiErr.Detail = payload.Detail
		} else if len(payload.Errors) > 0 {
			apiErr.Title = payload.Errors[0].Title
			apiErr.Detail = payload.Errors[0].Detail
		}
	}
	return apiErr
}

// routeName collapses ids out of path so metric labels stay bounded.
func routeName(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if i == 0 {
			continue // API version
		}
		if _, err := strconv.ParseUint(p, 10, 64); err == nil || parts[i-1] == "username" {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}

// IsAuthenticated reports whether the last Login succeeded.
func (c *HTTPClient) IsAuthenticated() bool {
	return c.authenticated.Load()
}

// Login verifies the credentials by loading the agent profile.
// It retries up to the configured number of attempts.
func (c *HTTPClient) Login(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= c.loginAttempts; attempt++ {
		profile, err := c.fetchMe(ctx)
		if err == nil {
			if c.username != "" && !strings.EqualFold(profile.Username, c.username) {
				c.logger.Warn("credentials belong to a different account",
					zap.String("expected", c.username),
					zap.String("actual", profile.Username),
				)
			}
			c.authenticated.Store(true)
			c.logger.Info("logged in", zap.String("username", profile.Username), zap.String("user_id", profile.ID))
			return nil
		}
		lastErr = err
		c.logger.Warn("login attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt < c.loginAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}
	c.authenticated.Store(false)
	return fmt.Errorf("login failed after %d attempts: %w", c.loginAttempts, lastErr)
}

// Profile returns the authenticated agent account.
func (c *HTTPClient) Profile(ctx context.Context) (*domain.Profile, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	return c.fetchMe(ctx)
}

func (c *HTTPClient) fetchMe(ctx context.Context) (*domain.Profile, error) {
	var resp struct {
		Data   *apiUser       `json:"data"`
		Errors []apiErrorItem `json:"errors"`
	}
	if err := c.do(ctx, http.MethodGet, "/2/users/me", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("get profile: empty response")
	}
	return &domain.Profile{
		ID:       resp.Data.ID,
		Username: resp.Data.Username,
		Name:     resp.Data.Name,
	}, nil
}

// FetchMentions returns up to limit most recent posts mentioning userID.
func (c *HTTPClient) FetchMentions(ctx context.Context, userID string, limit int) ([]*domain.Candidate, error) {
	query := postQuery()
	query.Set("max_results", strconv.Itoa(clampPage(limit, minMentionsPage)))

	var resp postsResponse
	if err := c.do(ctx, http.MethodGet, "/2/users/"+url.PathEscape(userID)+"/mentions", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch mentions: %w", err)
	}
	return truncate(resp.candidates(), limit), nil
}

// FetchUserRecent returns up to limit most recent posts authored by username.
func (c *HTTPClient) FetchUserRecent(ctx context.Context, username string, limit int) ([]*domain.Candidate, error) {
	query := postQuery()
	query.Set("query", "from:"+username)
	query.Set("sort_order", "recency")
	query.Set("max_results", strconv.Itoa(clampPage(limit, minSearchPage)))

	var resp postsResponse
	if err := c.do(ctx, http.MethodGet, "/2/tweets/search/recent", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch recent posts of %s: %w", username, err)
	}
	return truncate(resp.candidates(), limit), nil
}

// GetCandidate fetches a single post by id. Returns ErrNotFound if missing.
func (c *HTTPClient) GetCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	var resp postResponse
	if err := c.do(ctx, http.MethodGet, "/2/tweets/"+url.PathEscape(id), postQuery(), nil, &resp); err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	if resp.Data == nil {
		return nil, ErrNotFound
	}
	return resp.Data.toCandidate(resp.Includes), nil
}

// LookupAccount fetches an account by handle.
// Returns nil, nil when the account does not exist.
func (c *HTTPClient) LookupAccount(ctx context.Context, handle string) (*domain.Account, error) {
	query := url.Values{}
	query.Set("user.fields", userFields)

	var resp struct {
		Data   *apiUser       `json:"data"`
		Errors []apiErrorItem `json:"errors"`
	}
	path := "/2/users/by/username/" + url.PathEscape(strings.TrimPrefix(handle, "@"))
	if err := c.do(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup account %s: %w", handle, err)
	}
	if resp.Data == nil {
		return nil, nil
	}
	return resp.Data.toAccount(), nil
}

// SendReply posts text as a reply to inReplyToID and returns the created post.
func (c *HTTPClient) SendReply(ctx context.Context, text, inReplyToID string) (*domain.Candidate, error) {
	payload := map[string]interface{}{"text": text}
	if inReplyToID != "" {
		payload["reply"] = map[string]string{"in_reply_to_tweet_id": inReplyToID}
	}

	var resp struct {
		Data *struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/2/tweets", nil, payload, &resp); err != nil {
		return nil, fmt.Errorf("send reply: %w", err)
	}
	if resp.Data == nil || resp.Data.ID == "" {
		return nil, fmt.Errorf("send reply: empty response")
	}

	// The create endpoint only echoes id and text; fetch the full post.
	post, err := c.GetCandidate(ctx, resp.Data.ID)
	if err != nil {
		c.logger.Warn("fetch sent post failed", zap.String("id", resp.Data.ID), zap.Error(err))
		return &domain.Candidate{
			ID:        resp.Data.ID,
			Text:      resp.Data.Text,
			IsReply:   inReplyToID != "",
			ParentID:  inReplyToID,
			CreatedAt: time.Now().Unix(),
		}, nil
	}
	return post, nil
}

func postQuery() url.Values {
	q := url.Values{}
	q.Set("tweet.fields", tweetFields)
	q.Set("expansions", expansions)
	q.Set("media.fields", mediaFields)
	q.Set("user.fields", "username,name")
	return q
}

func clampPage(limit, min int) int {
	if limit < min {
		return min
	}
	if limit > maxPage {
		return maxPage
	}
	return limit
}

func truncate(cs []*domain.Candidate, limit int) []*domain.Candidate {
	if limit > 0 && len(cs) > limit {
		return cs[:limit]
	}
	return cs
}
