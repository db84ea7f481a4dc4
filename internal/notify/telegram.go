package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Telegram defaults.
const (
	DefaultTelegramBaseURL = "https://api.telegram.org"
	DefaultChatID          = "-1002271852446"
	AlertThreadID          = 2
	SuccessThreadID        = 291

	// fakeToken is the placeholder token that disables delivery.
	fakeToken = "FAKE_TOKEN"
)

// TelegramSink posts notifications to a group chat through the Bot API.
// Errors go to the alert thread, successes to the success thread, everything
// else to the main chat.
type TelegramSink struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

// TelegramOption configures TelegramSink.
type TelegramOption func(*TelegramSink)

// WithTelegramBaseURL overrides the Bot API endpoint.
func WithTelegramBaseURL(u string) TelegramOption {
	return func(s *TelegramSink) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTelegramHTTPClient sets custom http.Client.
func WithTelegramHTTPClient(client *http.Client) TelegramOption {
	return func(s *TelegramSink) {
		s.client = client
	}
}

// NewTelegramSink creates a sink for chatID. An empty chatID selects DefaultChatID.
// An empty or placeholder token disables delivery.
func NewTelegramSink(token, chatID string, opts ...TelegramOption) *TelegramSink {
	if chatID == "" {
		chatID = DefaultChatID
	}
	s := &TelegramSink{
		token:   token,
		chatID:  chatID,
		baseURL: DefaultTelegramBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile-time interface check.
var _ Sink = (*TelegramSink)(nil)

// Name returns the sink name.
func (s *TelegramSink) Name() string { return "telegram" }

// Enabled reports whether a real bot token is configured.
func (s *TelegramSink) Enabled() bool {
	return s.token != "" && s.token != fakeToken
}

type sendMessageRequest struct {
	ChatID          string `json:"chat_id"`
	Text            string `json:"text"`
	MessageThreadID int    `json:"message_thread_id,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts n to the chat thread matching its level.
func (s *TelegramSink) Send(ctx context.Context, n Notification) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:          s.chatID,
		Text:            n.Text,
		MessageThreadID: threadFor(n.Level),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// The request URL carries the token; keep it out of the error.
		return fmt.Errorf("send message: %s", redact(err.Error(), s.token))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var out sendMessageResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	if !out.OK {
		return fmt.Errorf("telegram error %d: %s", resp.StatusCode, out.Description)
	}
	return nil
}

func threadFor(level Level) int {
	switch level {
	case LevelError:
		return AlertThreadID
	case LevelSuccess:
		return SuccessThreadID
	default:
		return 0
	}
}

func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<token>")
}
