package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/tokimonsterAI/agent/internal/observability"
)

// Default configuration values.
const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 2 * time.Second
	DefaultMaxDelay    = 20 * time.Second
	DefaultBackoffMult = 2.0
)

// contentGenerator is the subset of *genai.Models used by Gemini.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature *float32
	MaxRetries  int
	RetryDelay  time.Duration
	Logger      *zap.Logger
}

// Gemini implements Provider using Google GenAI.
type Gemini struct {
	models      contentGenerator
	model       string
	temperature *float32
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	logger      *zap.Logger
}

// Compile-time interface check.
var _ Provider = (*Gemini)(nil)

// NewGemini creates a Gemini provider.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGemini(client.Models, cfg), nil
}

func newGemini(models contentGenerator, cfg GeminiConfig) *Gemini {
	g := &Gemini{
		models:      models,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		maxDelay:    DefaultMaxDelay,
		logger:      cfg.Logger,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.maxRetries <= 0 {
		g.maxRetries = DefaultMaxRetries
	}
	if g.retryDelay <= 0 {
		g.retryDelay = DefaultRetryDelay
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// Model returns the model name.
func (g *Gemini) Model() string {
	return g.model
}

// GenerateText returns free-form text for prompt.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{Temperature: g.temperature}
	text, err := g.generate(ctx, "text", prompt, config)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// GenerateObject asks for JSON matching schema and decodes it into out.
func (g *Gemini) GenerateObject(ctx context.Context, prompt string, schema *genai.Schema, out interface{}) error {
	config := &genai.GenerateContentConfig{
		Temperature:      g.temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	text, err := g.generate(ctx, "object", prompt, config)
	if err != nil {
		return err
	}
	return DecodeJSON(text, out)
}

// generate calls the model with retries and exponential backoff.
func (g *Gemini) generate(ctx context.Context, method, prompt string, config *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}}}

	delay := g.retryDelay
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * DefaultBackoffMult)
			if delay > g.maxDelay {
				delay = g.maxDelay
			}
		}

		start := time.Now()
		resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
		text, err := responseText(resp, err)
		observability.RecordExternalCall("llm", method, time.Since(start), err)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		g.logger.Warn("gemini generate failed",
			zap.String("model", g.model),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return "", fmt.Errorf("gemini generate: %w", lastErr)
}

func responseText(resp *genai.GenerateContentResponse, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
