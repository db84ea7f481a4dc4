// Package stub provides a scripted llm.Provider for tests.
package stub

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/genai"

	"github.com/tokimonsterAI/agent/internal/llm"
)

// ErrNoResponse is returned when no scripted response matches a call.
var ErrNoResponse = errors.New("no scripted response")

// Provider implements llm.Provider with caller-supplied functions.
type Provider struct {
	mu sync.Mutex

	// Text answers GenerateText.
	Text func(prompt string) (string, error)

	// Object answers GenerateObject with raw JSON decoded into out.
	Object func(prompt string, schema *genai.Schema) (string, error)

	TextPrompts   []string
	ObjectPrompts []string
}

// Compile-time interface check.
var _ llm.Provider = (*Provider)(nil)

// GenerateText records prompt and calls Text.
func (p *Provider) GenerateText(_ context.Context, prompt string) (string, error) {
	p.mu.Lock()
	p.TextPrompts = append(p.TextPrompts, prompt)
	fn := p.Text
	p.mu.Unlock()

	if fn == nil {
		return "", ErrNoResponse
	}
	return fn(prompt)
}

// GenerateObject records prompt, calls Object and decodes the result into out.
func (p *Provider) GenerateObject(_ context.Context, prompt string, schema *genai.Schema, out interface{}) error {
	p.mu.Lock()
	p.ObjectPrompts = append(p.ObjectPrompts, prompt)
	fn := p.Object
	p.mu.Unlock()

	if fn == nil {
		return ErrNoResponse
	}
	raw, err := fn(prompt, schema)
	if err != nil {
		return err
	}
	return llm.DecodeJSON(raw, out)
}
