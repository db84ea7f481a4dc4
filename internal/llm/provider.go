// Package llm wraps the language model behind the two operation shapes the
// agent uses: free text and schema-constrained objects.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Provider generates model output.
type Provider interface {
	// GenerateText returns free-form text for prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateObject asks for JSON matching schema and decodes it into out.
	GenerateObject(ctx context.Context, prompt string, schema *genai.Schema, out interface{}) error
}

// ErrEmptyResponse is returned when the model produced no content.
var ErrEmptyResponse = errors.New("empty model response")

// ErrInvalidJSON is returned when the model output could not be decoded.
var ErrInvalidJSON = errors.New("invalid JSON in model response")

// DecodeJSON decodes a model JSON answer into out.
// Markdown code fences and text around the outermost object are tolerated.
func DecodeJSON(text string, out interface{}) error {
	body := ExtractJSON(text)
	if body == "" {
		return ErrInvalidJSON
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// ExtractJSON returns the outermost JSON object in text, or "" if none.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}
