package interaction

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/llm"
	"github.com/tokimonsterAI/agent/internal/prompt"
)

var quotePattern = regexp.MustCompile(`^(?:'(.*)'|"(.*)")$`)

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"user":   {Type: genai.TypeString},
		"text":   {Type: genai.TypeString},
		"action": {Type: genai.TypeString},
	},
	Required: []string{"text"},
}

type generatedResponse struct {
	User   string `json:"user"`
	Text   string `json:"text"`
	Action string `json:"action"`
}

// ReplyGenerator produces the reply content for a post the agent answers.
type ReplyGenerator struct {
	llm llm.Provider
}

// NewReplyGenerator creates a generator.
func NewReplyGenerator(provider llm.Provider) *ReplyGenerator {
	return &ReplyGenerator{llm: provider}
}

// Generate renders the message-handler prompt and asks the model for a
// {text, action} object. It returns the cleaned content and the prompt used.
func (g *ReplyGenerator) Generate(ctx context.Context, state *prompt.State) (*domain.Content, string, error) {
	text, err := prompt.Compose(prompt.MessageHandler, state)
	if err != nil {
		return nil, "", err
	}

	var out generatedResponse
	if err := g.llm.GenerateObject(ctx, text, responseSchema, &out); err != nil {
		return nil, text, fmt.Errorf("generate reply: %w", err)
	}

	action := strings.TrimSpace(out.Action)
	if action == "" {
		action = domain.ActionNone
	}
	return &domain.Content{
		Text:   StripQuotes(strings.TrimSpace(out.Text)),
		Action: action,
		Source: sourceTwitter,
	}, text, nil
}

// StripQuotes removes one pair of quotes wrapping the entire text.
func StripQuotes(s string) string {
	return quotePattern.ReplaceAllString(s, "${1}${2}")
}

// SplitContent breaks text into parts of at most max runes, preferring
// paragraph boundaries, then word boundaries. Words longer than max are cut.
func SplitContent(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if max <= 0 || runeLen(text) <= max {
		return []string{text}
	}

	var parts []string
	var current string
	flush := func() {
		if current != "" {
			parts = append(parts, current)
			current = ""
		}
	}
	appendWith := func(sep, piece string) {
		switch {
		case current == "":
			current = piece
		case runeLen(current)+runeLen(sep)+runeLen(piece) <= max:
			current += sep + piece
		default:
			flush()
			current = piece
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if runeLen(para) <= max {
			appendWith("\n\n", para)
			continue
		}

		flush()
		for _, word := range strings.Fields(para) {
			for runeLen(word) > max {
				flush()
				r := []rune(word)
				parts = append(parts, string(r[:max]))
				word = string(r[max:])
			}
			appendWith(" ", word)
		}
		flush()
	}
	flush()
	return parts
}

func runeLen(s string) int {
	return len([]rune(s))
}
