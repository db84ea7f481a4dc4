package interaction

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/llm"
	"github.com/tokimonsterAI/agent/internal/observability"
	"github.com/tokimonsterAI/agent/internal/prompt"
)

// RespondDecider classifies whether the agent should answer the current post.
type RespondDecider struct {
	llm    llm.Provider
	logger *zap.Logger
}

// NewRespondDecider creates a decider.
func NewRespondDecider(provider llm.Provider, logger *zap.Logger) *RespondDecider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RespondDecider{llm: provider, logger: logger}
}

// Decide renders the should-respond prompt and parses the model's answer.
// Model or template failures yield the zero Decision.
func (d *RespondDecider) Decide(ctx context.Context, state *prompt.State) domain.Decision {
	text, err := prompt.Compose(prompt.ShouldRespond, state)
	if err != nil {
		d.logger.Error("compose should-respond prompt", zap.Error(err))
		return ""
	}

	answer, err := d.llm.GenerateText(ctx, text)
	if err != nil {
		d.logger.Warn("should-respond generation failed", zap.Error(err))
		observability.RecordDecision("failed")
		return ""
	}

	decision := ParseDecision(answer)
	observability.RecordDecision(decision.String())
	return decision
}

// ParseDecision extracts RESPOND, IGNORE or STOP from a model answer.
// The first line is matched exactly (brackets stripped); otherwise the whole
// answer is searched for the options in that order. No match yields "".
func ParseDecision(answer string) domain.Decision {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ""
	}

	first, _, _ := strings.Cut(answer, "\n")
	first = strings.ToUpper(strings.Trim(strings.TrimSpace(first), "[]*`\"'. "))
	if d := domain.Decision(first); d.IsValid() {
		return d
	}

	upper := strings.ToUpper(answer)
	for _, d := range []domain.Decision{domain.DecisionRespond, domain.DecisionIgnore, domain.DecisionStop} {
		if strings.Contains(upper, string(d)) {
			return d
		}
	}
	return ""
}
