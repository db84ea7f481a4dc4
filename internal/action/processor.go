package action

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/observability"
)

// Processor routes response action tags to registered actions.
type Processor struct {
	actions []Action
	byTag   map[string]Action
	logger  *zap.Logger
}

// NewProcessor creates a processor with the given actions registered.
func NewProcessor(logger *zap.Logger, actions ...Action) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Processor{
		byTag:  make(map[string]Action),
		logger: logger,
	}
	for _, a := range actions {
		p.Register(a)
	}
	return p
}

// Register adds an action under its name and every simile.
// Later registrations win on tag collisions.
func (p *Processor) Register(a Action) {
	p.actions = append(p.actions, a)
	p.byTag[normalize(a.Name())] = a
	for _, s := range a.Similes() {
		p.byTag[normalize(s)] = a
	}
}

// Lookup finds the action for a tag, matching names and similes case-insensitively.
func (p *Processor) Lookup(tag string) (Action, bool) {
	a, ok := p.byTag[normalize(tag)]
	return a, ok
}

// Names returns the registered action names for prompt rendering.
func (p *Processor) Names() string {
	names := make([]string, len(p.actions))
	for i, a := range p.actions {
		names[i] = a.Name()
	}
	return strings.Join(names, ", ")
}

// Descriptions returns one "NAME: description" line per registered action.
func (p *Processor) Descriptions() string {
	lines := make([]string, len(p.actions))
	for i, a := range p.actions {
		lines[i] = fmt.Sprintf("%s: %s", a.Name(), a.Description())
	}
	return strings.Join(lines, "\n")
}

// Process dispatches the action tag of each response memory.
// Reserved tags are skipped. Errors are logged and never returned.
func (p *Processor) Process(ctx context.Context, req *Request, responses []*domain.Memory, cb Callback) {
	for _, resp := range responses {
		if resp == nil || isReserved(resp.Content.Action) {
			continue
		}

		tag := resp.Content.Action
		a, ok := p.Lookup(tag)
		if !ok {
			p.logger.Warn("no action registered for tag", zap.String("action", tag))
			observability.RecordAction(tag, "unknown")
			continue
		}

		p.run(ctx, a, req, cb)
	}
}

func (p *Processor) run(ctx context.Context, a Action, req *Request, cb Callback) {
	name := a.Name()
	logger := p.logger.With(zap.String("action", name))

	ok, err := a.Validate(ctx, req)
	if err != nil {
		logger.Error("action validation failed", zap.Error(err))
		observability.RecordAction(name, "error")
		return
	}
	if !ok {
		logger.Info("action rejected by validation")
		observability.RecordAction(name, "rejected")
		return
	}

	if err := a.Handle(ctx, req, cb); err != nil {
		logger.Error("action handler failed", zap.Error(err))
		observability.RecordAction(name, "error")
		return
	}
	observability.RecordAction(name, "handled")
}

func isReserved(tag string) bool {
	switch normalize(tag) {
	case "", domain.ActionNone, domain.ActionContinue, domain.ActionIgnore:
		return true
	}
	return false
}

func normalize(tag string) string {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(tag)
}
