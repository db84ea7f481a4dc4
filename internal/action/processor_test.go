package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tokimonsterAI/agent/internal/domain"
)

type fakeAction struct {
	valid       bool
	validateErr error
	handleErr   error

	validated int
	handled   int
}

func (f *fakeAction) Name() string        { return "DEPLOY_TOKEN" }
func (f *fakeAction) Similes() []string   { return []string{"CREATE_TOKEN", "LAUNCH_TOKEN"} }
func (f *fakeAction) Description() string { return "Deploy a token" }

func (f *fakeAction) Validate(context.Context, *Request) (bool, error) {
	f.validated++
	return f.valid, f.validateErr
}

func (f *fakeAction) Handle(ctx context.Context, _ *Request, cb Callback) error {
	f.handled++
	if cb != nil {
		_, _ = cb(ctx, domain.Content{Text: "done"})
	}
	return f.handleErr
}

func responses(tags ...string) []*domain.Memory {
	out := make([]*domain.Memory, len(tags))
	for i, tag := range tags {
		out[i] = &domain.Memory{Content: domain.Content{Text: "part", Action: tag}}
	}
	return out
}

func TestProcess_SkipsReservedTags(t *testing.T) {
	a := &fakeAction{valid: true}
	p := NewProcessor(nil, a)

	p.Process(context.Background(), &Request{}, responses("", "NONE", "continue", "IGNORE"), nil)

	assert.Equal(t, 0, a.validated)
	assert.Equal(t, 0, a.handled)
}

func TestProcess_OnlyFinalPartDispatches(t *testing.T) {
	a := &fakeAction{valid: true}
	p := NewProcessor(nil, a)

	var sent []string
	cb := func(_ context.Context, c domain.Content) ([]*domain.Memory, error) {
		sent = append(sent, c.Text)
		return nil, nil
	}

	p.Process(context.Background(), &Request{}, responses("CONTINUE", "CONTINUE", "DEPLOY_TOKEN"), cb)

	assert.Equal(t, 1, a.validated)
	assert.Equal(t, 1, a.handled)
	assert.Equal(t, []string{"done"}, sent)
}

func TestProcess_MatchesSimilesCaseInsensitive(t *testing.T) {
	a := &fakeAction{valid: true}
	p := NewProcessor(nil, a)

	p.Process(context.Background(), &Request{}, responses("launch_token"), nil)
	p.Process(context.Background(), &Request{}, responses("create token"), nil)

	assert.Equal(t, 2, a.handled)
}

func TestProcess_ValidationGatesHandle(t *testing.T) {
	rejected := &fakeAction{valid: false}
	NewProcessor(nil, rejected).Process(context.Background(), &Request{}, responses("DEPLOY_TOKEN"), nil)
	assert.Equal(t, 1, rejected.validated)
	assert.Equal(t, 0, rejected.handled)

	failing := &fakeAction{valid: true, validateErr: errors.New("boom")}
	NewProcessor(nil, failing).Process(context.Background(), &Request{}, responses("DEPLOY_TOKEN"), nil)
	assert.Equal(t, 0, failing.handled)
}

func TestProcess_HandleErrorDoesNotPropagate(t *testing.T) {
	a := &fakeAction{valid: true, handleErr: errors.New("chain down")}
	p := NewProcessor(nil, a)

	assert.NotPanics(t, func() {
		p.Process(context.Background(), &Request{}, responses("DEPLOY_TOKEN", "DEPLOY_TOKEN"), nil)
	})
	assert.Equal(t, 2, a.handled)
}

func TestProcess_UnknownTag(t *testing.T) {
	a := &fakeAction{valid: true}
	p := NewProcessor(nil, a)

	p.Process(context.Background(), &Request{}, responses("FOLLOW_USER"), nil)
	assert.Equal(t, 0, a.validated)
}

func TestNamesAndDescriptions(t *testing.T) {
	p := NewProcessor(nil, &fakeAction{})
	assert.Equal(t, "DEPLOY_TOKEN", p.Names())
	assert.Equal(t, "DEPLOY_TOKEN: Deploy a token", p.Descriptions())

	_, ok := p.Lookup(" deploy-token ")
	assert.True(t, ok)
}
