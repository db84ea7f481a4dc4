// Package action dispatches the action tag attached to a generated response.
package action

import (
	"context"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/prompt"
)

// Request is the context an action is validated and handled against.
type Request struct {
	// Message is the incoming post the response was generated for.
	Message *domain.Memory
	State   *prompt.State
	Payload *domain.ClientPayload
	Photos  []domain.Attachment
}

// Callback sends content back to the originating conversation and returns the
// memories recorded for the sent parts.
type Callback func(ctx context.Context, content domain.Content) ([]*domain.Memory, error)

// Action is a side effect the model may request by tagging its response.
type Action interface {
	Name() string
	Similes() []string
	Description() string

	// Validate reports whether the action may run for req.
	Validate(ctx context.Context, req *Request) (bool, error)

	// Handle runs the action. Replies go through cb.
	Handle(ctx context.Context, req *Request, cb Callback) error
}
