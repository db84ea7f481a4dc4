// Package notify delivers operator notifications.
// Delivery is best effort: failures are logged and never reach the caller.
package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/observability"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// DefaultSendTimeout bounds a single sink delivery.
const DefaultSendTimeout = 10 * time.Second

// ErrDisabled is returned by a sink that is not configured to deliver.
var ErrDisabled = errors.New("sink disabled")

// Notification is a single operator message.
type Notification struct {
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	Time  time.Time `json:"time"`
}

// Notifier is the fire-and-forget operator channel.
type Notifier interface {
	Info(ctx context.Context, text string)
	Success(ctx context.Context, text string)
	Error(ctx context.Context, text string)
}

// Sink delivers notifications to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Multi fans each notification out to every sink.
type Multi struct {
	sinks   []Sink
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewMulti creates a notifier over sinks.
func NewMulti(logger *zap.Logger, sinks ...Sink) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{
		sinks:   sinks,
		logger:  logger,
		timeout: DefaultSendTimeout,
		now:     time.Now,
	}
}

// Compile-time interface check.
var _ Notifier = (*Multi)(nil)

// Info sends an informational notification.
func (m *Multi) Info(ctx context.Context, text string) { m.notify(ctx, LevelInfo, text) }

// Success sends a success notification.
func (m *Multi) Success(ctx context.Context, text string) { m.notify(ctx, LevelSuccess, text) }

// Error sends an alert notification.
func (m *Multi) Error(ctx context.Context, text string) { m.notify(ctx, LevelError, text) }

func (m *Multi) notify(ctx context.Context, level Level, text string) {
	n := Notification{Level: level, Text: text, Time: m.now().UTC()}

	for _, sink := range m.sinks {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		err := sink.Send(sendCtx, n)
		cancel()

		switch {
		case err == nil:
			observability.RecordNotification(sink.Name(), "sent")
		case errors.Is(err, ErrDisabled):
			m.logger.Debug("notification skipped",
				zap.String("sink", sink.Name()),
				zap.String("level", string(level)),
				zap.String("text", text))
			observability.RecordNotification(sink.Name(), "skipped")
		default:
			m.logger.Warn("notification failed",
				zap.String("sink", sink.Name()),
				zap.String("level", string(level)),
				zap.Error(err))
			observability.RecordNotification(sink.Name(), "error")
		}
	}
}
