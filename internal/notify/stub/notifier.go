package stub

import (
	"context"
	"sync"

	"github.com/tokimonsterAI/agent/internal/notify"
)

// Notifier records notifications for testing.
type Notifier struct {
	mu        sync.Mutex
	Infos     []string
	Successes []string
	Errors    []string
}

// NewNotifier creates an empty recorder.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Compile-time interface check.
var _ notify.Notifier = (*Notifier)(nil)

// Info records an informational notification.
func (n *Notifier) Info(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Infos = append(n.Infos, text)
}

// Success records a success notification.
func (n *Notifier) Success(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Successes = append(n.Successes, text)
}

// Error records an alert notification.
func (n *Notifier) Error(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, text)
}

// All returns every recorded text in level order: infos, successes, errors.
func (n *Notifier) All() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, 0, len(n.Infos)+len(n.Successes)+len(n.Errors))
	out = append(out, n.Infos...)
	out = append(out, n.Successes...)
	return append(out, n.Errors...)
}
