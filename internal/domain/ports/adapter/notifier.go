package adapter

import "context"

// Notifier delivers a message to a recipient, best-effort. Implementations
// must never block a request path on delivery; failures are logged, not
// propagated to callers.
type Notifier interface {
	Name() string
	Send(ctx context.Context, recipient, subject, body string) error
}
