// Package notify delivers push notifications. Delivery is best effort
// everywhere: callers treat a failed send as a log line, never as a reason to
// fail the operation that triggered it.
package notify

import "context"

type Dispatcher interface {
	SendToOne(ctx context.Context, token, title, body string) error
	SendToMany(ctx context.Context, tokens []string, title, body string) error
}

// NoopDispatcher drops every notification. Used when push delivery is not
// configured.
type NoopDispatcher struct{}

func (NoopDispatcher) SendToOne(ctx context.Context, token, title, body string) error {
	return nil
}

func (NoopDispatcher) SendToMany(ctx context.Context, tokens []string, title, body string) error {
	return nil
}
