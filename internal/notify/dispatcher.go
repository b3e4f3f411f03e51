// Package notify defines the outbound notification port. Transport and
// templating live outside the compliance core; the core only needs delivery
// confirmation to drive the reminder stamping rules.
package notify

import (
	"context"
	"log/slog"
)

// Dispatcher delivers a notification to a recipient address. The boolean
// result reports confirmed delivery or acceptance: reminder stamping must
// only happen on true.
type Dispatcher interface {
	Send(ctx context.Context, recipient, subject, body string) (bool, error)
}

// LogDispatcher logs notifications instead of delivering them. Used in
// development and as a safe default when no transport is configured.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d LogDispatcher) Send(ctx context.Context, recipient, subject, body string) (bool, error) {
	d.Logger.InfoContext(ctx, "notification (log transport)",
		"recipient", recipient,
		"subject", subject,
		"body_bytes", len(body),
	)
	return true, nil
}
