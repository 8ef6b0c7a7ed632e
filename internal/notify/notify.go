// Package notify delivers the system's outbound email: one-time codes,
// new-query alerts for the administrator and replies to query owners.
//
// A Notifier is the transport (SMTP, the AMQP queue or a log sink).  The
// Dispatcher sits on top of it, renders the messages and swallows delivery
// failures after logging and counting them, so a broken mail path never
// fails or rolls back the operation that triggered it.
package notify

import (
	"context"

	"github.com/iliyamo/query-system/internal/logging"
)

// Notifier sends a plain-text message to a single recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, to, subject, body string) error

func (f NotifierFunc) Send(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}

// LogNotifier writes messages to the log instead of delivering them.  It is
// the default for local runs.
type LogNotifier struct {
	Log logging.Logger
}

func (n LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.Log.Info(ctx, "email", "to", to, "subject", subject, "body", body)
	return nil
}
