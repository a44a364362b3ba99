package notify

import "context"

// Sender is the outbound message surface the alert engine depends on. Both
// methods may fail independently; callers decide how failures compose.
type Sender interface {
	SendSMS(ctx context.Context, to, body string) error
	SendEmail(ctx context.Context, to, subject, body string) error
}
