package port

import (
	"context"
	"errors"
)

// ErrDeliveryFailed wraps any failure to hand a notification to the push channel.
var ErrDeliveryFailed = errors.New("push: delivery failed")

// Notifier sends a title/body notification to an opaque device destination token.
// Retries and delivery receipts are the implementation's concern.
type Notifier interface {
	Send(ctx context.Context, token, title, body string) error
}
