package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-roomchat/internal/infrastructure/push/port"
	qport "go-roomchat/internal/infrastructure/queue/port"
)

// SendPushTaskType is the queue task name for one push dispatch.
const SendPushTaskType = "push:send"

const (
	pushQueue    = "push"
	pushMaxRetry = 5
	pushTimeout  = 10 * time.Second
)

// SendPushTaskPayload is the JSON payload transported via the queue.
type SendPushTaskPayload struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// QueuedNotifier hands notifications to the task queue so that delivery and
// retries happen on a worker, off the caller's path.
type QueuedNotifier struct {
	client qport.Client
}

func NewQueuedNotifier(client qport.Client) *QueuedNotifier {
	return &QueuedNotifier{client: client}
}

var _ port.Notifier = (*QueuedNotifier)(nil)

func (n *QueuedNotifier) Send(ctx context.Context, token, title, body string) error {
	b, err := json.Marshal(SendPushTaskPayload{Token: token, Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("%w: encode task: %v", port.ErrDeliveryFailed, err)
	}
	opts := qport.EnqueueOption{Queue: pushQueue, MaxRetry: pushMaxRetry}
	if _, err := n.client.Enqueue(ctx, qport.Task{Type: SendPushTaskType, Payload: b}, opts); err != nil {
		return fmt.Errorf("%w: enqueue: %v", port.ErrDeliveryFailed, err)
	}
	return nil
}

// RegisterSendPushTask binds the worker-side handler that performs the actual
// delivery through next.
func RegisterSendPushTask(srv qport.Server, next port.Notifier, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv.Register(SendPushTaskType, func(ctx context.Context, t qport.Task) error {
		var p SendPushTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("push task: decode payload: %v: %w", err, qport.ErrSkipRetry)
		}
		if p.Token == "" {
			return fmt.Errorf("push task: empty token: %w", qport.ErrSkipRetry)
		}

		ctx, cancel := context.WithTimeout(ctx, pushTimeout)
		defer cancel()

		if err := next.Send(ctx, p.Token, p.Title, p.Body); err != nil {
			logger.Warn("push delivery failed", zap.String("token_suffix", tokenSuffix(p.Token)), zap.Error(err))
			return err
		}
		return nil
	})
}
