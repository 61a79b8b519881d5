package adapter

import (
	"context"

	"go.uber.org/zap"

	"go-roomchat/internal/infrastructure/push/port"
)

// LogNotifier records notifications instead of sending them. Used in development.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

var _ port.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Send(_ context.Context, token, title, body string) error {
	n.logger.Info("push notification",
		zap.String("token_suffix", tokenSuffix(token)),
		zap.String("title", title),
		zap.Int("body_len", len(body)),
	)
	return nil
}

func tokenSuffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return "…" + token[len(token)-6:]
}
