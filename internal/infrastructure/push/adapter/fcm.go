package adapter

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"go-roomchat/internal/infrastructure/push/port"
)

// FCMNotifier delivers notifications through Firebase Cloud Messaging.
type FCMNotifier struct {
	client *messaging.Client
}

// NewFCMNotifier initialises a Firebase app from a service-account credentials file.
func NewFCMNotifier(ctx context.Context, credentialsFile string) (*FCMNotifier, error) {
	if credentialsFile == "" {
		return nil, errors.New("fcm: credentials file is not set")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("fcm: init app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("fcm: messaging client: %w", err)
	}
	return &FCMNotifier{client: client}, nil
}

var _ port.Notifier = (*FCMNotifier)(nil)

func (n *FCMNotifier) Send(ctx context.Context, token, title, body string) error {
	_, err := n.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", port.ErrDeliveryFailed, err)
	}
	return nil
}
