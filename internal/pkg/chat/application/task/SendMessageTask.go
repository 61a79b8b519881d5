package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	qport "go-roomchat/internal/infrastructure/queue/port"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/application/session"
	"go-roomchat/internal/pkg/chat/application/usecase"

	"go.uber.org/zap"
)

// SendMessageTaskType is the queue task name for sending a message within the chat domain.
const SendMessageTaskType = "chat:send_message"

const taskTimeout = 10 * time.Second

// SendMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SendMessageTaskPayload struct {
	RoomID     int64   `json:"roomId"`
	SenderID   int64   `json:"senderId"`
	SenderName string  `json:"senderName"`
	Content    string  `json:"content"`
	MediaURL   *string `json:"mediaUrl"`
	MediaType  *string `json:"mediaType"`
	ParentID   *int64  `json:"parentId"`
}

// EnqueueSendMessage schedules a message for the worker pipeline.
func EnqueueSendMessage(ctx context.Context, client qport.Client, p SendMessageTaskPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode task payload: %w", err)
	}
	return client.Enqueue(ctx, qport.Task{Type: SendMessageTaskType, Payload: b}, qport.EnqueueOption{Queue: "chat", MaxRetry: 20})
}

// RegisterSendMessageTask binds the task handler to the provided server.
// Messages run through the same store, broadcast and notify pipeline as
// websocket traffic. Validation failures are not retried.
func RegisterSendMessageTask(srv qport.Server, pipeline *session.Pipeline, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv.Register(SendMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p SendMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return fmt.Errorf("decode %s: %v: %w", SendMessageTaskType, err, qport.ErrSkipRetry)
		}

		// give DB a reasonable time budget per task execution
		ctx, cancel := context.WithTimeout(ctx, taskTimeout)
		defer cancel()

		sender := chat.Principal{ID: p.SenderID, DisplayName: p.SenderName}
		msg, err := pipeline.PostMessage(ctx, sender, usecase.SendMessageInput{
			RoomID:    p.RoomID,
			Content:   p.Content,
			MediaURL:  p.MediaURL,
			MediaType: p.MediaType,
			ParentID:  p.ParentID,
		})
		if err != nil {
			if errors.Is(err, usecase.ErrPersistence) {
				return err
			}
			logger.Info("queued message rejected", zap.Int64("room_id", p.RoomID), zap.Error(err))
			return fmt.Errorf("%w: %w", err, qport.ErrSkipRetry)
		}
		logger.Debug("queued message delivered", zap.Int64("room_id", p.RoomID), zap.Int64("message_id", msg.ID))
		return nil
	})
}
