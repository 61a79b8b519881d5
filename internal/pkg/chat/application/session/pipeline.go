package session

import (
	"context"
	"encoding/json"
	"fmt"

	"go-roomchat/internal/infrastructure/realtime"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/application/usecase"

	"go.uber.org/zap"
)

// Broadcaster delivers a payload to a room's live connections.
type Broadcaster interface {
	Broadcast(roomID int64, payload []byte, excludeUserID int64)
}

// OfflineNotifier schedules push notifications for members who missed a message.
type OfflineNotifier interface {
	Notify(roomID int64, sender chat.Principal, msg chat.Message) error
}

// Pipeline applies a chat mutation and then announces it: storage first, live
// broadcast second, offline notification last. Nothing is announced when the
// write fails.
type Pipeline struct {
	send        *usecase.SendMessageUseCase
	react       *usecase.AddReactionUseCase
	remove      *usecase.DeleteMessageUseCase
	broadcaster Broadcaster
	notifier    OfflineNotifier
	logger      *zap.Logger
}

func NewPipeline(send *usecase.SendMessageUseCase, react *usecase.AddReactionUseCase, remove *usecase.DeleteMessageUseCase, broadcaster Broadcaster, notifier OfflineNotifier, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		send:        send,
		react:       react,
		remove:      remove,
		broadcaster: broadcaster,
		notifier:    notifier,
		logger:      logger,
	}
}

// PostMessage stores a message from sender and relays it to everyone else in the room.
func (p *Pipeline) PostMessage(ctx context.Context, sender chat.Principal, in usecase.SendMessageInput) (*chat.Message, error) {
	in.SenderID = sender.ID
	in.SenderName = sender.DisplayName

	msg, err := p.send.Execute(ctx, in)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(newMessageFrame{Type: "new_message", Message: NewMessagePayload(*msg)})
	if err != nil {
		return nil, fmt.Errorf("encode new_message: %w", err)
	}
	p.broadcaster.Broadcast(msg.RoomID, payload, sender.ID)

	if p.notifier != nil {
		if err := p.notifier.Notify(msg.RoomID, sender, *msg); err != nil {
			p.logger.Debug("offline notification not scheduled",
				zap.Int64("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
	return msg, nil
}

// React stores a reaction and relays it to the whole room, actor included.
func (p *Pipeline) React(ctx context.Context, actor chat.Principal, in usecase.AddReactionInput) (*chat.Reaction, error) {
	in.UserID = actor.ID

	r, err := p.react.Execute(ctx, in)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(reactionFrame{
		Type:      "reaction",
		ID:        r.ID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Reaction:  string(r.Kind),
	})
	if err != nil {
		return nil, fmt.Errorf("encode reaction: %w", err)
	}
	p.broadcaster.Broadcast(in.RoomID, payload, realtime.NoExclusion)
	return r, nil
}

// DeleteMessage tombstones a message and tells the room to hide it.
func (p *Pipeline) DeleteMessage(ctx context.Context, in usecase.DeleteMessageInput) error {
	changed, err := p.remove.Execute(ctx, in)
	if err != nil || !changed {
		return err
	}
	payload, err := json.Marshal(messageDeletedFrame{Type: "message_deleted", MessageID: in.MessageID})
	if err != nil {
		return fmt.Errorf("encode message_deleted: %w", err)
	}
	p.broadcaster.Broadcast(in.RoomID, payload, realtime.NoExclusion)
	return nil
}
