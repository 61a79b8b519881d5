package usecase

import (
	"context"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
)

const (
	defaultMessageLimit = 20
	maxMessageLimit     = 100
)

// GetMessageInput carries parameters to fetch messages of a room
type GetMessageInput struct {
	RoomID int64
	UserID int64
	Limit  int
	Offset int
}

// GetMessageUseCase pages a room's history, newest first, for one of its members.
type GetMessageUseCase struct {
	Rooms    repository.RoomRepository
	Messages repository.MessageRepository
	Codec    ContentCodec
}

func NewGetMessageUseCase(rooms repository.RoomRepository, messages repository.MessageRepository, codec ContentCodec) *GetMessageUseCase {
	return &GetMessageUseCase{Rooms: rooms, Messages: messages, Codec: codec}
}

// Execute returns decrypted messages honoring limit/offset
func (uc *GetMessageUseCase) Execute(ctx context.Context, in GetMessageInput) ([]chat.Message, error) {
	if in.RoomID <= 0 {
		return nil, fmt.Errorf("%w: roomId is required", ErrInvalidInput)
	}
	if in.Limit <= 0 {
		in.Limit = defaultMessageLimit
	}
	if in.Limit > maxMessageLimit {
		in.Limit = maxMessageLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	ok, err := uc.Rooms.IsMember(ctx, in.RoomID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return nil, chat.ErrNotMember
	}

	envelopes, err := uc.Messages.GetMessagesByRoom(ctx, in.RoomID, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msgs := make([]chat.Message, 0, len(envelopes))
	for _, e := range envelopes {
		m, err := open(uc.Codec, e)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
