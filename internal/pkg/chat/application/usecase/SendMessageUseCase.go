package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userrepo "go-roomchat/internal/repository/port"
)

// SendMessageInput carries the data needed to post a message to a room.
type SendMessageInput struct {
	RoomID     int64
	SenderID   int64
	SenderName string
	Content    string
	MediaURL   *string
	MediaType  *string
	ParentID   *int64
}

// SendMessageUseCase validates, seals and stores a message.
// The returned message holds the plaintext content and the store-assigned id.
type SendMessageUseCase struct {
	Repo  repository.MessageRepository
	Users userrepo.UserRepository
	Codec ContentCodec
}

func NewSendMessageUseCase(repo repository.MessageRepository, users userrepo.UserRepository, codec ContentCodec) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Users: users, Codec: codec}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if in.RoomID <= 0 || in.SenderID <= 0 {
		return nil, fmt.Errorf("%w: roomId and senderId are required", ErrInvalidInput)
	}

	msg, err := chat.NewMessage(chat.Message{
		RoomID:     in.RoomID,
		SenderID:   in.SenderID,
		SenderName: in.SenderName,
		Content:    in.Content,
		MediaURL:   in.MediaURL,
		MediaType:  in.MediaType,
		ParentID:   in.ParentID,
	})
	if err != nil {
		return nil, err
	}

	if msg.ParentID != nil {
		parent, err := uc.Repo.FindMessage(ctx, *msg.ParentID)
		if errors.Is(err, chat.ErrMessageNotFound) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if parent.RoomID != msg.RoomID {
			return nil, chat.ErrParentMismatch
		}
	}

	if msg.Mentions, err = uc.resolveMentions(ctx, msg.Content); err != nil {
		return nil, err
	}

	sealed, err := uc.Codec.Encrypt(msg.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	id, err := uc.Repo.SaveMessage(ctx, chat.Envelope{
		RoomID:     msg.RoomID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Ciphertext: sealed,
		MediaURL:   msg.MediaURL,
		MediaType:  msg.MediaType,
		Mentions:   msg.Mentions,
		ParentID:   msg.ParentID,
		CreatedAt:  msg.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id
	return msg, nil
}

func (uc *SendMessageUseCase) resolveMentions(ctx context.Context, content string) ([]int64, error) {
	names := chat.MentionedNames(content)
	if len(names) == 0 || uc.Users == nil {
		return nil, nil
	}
	found, err := uc.Users.FindIDsByUsernames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	var ids []int64
	for _, name := range names {
		if id, ok := found[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
