package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
)

type DeleteMessageInput struct {
	RoomID    int64
	MessageID int64
	UserID    int64
}

// DeleteMessageUseCase tombstones a message. Only its sender may do so.
type DeleteMessageUseCase struct {
	Repo repository.MessageRepository
}

func NewDeleteMessageUseCase(repo repository.MessageRepository) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{Repo: repo}
}

// Execute reports whether the message changed state; deleting a tombstone again is a no-op.
func (uc *DeleteMessageUseCase) Execute(ctx context.Context, in DeleteMessageInput) (bool, error) {
	target, err := uc.Repo.FindMessage(ctx, in.MessageID)
	if errors.Is(err, chat.ErrMessageNotFound) {
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if target.RoomID != in.RoomID {
		return false, chat.ErrMessageNotFound
	}
	if target.SenderID != in.UserID {
		return false, chat.ErrNotSender
	}
	if target.Deleted {
		return false, nil
	}
	if err := uc.Repo.MarkDeleted(ctx, in.MessageID); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return true, nil
}
