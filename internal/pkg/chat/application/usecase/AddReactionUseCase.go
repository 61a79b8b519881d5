package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
)

type AddReactionInput struct {
	RoomID    int64
	MessageID int64
	UserID    int64
	Reaction  string
}

// AddReactionUseCase records a reaction on a live message of the same room.
// Repeated reactions by the same user are stored as separate rows.
type AddReactionUseCase struct {
	Repo repository.MessageRepository
}

func NewAddReactionUseCase(repo repository.MessageRepository) *AddReactionUseCase {
	return &AddReactionUseCase{Repo: repo}
}

func (uc *AddReactionUseCase) Execute(ctx context.Context, in AddReactionInput) (*chat.Reaction, error) {
	kind, err := chat.ParseReactionKind(in.Reaction)
	if err != nil {
		return nil, err
	}
	if in.MessageID <= 0 {
		return nil, chat.ErrMessageNotFound
	}

	target, err := uc.Repo.FindMessage(ctx, in.MessageID)
	if errors.Is(err, chat.ErrMessageNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if target.RoomID != in.RoomID {
		return nil, chat.ErrMessageNotFound
	}
	if target.Deleted {
		return nil, chat.ErrMessageDeleted
	}

	r := chat.Reaction{
		MessageID: in.MessageID,
		UserID:    in.UserID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	id, err := uc.Repo.SaveReaction(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	r.ID = id
	return &r, nil
}
