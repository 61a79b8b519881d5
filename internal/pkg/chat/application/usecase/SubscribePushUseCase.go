package usecase

import (
	"context"
	"fmt"
	"strings"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
)

type SubscribePushInput struct {
	UserID int64
	Token  string
}

// SubscribePushUseCase registers a device token for offline notifications.
// Registering the same token twice is a no-op.
type SubscribePushUseCase struct {
	Repo repository.PushRepository
}

func NewSubscribePushUseCase(repo repository.PushRepository) *SubscribePushUseCase {
	return &SubscribePushUseCase{Repo: repo}
}

// Execute reports whether the token was newly registered.
func (uc *SubscribePushUseCase) Execute(ctx context.Context, in SubscribePushInput) (bool, error) {
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return false, chat.ErrEmptyPushToken
	}
	created, err := uc.Repo.AddDestination(ctx, in.UserID, token)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return created, nil
}
