package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
)

// CreateRoomInput describes a new group room; the caller becomes its owner and first member.
type CreateRoomInput struct {
	OwnerID int64
	Name    string
}

type CreateRoomUseCase struct {
	Repo repository.RoomRepository
}

func NewCreateRoomUseCase(repo repository.RoomRepository) *CreateRoomUseCase {
	return &CreateRoomUseCase{Repo: repo}
}

func (uc *CreateRoomUseCase) Execute(ctx context.Context, in CreateRoomInput) (*chat.Room, error) {
	if in.OwnerID <= 0 {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	name, err := chat.NormalizeRoomName(in.Name)
	if err != nil {
		return nil, err
	}

	room, err := uc.Repo.CreateGroupRoom(ctx, name, in.OwnerID)
	if errors.Is(err, chat.ErrRoomNameTaken) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return room, nil
}
