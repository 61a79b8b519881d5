package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
)

// JoinRoomInput validates a request to attach a user session to a room.
type JoinRoomInput struct {
	RoomID int64
	UserID int64
}

// JoinRoomUseCase ensures the user belongs to the room before joining the realtime room.
type JoinRoomUseCase struct {
	Repo repository.RoomRepository
}

func NewJoinRoomUseCase(repo repository.RoomRepository) *JoinRoomUseCase {
	return &JoinRoomUseCase{Repo: repo}
}

func (uc *JoinRoomUseCase) Execute(ctx context.Context, in JoinRoomInput) (*chat.Room, error) {
	if in.RoomID <= 0 || in.UserID <= 0 {
		return nil, fmt.Errorf("%w: room_id and user_id are required", ErrInvalidInput)
	}

	room, err := uc.Repo.FindRoom(ctx, in.RoomID)
	if errors.Is(err, chat.ErrRoomNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	ok, err := uc.Repo.IsMember(ctx, in.RoomID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return nil, chat.ErrNotMember
	}
	return room, nil
}
