package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userrepo "go-roomchat/internal/repository/port"
)

type ResolvePrivateRoomInput struct {
	UserID   int64
	FriendID int64
}

// ResolvePrivateRoomUseCase returns the private room shared by two users,
// creating it on first use. Argument order does not matter.
type ResolvePrivateRoomUseCase struct {
	Rooms repository.RoomRepository
	Users userrepo.UserRepository
}

func NewResolvePrivateRoomUseCase(rooms repository.RoomRepository, users userrepo.UserRepository) *ResolvePrivateRoomUseCase {
	return &ResolvePrivateRoomUseCase{Rooms: rooms, Users: users}
}

func (uc *ResolvePrivateRoomUseCase) Execute(ctx context.Context, in ResolvePrivateRoomInput) (int64, error) {
	if in.UserID <= 0 || in.FriendID <= 0 {
		return 0, fmt.Errorf("%w: user ids are required", ErrInvalidInput)
	}
	if in.UserID == in.FriendID {
		return 0, chat.ErrSelfPrivateRoom
	}

	if _, err := uc.Users.FindByID(ctx, in.FriendID); err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	id, err := uc.Rooms.FindOrCreatePrivateRoom(ctx, in.UserID, in.FriendID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return id, nil
}
