package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userrepo "go-roomchat/internal/repository/port"
)

type AddMemberInput struct {
	RoomID  int64
	ActorID int64
	UserID  int64
}

// AddMemberUseCase lets a group room's owner enroll another user.
type AddMemberUseCase struct {
	Rooms repository.RoomRepository
	Users userrepo.UserRepository
}

func NewAddMemberUseCase(rooms repository.RoomRepository, users userrepo.UserRepository) *AddMemberUseCase {
	return &AddMemberUseCase{Rooms: rooms, Users: users}
}

// Execute reports whether the user was newly added.
func (uc *AddMemberUseCase) Execute(ctx context.Context, in AddMemberInput) (bool, error) {
	if in.RoomID <= 0 || in.UserID <= 0 {
		return false, fmt.Errorf("%w: room_id and user_id are required", ErrInvalidInput)
	}

	room, err := uc.Rooms.FindRoom(ctx, in.RoomID)
	if errors.Is(err, chat.ErrRoomNotFound) {
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	ids, err := uc.Rooms.ListMemberIDs(ctx, in.RoomID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	membership := chat.Membership{Room: *room, Members: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		membership.Members[id] = struct{}{}
	}

	added, err := membership.Admit(in.ActorID, in.UserID)
	if err != nil || !added {
		return false, err
	}

	if _, err := uc.Users.FindByID(ctx, in.UserID); err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return false, err
		}
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := uc.Rooms.AddMember(ctx, in.RoomID, in.UserID); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return true, nil
}
