package usecase

import (
	"context"
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
)

// ListMembersInput wraps the room identifier to fetch its members.
// ViewerID, when set, must belong to the room.
type ListMembersInput struct {
	RoomID   int64
	ViewerID int64
}

// ListMembersUseCase returns user IDs for all members of the room.
type ListMembersUseCase struct {
	Repo repository.RoomRepository
}

func NewListMembersUseCase(repo repository.RoomRepository) *ListMembersUseCase {
	return &ListMembersUseCase{Repo: repo}
}

func (uc *ListMembersUseCase) Execute(ctx context.Context, in ListMembersInput) ([]int64, error) {
	if in.RoomID <= 0 {
		return nil, fmt.Errorf("%w: room_id is required", ErrInvalidInput)
	}
	if in.ViewerID > 0 {
		ok, err := uc.Repo.IsMember(ctx, in.RoomID, in.ViewerID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if !ok {
			return nil, chat.ErrNotMember
		}
	}
	ids, err := uc.Repo.ListMemberIDs(ctx, in.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ids, nil
}
