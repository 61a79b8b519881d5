package repository

import (
	"context"

	chat "go-roomchat/internal/pkg/chat/application/domain"
)

// RoomRepository persists rooms and their membership lists.
type RoomRepository interface {
	// FindRoom returns chat.ErrRoomNotFound when the room does not exist.
	FindRoom(ctx context.Context, roomID int64) (*chat.Room, error)
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)
	ListMemberIDs(ctx context.Context, roomID int64) ([]int64, error)
	// FindOrCreatePrivateRoom returns the single private room shared by a and b.
	FindOrCreatePrivateRoom(ctx context.Context, a, b int64) (int64, error)
	// CreateGroupRoom stores the room and enrolls its owner. Returns chat.ErrRoomNameTaken on collision.
	CreateGroupRoom(ctx context.Context, name string, ownerID int64) (*chat.Room, error)
	AddMember(ctx context.Context, roomID, userID int64) error
}

// MessageRepository persists sealed messages and their reactions.
type MessageRepository interface {
	SaveMessage(ctx context.Context, m chat.Envelope) (int64, error)
	// FindMessage returns chat.ErrMessageNotFound when no such message exists.
	FindMessage(ctx context.Context, messageID int64) (*chat.Envelope, error)
	// GetMessagesByRoom pages newest first, tombstones included.
	GetMessagesByRoom(ctx context.Context, roomID int64, limit int, offset int) ([]chat.Envelope, error)
	MarkDeleted(ctx context.Context, messageID int64) error
	SaveReaction(ctx context.Context, r chat.Reaction) (int64, error)
}

// PushRepository persists device tokens for offline notification.
type PushRepository interface {
	// AddDestination reports whether the token was new for the user.
	AddDestination(ctx context.Context, userID int64, endpoint string) (bool, error)
	ListDestinations(ctx context.Context, userIDs []int64) ([]chat.PushDestination, error)
}
