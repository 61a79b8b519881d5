package chat

import "errors"

// Domain-level errors for chat behaviors
var (
	ErrRoomNotFound    = errors.New("chat: room not found")
	ErrNotMember       = errors.New("chat: user is not a member of the room")
	ErrNotOwner        = errors.New("chat: only the room owner may do this")
	ErrPrivateRoom     = errors.New("chat: private rooms have a fixed membership")
	ErrSelfPrivateRoom = errors.New("chat: cannot open a private room with yourself")
	ErrInvalidRoomName = errors.New("chat: room name must be between 1 and 100 characters")
	ErrEmptyMessage    = errors.New("chat: empty message (no content or media)")
	ErrContentTooLong  = errors.New("chat: message content exceeds 5000 characters")
	ErrInvalidMedia    = errors.New("chat: invalid media reference")
	ErrMessageNotFound = errors.New("chat: message not found")
	ErrParentMismatch  = errors.New("chat: reply parent belongs to another room")
	ErrNotSender       = errors.New("chat: only the sender may delete a message")
	ErrInvalidReaction = errors.New("chat: invalid reaction type")
	ErrEmptyPushToken  = errors.New("chat: push token is required")
	ErrMessageDeleted  = errors.New("chat: message was deleted")
)

// ErrRoomNameTaken reports a group room name collision.
var ErrRoomNameTaken = errors.New("chat: room name already taken")
