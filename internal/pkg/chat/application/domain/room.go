package chat

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// RoomKind tells private (two fixed members) from group rooms.
type RoomKind string

const (
	RoomKindPrivate RoomKind = "private"
	RoomKindGroup   RoomKind = "group"
)

const maxRoomNameLength = 100

// Room is a named channel with a fixed membership list.
type Room struct {
	ID        int64
	Name      string
	Kind      RoomKind
	OwnerID   int64
	CreatedAt time.Time
}

// PrivatePairKey identifies the private room shared by two users regardless of
// argument order.
func PrivatePairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// PrivateRoomName is the display name given to a freshly created private room.
func PrivateRoomName(a, b int64) string {
	return "private:" + PrivatePairKey(a, b)
}

// NormalizeRoomName trims name and checks its length.
func NormalizeRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > maxRoomNameLength {
		return "", ErrInvalidRoomName
	}
	return name, nil
}

// Membership is the aggregate guarding who may change a room's member list.
// The application layer hydrates it with the room and its current members.
type Membership struct {
	Room    Room
	Members map[int64]struct{}
}

// Has tells whether userID belongs to the room.
func (m *Membership) Has(userID int64) bool {
	if m == nil || m.Members == nil {
		return false
	}
	_, ok := m.Members[userID]
	return ok
}

// Admit validates that actorID may add userID. It reports false when userID is
// already a member so callers can skip the write.
func (m *Membership) Admit(actorID, userID int64) (bool, error) {
	if m.Room.Kind == RoomKindPrivate {
		return false, ErrPrivateRoom
	}
	if m.Room.OwnerID != actorID {
		return false, ErrNotOwner
	}
	if m.Has(userID) {
		return false, nil
	}
	if m.Members == nil {
		m.Members = make(map[int64]struct{})
	}
	m.Members[userID] = struct{}{}
	return true, nil
}
