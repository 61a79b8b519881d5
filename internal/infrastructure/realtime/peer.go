package realtime

import "errors"

var (
	ErrConnectionClosed = errors.New("realtime: connection closed")
	ErrBufferExceeded   = errors.New("realtime: connection buffer exceeded")
	ErrRegistryClosed   = errors.New("realtime: registry closed")
)

// Peer is the outbound half of a live connection as seen by the registry and
// broadcaster. Send must not block on a slow client.
type Peer interface {
	ID() string
	Send(payload []byte) error
	Close(code int, reason string)
}

// Member is one registered connection of a user in a room.
type Member struct {
	UserID int64
	Peer   Peer
}
