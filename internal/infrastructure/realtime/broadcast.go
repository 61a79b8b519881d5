package realtime

import (
	"errors"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// NoExclusion broadcasts to every connection in the room.
const NoExclusion int64 = 0

// Broadcaster fans a payload out to the live connections of a room.
type Broadcaster struct {
	registry *Registry
	logger   *zap.Logger
	metrics  *Metrics
}

func NewBroadcaster(registry *Registry, logger *zap.Logger, metrics *Metrics) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{registry: registry, logger: logger, metrics: metrics}
}

// Broadcast delivers payload to every connection in roomID whose user is not
// excludeUserID. A connection that cannot accept the payload is treated as
// disconnected: it is removed from the registry and closed. Failures never
// stop delivery to the remaining connections.
func (b *Broadcaster) Broadcast(roomID int64, payload []byte, excludeUserID int64) {
	for _, m := range b.registry.Snapshot(roomID) {
		if excludeUserID != NoExclusion && m.UserID == excludeUserID {
			continue
		}
		if err := m.Peer.Send(payload); err != nil {
			b.evict(roomID, m, err)
			continue
		}
		b.metrics.delivered()
	}
}

func (b *Broadcaster) evict(roomID int64, m Member, cause error) {
	reason := "send_error"
	switch {
	case errors.Is(cause, ErrBufferExceeded):
		reason = "slow_consumer"
	case errors.Is(cause, ErrConnectionClosed):
		reason = "closed"
	}
	b.metrics.deliveryFailed(reason)
	b.registry.Leave(roomID, m.UserID, m.Peer)
	m.Peer.Close(websocket.CloseGoingAway, "delivery failed")
	b.logger.Debug("broadcast delivery failed",
		zap.Int64("room_id", roomID),
		zap.Int64("user_id", m.UserID),
		zap.String("connection_id", m.Peer.ID()),
		zap.String("reason", reason),
		zap.Error(cause),
	)
}
