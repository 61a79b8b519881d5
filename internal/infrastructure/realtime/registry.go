package realtime

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 64

// Registry tracks, per room, the live connections of members attached to it.
//
// Rooms are spread over independently locked shards so that joins, leaves and
// snapshots on one room never wait on traffic in an unrelated shard. All
// operations on the same room are serialized by that room's shard lock.
type Registry struct {
	shards  [shardCount]shard
	metrics *Metrics
}

type shard struct {
	mu     sync.RWMutex
	closed bool
	rooms  map[int64]map[string]Member // roomID -> peerID -> member
}

// NewRegistry constructs an empty registry. metrics may be nil.
func NewRegistry(metrics *Metrics) *Registry {
	r := &Registry{metrics: metrics}
	for i := range r.shards {
		r.shards[i].rooms = make(map[int64]map[string]Member)
	}
	return r
}

func (r *Registry) shardFor(roomID int64) *shard {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(roomID))
	return &r.shards[xxhash.Sum64(key[:])%shardCount]
}

// Join registers peer for userID in roomID. A user may hold several
// connections in the same room; each is tracked independently. Joining the
// same peer twice is a no-op.
func (r *Registry) Join(roomID, userID int64, peer Peer) error {
	s := r.shardFor(roomID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrRegistryClosed
	}
	room := s.rooms[roomID]
	if room == nil {
		room = make(map[string]Member)
		s.rooms[roomID] = room
		r.metrics.roomOpened()
	}
	if _, ok := room[peer.ID()]; ok {
		return nil
	}
	room[peer.ID()] = Member{UserID: userID, Peer: peer}
	r.metrics.connectionAdded()
	return nil
}

// Leave removes exactly the (roomID, userID, peer) entry. It reports whether an
// entry was removed; leaving twice is harmless.
func (r *Registry) Leave(roomID, userID int64, peer Peer) bool {
	s := r.shardFor(roomID)
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[roomID]
	if room == nil {
		return false
	}
	m, ok := room[peer.ID()]
	if !ok || m.UserID != userID {
		return false
	}
	delete(room, peer.ID())
	r.metrics.connectionRemoved(1)
	if len(room) == 0 {
		delete(s.rooms, roomID)
		r.metrics.roomClosed(1)
	}
	return true
}

// Snapshot returns a point-in-time copy of the room's members.
func (r *Registry) Snapshot(roomID int64) []Member {
	s := r.shardFor(roomID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	room := s.rooms[roomID]
	if len(room) == 0 {
		return nil
	}
	out := make([]Member, 0, len(room))
	for _, m := range room {
		out = append(out, m)
	}
	return out
}

// IsPresent reports whether userID has at least one connection in roomID.
func (r *Registry) IsPresent(roomID, userID int64) bool {
	s := r.shardFor(roomID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.rooms[roomID] {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// PresentUsers returns the set of users with a live connection in roomID.
func (r *Registry) PresentUsers(roomID int64) map[int64]struct{} {
	s := r.shardFor(roomID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]struct{}, len(s.rooms[roomID]))
	for _, m := range s.rooms[roomID] {
		out[m.UserID] = struct{}{}
	}
	return out
}

// RoomCount returns the number of rooms with at least one live connection.
func (r *Registry) RoomCount() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		n += len(s.rooms)
		s.mu.RUnlock()
	}
	return n
}

// Close refuses further joins, empties every room and closes each connection
// with the given code and reason. Connections are closed outside the locks.
func (r *Registry) Close(code int, reason string) {
	var peers []Peer
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		s.closed = true
		conns := 0
		for _, room := range s.rooms {
			for _, m := range room {
				peers = append(peers, m.Peer)
				conns++
			}
		}
		r.metrics.connectionRemoved(conns)
		r.metrics.roomClosed(len(s.rooms))
		s.rooms = make(map[int64]map[string]Member)
		s.mu.Unlock()
	}

	for _, p := range peers {
		p.Close(code, reason)
	}
}
