// Package memory is a test fixture: in-process repository implementations
// backed by maps. They honor the same contracts as the Postgres adapters and
// are imported only from _test.go files; production wiring uses the pgx adapters.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	chatrepo "go-roomchat/internal/pkg/chat/persistence/repository/port"
	userrepo "go-roomchat/internal/repository/port"
)

var (
	_ chatrepo.RoomRepository    = (*Store)(nil)
	_ chatrepo.MessageRepository = (*Store)(nil)
	_ chatrepo.PushRepository    = (*Store)(nil)
	_ userrepo.UserRepository    = (*Store)(nil)
)

// Store implements the room, message, push and user repositories.
type Store struct {
	mu sync.Mutex

	nextID       int64
	users        map[int64]userrepo.User
	rooms        map[int64]chat.Room
	privateRooms map[string]int64
	members      map[int64]map[int64]struct{}
	messages     map[int64]chat.Envelope
	reactions    []chat.Reaction
	destinations map[int64][]chat.PushDestination

	// Fail, when set, is returned by every method to simulate an outage.
	Fail error
}

func NewStore() *Store {
	return &Store{
		users:        make(map[int64]userrepo.User),
		rooms:        make(map[int64]chat.Room),
		privateRooms: make(map[string]int64),
		members:      make(map[int64]map[int64]struct{}),
		messages:     make(map[int64]chat.Envelope),
		destinations: make(map[int64][]chat.PushDestination),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddUser seeds an account with a fixed id.
func (s *Store) AddUser(id int64, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = userrepo.User{ID: id, Username: username, Email: username + "@example.com", CreatedAt: time.Now().UTC()}
	if id > s.nextID {
		s.nextID = id
	}
}

// AddRoom seeds a room with a fixed id and member list.
func (s *Store) AddRoom(room chat.Room, memberIDs ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	set := make(map[int64]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		set[id] = struct{}{}
	}
	s.members[room.ID] = set
	if room.ID > s.nextID {
		s.nextID = room.ID
	}
}

// SetFailure makes every subsequent call return err (nil restores normal operation).
func (s *Store) SetFailure(err error) {
	s.mu.Lock()
	s.Fail = err
	s.mu.Unlock()
}

// Messages returns the stored envelopes in insertion order.
func (s *Store) Messages() []chat.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Envelope, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reactions returns the stored reactions in insertion order.
func (s *Store) Reactions() []chat.Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Reaction(nil), s.reactions...)
}

func (s *Store) FindByID(_ context.Context, id int64) (*userrepo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	u, ok := s.users[id]
	if !ok {
		return nil, userrepo.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) FindByUsername(_ context.Context, username string) (*userrepo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, userrepo.ErrUserNotFound
}

func (s *Store) FindIDsByUsernames(_ context.Context, usernames []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := make(map[string]int64, len(usernames))
	for _, name := range usernames {
		for _, u := range s.users {
			if u.Username == name {
				out[name] = u.ID
			}
		}
	}
	return out, nil
}

func (s *Store) FindRoom(_ context.Context, roomID int64) (*chat.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, chat.ErrRoomNotFound
	}
	return &room, nil
}

func (s *Store) IsMember(_ context.Context, roomID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return false, s.Fail
	}
	_, ok := s.members[roomID][userID]
	return ok, nil
}

func (s *Store) ListMemberIDs(_ context.Context, roomID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	ids := make([]int64, 0, len(s.members[roomID]))
	for id := range s.members[roomID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) FindOrCreatePrivateRoom(_ context.Context, a, b int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return 0, s.Fail
	}
	key := chat.PrivatePairKey(a, b)
	if id, ok := s.privateRooms[key]; ok {
		return id, nil
	}
	if a > b {
		a, b = b, a
	}
	id := s.id()
	s.rooms[id] = chat.Room{ID: id, Name: chat.PrivateRoomName(a, b), Kind: chat.RoomKindPrivate, OwnerID: a, CreatedAt: time.Now().UTC()}
	s.members[id] = map[int64]struct{}{a: {}, b: {}}
	s.privateRooms[key] = id
	return id, nil
}

func (s *Store) CreateGroupRoom(_ context.Context, name string, ownerID int64) (*chat.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	for _, r := range s.rooms {
		if r.Name == name {
			return nil, chat.ErrRoomNameTaken
		}
	}
	room := chat.Room{ID: s.id(), Name: name, Kind: chat.RoomKindGroup, OwnerID: ownerID, CreatedAt: time.Now().UTC()}
	s.rooms[room.ID] = room
	s.members[room.ID] = map[int64]struct{}{ownerID: {}}
	return &room, nil
}

func (s *Store) AddMember(_ context.Context, roomID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	if s.members[roomID] == nil {
		s.members[roomID] = make(map[int64]struct{})
	}
	s.members[roomID][userID] = struct{}{}
	return nil
}

func (s *Store) SaveMessage(_ context.Context, m chat.Envelope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return 0, s.Fail
	}
	m.ID = s.id()
	if u, ok := s.users[m.SenderID]; ok {
		m.SenderName = u.Username
	}
	s.messages[m.ID] = m
	return m.ID, nil
}

func (s *Store) FindMessage(_ context.Context, messageID int64) (*chat.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	m, ok := s.messages[messageID]
	if !ok {
		return nil, chat.ErrMessageNotFound
	}
	return &m, nil
}

func (s *Store) GetMessagesByRoom(_ context.Context, roomID int64, limit int, offset int) ([]chat.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	var out []chat.Envelope
	for _, m := range s.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkDeleted(_ context.Context, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	m, ok := s.messages[messageID]
	if !ok {
		return chat.ErrMessageNotFound
	}
	m.Deleted = true
	m.CreatedAt = time.Now().UTC()
	s.messages[messageID] = m
	return nil
}

func (s *Store) SaveReaction(_ context.Context, r chat.Reaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return 0, s.Fail
	}
	r.ID = s.id()
	s.reactions = append(s.reactions, r)
	return r.ID, nil
}

func (s *Store) AddDestination(_ context.Context, userID int64, endpoint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return false, s.Fail
	}
	for _, d := range s.destinations[userID] {
		if d.Endpoint == endpoint {
			return false, nil
		}
	}
	s.destinations[userID] = append(s.destinations[userID], chat.PushDestination{ID: s.id(), UserID: userID, Endpoint: endpoint})
	return true, nil
}

func (s *Store) ListDestinations(_ context.Context, userIDs []int64) ([]chat.PushDestination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	var out []chat.PushDestination
	for _, id := range userIDs {
		out = append(out, s.destinations[id]...)
	}
	return out, nil
}
