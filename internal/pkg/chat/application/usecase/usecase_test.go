package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go-roomchat/internal/infrastructure/crypto"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/persistence/repository/memory"
	userrepo "go-roomchat/internal/repository/port"
)

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
	room7 int64 = 7
)

var errOutage = errors.New("connection refused")

func setup(t *testing.T) (*memory.Store, *crypto.Codec) {
	t.Helper()
	store := memory.NewStore()
	store.AddUser(alice, "alice")
	store.AddUser(bob, "bob")
	store.AddUser(carol, "carol")
	store.AddRoom(chat.Room{ID: room7, Name: "general", Kind: chat.RoomKindGroup, OwnerID: alice}, alice, bob)

	codec, err := crypto.NewCodec("test-secret")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return store, codec
}

func strPtr(s string) *string { return &s }

func TestSendMessageSealsContent(t *testing.T) {
	store, codec := setup(t)
	uc := NewSendMessageUseCase(store, store, codec)

	msg, err := uc.Execute(context.Background(), SendMessageInput{
		RoomID: room7, SenderID: alice, SenderName: "alice", Content: "  hi @bob and @nobody ",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == 0 || msg.Content != "hi @bob and @nobody" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !reflect.DeepEqual(msg.Mentions, []int64{bob}) {
		t.Fatalf("expected mention of bob only, got %v", msg.Mentions)
	}

	stored := store.Messages()
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(stored))
	}
	if stored[0].Ciphertext == msg.Content {
		t.Fatal("content stored in plaintext")
	}
	plain, err := codec.Decrypt(stored[0].Ciphertext)
	if err != nil || plain != msg.Content {
		t.Fatalf("stored content does not decrypt to original: %q %v", plain, err)
	}
}

func TestSendMessageRejections(t *testing.T) {
	store, codec := setup(t)
	uc := NewSendMessageUseCase(store, store, codec)
	ctx := context.Background()

	other := memoryParent(t, store, codec, 99)

	cases := []struct {
		name string
		in   SendMessageInput
		want error
	}{
		{"missing room", SendMessageInput{SenderID: alice, Content: "x"}, ErrInvalidInput},
		{"empty", SendMessageInput{RoomID: room7, SenderID: alice, Content: "  "}, chat.ErrEmptyMessage},
		{"bad media", SendMessageInput{RoomID: room7, SenderID: alice, MediaURL: strPtr("file:///etc/passwd"), MediaType: strPtr("image/png")}, chat.ErrInvalidMedia},
		{"unknown parent", SendMessageInput{RoomID: room7, SenderID: alice, Content: "x", ParentID: ptr(int64(12345))}, chat.ErrMessageNotFound},
		{"foreign parent", SendMessageInput{RoomID: room7, SenderID: alice, Content: "x", ParentID: &other}, chat.ErrParentMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.Execute(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if n := len(store.Messages()); n != 1 {
		t.Fatalf("rejected messages must not be stored, have %d", n)
	}
}

func TestSendMessagePersistenceFailure(t *testing.T) {
	store, codec := setup(t)
	uc := NewSendMessageUseCase(store, store, codec)
	store.SetFailure(errOutage)

	_, err := uc.Execute(context.Background(), SendMessageInput{RoomID: room7, SenderID: alice, Content: "hi"})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestAddReaction(t *testing.T) {
	store, codec := setup(t)
	send := NewSendMessageUseCase(store, store, codec)
	uc := NewAddReactionUseCase(store)
	ctx := context.Background()

	msg, err := send.Execute(ctx, SendMessageInput{RoomID: room7, SenderID: alice, Content: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := uc.Execute(ctx, AddReactionInput{RoomID: room7, MessageID: msg.ID, UserID: bob, Reaction: "wow"}); !errors.Is(err, chat.ErrInvalidReaction) {
		t.Fatalf("expected ErrInvalidReaction, got %v", err)
	}
	if _, err := uc.Execute(ctx, AddReactionInput{RoomID: 8, MessageID: msg.ID, UserID: bob, Reaction: "like"}); !errors.Is(err, chat.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound for cross-room reaction, got %v", err)
	}

	for i := 0; i < 2; i++ {
		r, err := uc.Execute(ctx, AddReactionInput{RoomID: room7, MessageID: msg.ID, UserID: bob, Reaction: "love"})
		if err != nil {
			t.Fatalf("react: %v", err)
		}
		if r.ID == 0 || r.Kind != chat.ReactionLove || r.UserID != bob {
			t.Fatalf("unexpected reaction %+v", r)
		}
	}
	if n := len(store.Reactions()); n != 2 {
		t.Fatalf("expected duplicate reactions to be stored, have %d", n)
	}
}

func TestJoinRoom(t *testing.T) {
	store, _ := setup(t)
	uc := NewJoinRoomUseCase(store)
	ctx := context.Background()

	if _, err := uc.Execute(ctx, JoinRoomInput{RoomID: room7, UserID: alice}); err != nil {
		t.Fatalf("member join: %v", err)
	}
	if _, err := uc.Execute(ctx, JoinRoomInput{RoomID: room7, UserID: carol}); !errors.Is(err, chat.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if _, err := uc.Execute(ctx, JoinRoomInput{RoomID: 404, UserID: alice}); !errors.Is(err, chat.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	store.SetFailure(errOutage)
	if _, err := uc.Execute(ctx, JoinRoomInput{RoomID: room7, UserID: alice}); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestGetMessageDecryptsAndKeepsTombstones(t *testing.T) {
	store, codec := setup(t)
	send := NewSendMessageUseCase(store, store, codec)
	del := NewDeleteMessageUseCase(store)
	uc := NewGetMessageUseCase(store, store, codec)
	ctx := context.Background()

	var ids []int64
	for _, text := range []string{"one", "two", "three"} {
		m, err := send.Execute(ctx, SendMessageInput{RoomID: room7, SenderID: alice, Content: text})
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		ids = append(ids, m.ID)
	}
	if _, err := del.Execute(ctx, DeleteMessageInput{RoomID: room7, MessageID: ids[1], UserID: alice}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	msgs, err := uc.Execute(ctx, GetMessageInput{RoomID: room7, UserID: bob})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "three" || msgs[2].Content != "one" {
		t.Fatalf("expected newest first, got %q..%q", msgs[0].Content, msgs[2].Content)
	}
	if !msgs[1].Deleted || msgs[1].Content != "" {
		t.Fatalf("expected tombstone without content, got %+v", msgs[1])
	}

	page, err := uc.Execute(ctx, GetMessageInput{RoomID: room7, UserID: bob, Limit: 1, Offset: 2})
	if err != nil || len(page) != 1 || page[0].Content != "one" {
		t.Fatalf("unexpected page %+v, %v", page, err)
	}

	if _, err := uc.Execute(ctx, GetMessageInput{RoomID: room7, UserID: carol}); !errors.Is(err, chat.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestGetMessageUndecryptable(t *testing.T) {
	store, codec := setup(t)
	if _, err := store.SaveMessage(context.Background(), chat.Envelope{RoomID: room7, SenderID: alice, Ciphertext: "legacy"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	uc := NewGetMessageUseCase(store, store, codec)
	if _, err := uc.Execute(context.Background(), GetMessageInput{RoomID: room7, UserID: alice}); !errors.Is(err, ErrEncryption) {
		t.Fatalf("expected ErrEncryption, got %v", err)
	}
}

func TestResolvePrivateRoomIsSymmetric(t *testing.T) {
	store, _ := setup(t)
	uc := NewResolvePrivateRoomUseCase(store, store)
	ctx := context.Background()

	first, err := uc.Execute(ctx, ResolvePrivateRoomInput{UserID: bob, FriendID: carol})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := uc.Execute(ctx, ResolvePrivateRoomInput{UserID: carol, FriendID: bob})
	if err != nil {
		t.Fatalf("resolve reversed: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same room, got %d and %d", first, second)
	}
	members, _ := store.ListMemberIDs(ctx, first)
	if !reflect.DeepEqual(members, []int64{bob, carol}) {
		t.Fatalf("unexpected members %v", members)
	}

	if _, err := uc.Execute(ctx, ResolvePrivateRoomInput{UserID: bob, FriendID: bob}); !errors.Is(err, chat.ErrSelfPrivateRoom) {
		t.Fatalf("expected ErrSelfPrivateRoom, got %v", err)
	}
	if _, err := uc.Execute(ctx, ResolvePrivateRoomInput{UserID: bob, FriendID: 500}); !errors.Is(err, userrepo.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateRoomAndAddMember(t *testing.T) {
	store, _ := setup(t)
	create := NewCreateRoomUseCase(store)
	add := NewAddMemberUseCase(store, store)
	ctx := context.Background()

	room, err := create.Execute(ctx, CreateRoomInput{OwnerID: bob, Name: " dev "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.Name != "dev" || room.OwnerID != bob || room.Kind != chat.RoomKindGroup {
		t.Fatalf("unexpected room %+v", room)
	}
	if _, err := create.Execute(ctx, CreateRoomInput{OwnerID: alice, Name: "dev"}); !errors.Is(err, chat.ErrRoomNameTaken) {
		t.Fatalf("expected ErrRoomNameTaken, got %v", err)
	}

	if _, err := add.Execute(ctx, AddMemberInput{RoomID: room.ID, ActorID: alice, UserID: carol}); !errors.Is(err, chat.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	added, err := add.Execute(ctx, AddMemberInput{RoomID: room.ID, ActorID: bob, UserID: carol})
	if err != nil || !added {
		t.Fatalf("expected carol added, got %v %v", added, err)
	}
	added, err = add.Execute(ctx, AddMemberInput{RoomID: room.ID, ActorID: bob, UserID: carol})
	if err != nil || added {
		t.Fatalf("expected no-op re-add, got %v %v", added, err)
	}
	if _, err := add.Execute(ctx, AddMemberInput{RoomID: room.ID, ActorID: bob, UserID: 500}); !errors.Is(err, userrepo.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	ids, err := NewListMembersUseCase(store).Execute(ctx, ListMembersInput{RoomID: room.ID})
	if err != nil || !reflect.DeepEqual(ids, []int64{bob, carol}) {
		t.Fatalf("unexpected members %v, %v", ids, err)
	}
	if _, err := NewListMembersUseCase(store).Execute(ctx, ListMembersInput{RoomID: room.ID, ViewerID: alice}); !errors.Is(err, chat.ErrNotMember) {
		t.Fatalf("expected ErrNotMember for outsider, got %v", err)
	}
}

func TestSubscribePushIsIdempotent(t *testing.T) {
	store, _ := setup(t)
	uc := NewSubscribePushUseCase(store)
	ctx := context.Background()

	if _, err := uc.Execute(ctx, SubscribePushInput{UserID: bob, Token: "  "}); !errors.Is(err, chat.ErrEmptyPushToken) {
		t.Fatalf("expected ErrEmptyPushToken, got %v", err)
	}
	created, err := uc.Execute(ctx, SubscribePushInput{UserID: bob, Token: "device-1"})
	if err != nil || !created {
		t.Fatalf("expected new subscription, got %v %v", created, err)
	}
	created, err = uc.Execute(ctx, SubscribePushInput{UserID: bob, Token: "device-1"})
	if err != nil || created {
		t.Fatalf("expected existing subscription, got %v %v", created, err)
	}
}

func TestDeleteMessage(t *testing.T) {
	store, codec := setup(t)
	send := NewSendMessageUseCase(store, store, codec)
	uc := NewDeleteMessageUseCase(store)
	ctx := context.Background()

	msg, err := send.Execute(ctx, SendMessageInput{RoomID: room7, SenderID: alice, Content: "oops"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := uc.Execute(ctx, DeleteMessageInput{RoomID: room7, MessageID: msg.ID, UserID: bob}); !errors.Is(err, chat.ErrNotSender) {
		t.Fatalf("expected ErrNotSender, got %v", err)
	}
	changed, err := uc.Execute(ctx, DeleteMessageInput{RoomID: room7, MessageID: msg.ID, UserID: alice})
	if err != nil || !changed {
		t.Fatalf("expected delete, got %v %v", changed, err)
	}
	changed, err = uc.Execute(ctx, DeleteMessageInput{RoomID: room7, MessageID: msg.ID, UserID: alice})
	if err != nil || changed {
		t.Fatalf("expected no-op on second delete, got %v %v", changed, err)
	}
	if _, err := NewAddReactionUseCase(store).Execute(ctx, AddReactionInput{RoomID: room7, MessageID: msg.ID, UserID: bob, Reaction: "sad"}); !errors.Is(err, chat.ErrMessageDeleted) {
		t.Fatalf("expected ErrMessageDeleted, got %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

// memoryParent stores a message in another room and returns its id.
func memoryParent(t *testing.T, store *memory.Store, codec *crypto.Codec, roomID int64) int64 {
	t.Helper()
	store.AddRoom(chat.Room{ID: roomID, Name: "elsewhere", Kind: chat.RoomKindGroup, OwnerID: alice}, alice)
	m, err := NewSendMessageUseCase(store, store, codec).Execute(context.Background(), SendMessageInput{RoomID: roomID, SenderID: alice, Content: "elsewhere"})
	if err != nil {
		t.Fatalf("seed parent: %v", err)
	}
	return m.ID
}
