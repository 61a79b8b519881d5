package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"go-roomchat/internal/infrastructure/crypto"
	"go-roomchat/internal/infrastructure/realtime"
	"go-roomchat/internal/pkg/auth"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/application/usecase"
	"go-roomchat/internal/pkg/chat/persistence/repository/memory"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
)

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
	room7 int64 = 7
)

var errConnGone = errors.New("connection gone")

type fakeConn struct {
	id      string
	inbound chan []byte
	frames  chan []byte
	done    chan struct{}

	mu     sync.Mutex
	closed bool
	code   int
	reason string
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{
		id:      id,
		inbound: make(chan []byte, 16),
		frames:  make(chan []byte, 64),
		done:    make(chan struct{}),
	}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return realtime.ErrConnectionClosed
	}
	c.frames <- p
	return nil
}

func (c *fakeConn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed, c.code, c.reason = true, code, reason
	close(c.done)
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case d, ok := <-c.inbound:
		if !ok {
			return nil, io.EOF
		}
		return d, nil
	case <-c.done:
		return nil, errConnGone
	}
}

func (c *fakeConn) closeStatus() (bool, int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.code, c.reason
}

func (c *fakeConn) write(t *testing.T, frame string) {
	t.Helper()
	c.inbound <- []byte(frame)
}

// expectFrame waits for the next outbound frame and checks its type.
func (c *fakeConn) expectFrame(t *testing.T, typ string) map[string]any {
	t.Helper()
	select {
	case raw := <-c.frames:
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("%s: bad frame %q: %v", c.id, raw, err)
		}
		if m["type"] != typ {
			t.Fatalf("%s: expected %q frame, got %s", c.id, typ, raw)
		}
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("%s: timed out waiting for %q frame", c.id, typ)
		return nil
	}
}

func (c *fakeConn) expectSilence(t *testing.T) {
	t.Helper()
	select {
	case raw := <-c.frames:
		t.Fatalf("%s: unexpected frame %s", c.id, raw)
	case <-time.After(100 * time.Millisecond):
	}
}

type tokenVerifier map[string]chat.Principal

func (v tokenVerifier) Verify(_ context.Context, credential string) (chat.Principal, error) {
	if credential == "outage" {
		return chat.Principal{}, errors.New("user store unavailable")
	}
	p, ok := v[credential]
	if !ok {
		return chat.Principal{}, auth.ErrUnauthorized
	}
	return p, nil
}

type notifyCall struct {
	roomID int64
	sender chat.Principal
	msg    chat.Message
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *recordingNotifier) Notify(roomID int64, sender chat.Principal, msg chat.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{roomID, sender, msg})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type harness struct {
	store    *memory.Store
	codec    *crypto.Codec
	registry *realtime.Registry
	notifier *recordingNotifier
	metrics  *Metrics
	runner   *Runner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)

	store := memory.NewStore()
	store.AddUser(alice, "alice")
	store.AddUser(bob, "bob")
	store.AddUser(carol, "carol")
	store.AddRoom(chat.Room{ID: room7, Name: "general", Kind: chat.RoomKindGroup, OwnerID: alice}, alice, bob)

	codec, err := crypto.NewCodec("session-test")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	registry := realtime.NewRegistry(nil)
	broadcaster := realtime.NewBroadcaster(registry, logger, nil)
	notifier := &recordingNotifier{}
	pipeline := NewPipeline(
		usecase.NewSendMessageUseCase(store, store, codec),
		usecase.NewAddReactionUseCase(store),
		usecase.NewDeleteMessageUseCase(store),
		broadcaster, notifier, logger,
	)
	verifier := tokenVerifier{
		"token-a": {ID: alice, DisplayName: "alice"},
		"token-b": {ID: bob, DisplayName: "bob"},
		"token-c": {ID: carol, DisplayName: "carol"},
	}
	metrics := NewMetrics(prometheus.NewRegistry())
	runner := NewRunner(verifier, usecase.NewJoinRoomUseCase(store), registry, broadcaster, pipeline, RunnerOptions{}, logger, metrics)

	return &harness{store: store, codec: codec, registry: registry, notifier: notifier, metrics: metrics, runner: runner}
}

// start runs a session in the background and waits until it is present in the room.
func (h *harness) start(t *testing.T, ctx context.Context, conn *fakeConn, userID int64, token string) <-chan error {
	t.Helper()
	result := make(chan error, 1)
	go func() { result <- h.runner.Run(ctx, conn, room7, token) }()
	deadline := time.Now().Add(2 * time.Second)
	for !h.registered(conn.id) {
		if time.Now().After(deadline) {
			t.Fatalf("user %d never joined", userID)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return result
}

func (h *harness) registered(connID string) bool {
	for _, m := range h.registry.Snapshot(room7) {
		if m.Peer.ID() == connID {
			return true
		}
	}
	return false
}

func waitResult(t *testing.T, result <-chan error) error {
	t.Helper()
	select {
	case err := <-result:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
		return nil
	}
}
