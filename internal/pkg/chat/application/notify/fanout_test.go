package notify

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/persistence/repository/memory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"
)

type staticPresence map[int64]map[int64]struct{}

func (p staticPresence) PresentUsers(roomID int64) map[int64]struct{} { return p[roomID] }

type sentPush struct {
	token, title, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentPush
	fail map[string]bool
}

func (n *recordingNotifier) Send(_ context.Context, token, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[token] {
		return errors.New("unregistered token")
	}
	n.sent = append(n.sent, sentPush{token, title, body})
	return nil
}

func (n *recordingNotifier) tokens() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.token)
	}
	sort.Strings(out)
	return out
}

// seed builds room 7 with members 1..4, each owning one device token.
func seed(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	for id, name := range map[int64]string{1: "alice", 2: "bob", 3: "carol", 4: "dave"} {
		store.AddUser(id, name)
		if _, err := store.AddDestination(context.Background(), id, name+"-phone"); err != nil {
			t.Fatalf("seed destination: %v", err)
		}
	}
	store.AddRoom(chat.Room{ID: 7, Name: "general", Kind: chat.RoomKindGroup, OwnerID: 1}, 1, 2, 3, 4)
	return store
}

func TestFanoutSkipsSenderAndPresentMembers(t *testing.T) {
	store := seed(t)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	notifier := &recordingNotifier{fail: map[string]bool{"dave-phone": true}}
	presence := staticPresence{7: {1: {}, 2: {}}}

	f := NewFanout(presence, store, store, notifier, Options{Workers: 2}, zaptest.NewLogger(t), metrics)
	f.Start(context.Background())

	sender := chat.Principal{ID: 1, DisplayName: "alice"}
	if err := f.Notify(7, sender, chat.Message{ID: 10, RoomID: 7, Content: "hello"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	f.Stop()

	if got := notifier.tokens(); !reflect.DeepEqual(got, []string{"carol-phone"}) {
		t.Fatalf("expected only carol notified, got %v", got)
	}
	if s := notifier.sent[0]; s.title != "alice" || s.body != "hello" {
		t.Fatalf("unexpected push %+v", s)
	}
	if v := testutil.ToFloat64(metrics.pushes.WithLabelValues("failed")); v != 1 {
		t.Fatalf("expected 1 failed push, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.pushes.WithLabelValues("sent")); v != 1 {
		t.Fatalf("expected 1 sent push, got %v", v)
	}
}

func TestFanoutCapturesPresenceAtNotifyTime(t *testing.T) {
	store := seed(t)
	notifier := &recordingNotifier{}
	presence := staticPresence{7: {2: {}, 3: {}, 4: {}}}

	f := NewFanout(presence, store, store, notifier, Options{Workers: 1}, nil, nil)
	if err := f.Notify(7, chat.Principal{ID: 1, DisplayName: "alice"}, chat.Message{Content: "hi"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	// Everybody leaves before the worker runs.
	delete(presence, 7)
	f.Start(context.Background())
	f.Stop()

	if got := notifier.tokens(); len(got) != 0 {
		t.Fatalf("members present at send time must not be notified, got %v", got)
	}
}

func TestFanoutMediaOnlyBody(t *testing.T) {
	store := seed(t)
	notifier := &recordingNotifier{}
	f := NewFanout(staticPresence{}, store, store, notifier, Options{Workers: 1}, nil, nil)
	f.Start(context.Background())

	url, kind := "https://cdn.example.com/a.png", "image/png"
	if err := f.Notify(7, chat.Principal{ID: 1, DisplayName: "alice"}, chat.Message{MediaURL: &url, MediaType: &kind}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	f.Stop()

	if len(notifier.sent) != 3 {
		t.Fatalf("expected 3 pushes, got %d", len(notifier.sent))
	}
	for _, s := range notifier.sent {
		if s.body != mediaOnlyBody {
			t.Fatalf("unexpected body %q", s.body)
		}
	}
}

func TestFanoutDropsWhenQueueFull(t *testing.T) {
	store := seed(t)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	f := NewFanout(staticPresence{}, store, store, &recordingNotifier{}, Options{Workers: 1, QueueSize: 1}, zaptest.NewLogger(t), metrics)

	sender := chat.Principal{ID: 1, DisplayName: "alice"}
	if err := f.Notify(7, sender, chat.Message{Content: "a"}); err != nil {
		t.Fatalf("first notify: %v", err)
	}
	if err := f.Notify(7, sender, chat.Message{Content: "b"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if v := testutil.ToFloat64(metrics.jobs.WithLabelValues("dropped")); v != 1 {
		t.Fatalf("expected 1 dropped job, got %v", v)
	}

	f.Start(context.Background())
	f.Stop()
	if err := f.Notify(7, sender, chat.Message{Content: "c"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestFanoutMembershipOutageIsContained(t *testing.T) {
	store := seed(t)
	store.SetFailure(errors.New("db down"))
	notifier := &recordingNotifier{}
	f := NewFanout(staticPresence{}, store, store, notifier, Options{Workers: 1}, zaptest.NewLogger(t), nil)
	f.Start(context.Background())
	if err := f.Notify(7, chat.Principal{ID: 1}, chat.Message{Content: "x"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	f.Stop()
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no pushes, got %d", len(notifier.sent))
	}
}

func TestRecipients(t *testing.T) {
	got := Recipients([]int64{1, 2, 3, 4}, 1, map[int64]struct{}{3: {}})
	if !reflect.DeepEqual(got, []int64{2, 4}) {
		t.Fatalf("got %v", got)
	}
}
