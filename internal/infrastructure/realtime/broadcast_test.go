package realtime

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"
)

func TestBroadcastIsolatesFailingConnection(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	reg := NewRegistry(metrics)
	b := NewBroadcaster(reg, zaptest.NewLogger(t), metrics)

	var healthy []*fakePeer
	for i := 0; i < 4; i++ {
		p := newFakePeer()
		healthy = append(healthy, p)
		_ = reg.Join(7, int64(i+1), p)
	}
	broken := newFakePeer()
	broken.failWith = errBrokenPipe
	_ = reg.Join(7, 99, broken)

	b.Broadcast(7, []byte(`{"type":"new_message"}`), NoExclusion)

	for i, p := range healthy {
		msgs := p.messages()
		if len(msgs) != 1 || string(msgs[0]) != `{"type":"new_message"}` {
			t.Fatalf("peer %d: expected verbatim payload, got %q", i, msgs)
		}
	}
	if reg.IsPresent(7, 99) {
		t.Fatal("expected failing connection evicted from the registry")
	}
	if !broken.isClosed() {
		t.Fatal("expected failing connection closed")
	}
	if got := len(reg.Snapshot(7)); got != 4 {
		t.Fatalf("expected 4 remaining connections, got %d", got)
	}
	if got := testutil.ToFloat64(metrics.deliveries); got != 4 {
		t.Fatalf("expected 4 deliveries, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.deliveryFailures.WithLabelValues("send_error")); got != 1 {
		t.Fatalf("expected 1 recorded failure, got %v", got)
	}
}

func TestBroadcastExcludesUserAcrossDevices(t *testing.T) {
	reg := NewRegistry(nil)
	b := NewBroadcaster(reg, nil, nil)

	senderPhone, senderLaptop, other := newFakePeer(), newFakePeer(), newFakePeer()
	_ = reg.Join(7, 1, senderPhone)
	_ = reg.Join(7, 1, senderLaptop)
	_ = reg.Join(7, 2, other)

	b.Broadcast(7, []byte("x"), 1)

	if len(senderPhone.messages()) != 0 || len(senderLaptop.messages()) != 0 {
		t.Fatal("excluded user must not receive the payload")
	}
	if len(other.messages()) != 1 {
		t.Fatalf("expected other member to receive payload, got %d", len(other.messages()))
	}
}

func TestBroadcastEmptyRoom(t *testing.T) {
	reg := NewRegistry(nil)
	b := NewBroadcaster(reg, nil, nil)
	b.Broadcast(42, []byte("x"), NoExclusion)
	if reg.RoomCount() != 0 {
		t.Fatal("broadcast must not create rooms")
	}
}
