package realtime

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var peerSeq atomic.Int64

type fakePeer struct {
	id string

	mu       sync.Mutex
	received [][]byte
	failWith error
	closed   bool
	code     int
	reason   string
}

func newFakePeer() *fakePeer {
	return &fakePeer{id: fmt.Sprintf("peer-%d", peerSeq.Add(1))}
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Send(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	if p.closed {
		return ErrConnectionClosed
	}
	p.received = append(p.received, append([]byte(nil), payload...))
	return nil
}

func (p *fakePeer) Close(code int, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.code = code
	p.reason = reason
}

func (p *fakePeer) messages() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.received...)
}

func (p *fakePeer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

var errBrokenPipe = errors.New("broken pipe")
