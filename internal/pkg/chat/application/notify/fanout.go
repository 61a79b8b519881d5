// Package notify pushes new messages to room members who are not connected.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-roomchat/internal/infrastructure/push/port"
	chat "go-roomchat/internal/pkg/chat/application/domain"

	"go.uber.org/zap"
)

// ErrStopped is returned by Notify after Stop.
var ErrStopped = errors.New("notify: fan-out stopped")

// ErrQueueFull is returned by Notify when the job queue has no room.
var ErrQueueFull = errors.New("notify: queue full")

const (
	defaultWorkers   = 4
	defaultQueueSize = 1024
	defaultTimeout   = 15 * time.Second

	mediaOnlyBody = "Sent an attachment"
)

// Presence reports which users currently hold a live connection in a room.
type Presence interface {
	PresentUsers(roomID int64) map[int64]struct{}
}

type MemberLister interface {
	ListMemberIDs(ctx context.Context, roomID int64) ([]int64, error)
}

type DestinationLister interface {
	ListDestinations(ctx context.Context, userIDs []int64) ([]chat.PushDestination, error)
}

type Options struct {
	Workers   int
	QueueSize int
	// Timeout bounds the work done for one message.
	Timeout time.Duration
}

type job struct {
	roomID  int64
	sender  chat.Principal
	body    string
	present map[int64]struct{}
}

// Fanout notifies offline members of a room after a message was broadcast.
// Presence is captured when Notify is called; the membership lookup and the
// pushes run on a worker pool so the caller never waits on them.
type Fanout struct {
	presence     Presence
	members      MemberLister
	destinations DestinationLister
	notifier     port.Notifier
	logger       *zap.Logger
	metrics      *Metrics
	timeout      time.Duration
	workers      int

	mu      sync.RWMutex
	stopped bool
	jobs    chan job
	wg      sync.WaitGroup
}

func NewFanout(presence Presence, members MemberLister, destinations DestinationLister, notifier port.Notifier, opts Options, logger *zap.Logger, metrics *Metrics) *Fanout {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{
		presence:     presence,
		members:      members,
		destinations: destinations,
		notifier:     notifier,
		logger:       logger,
		metrics:      metrics,
		timeout:      opts.Timeout,
		workers:      opts.Workers,
		jobs:         make(chan job, opts.QueueSize),
	}
}

// Start launches the workers. Jobs inherit ctx for cancellation.
func (f *Fanout) Start(ctx context.Context) {
	for i := 0; i < f.workers; i++ {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			for j := range f.jobs {
				f.dispatch(ctx, j)
			}
		}()
	}
}

// Notify schedules offline notification for msg. It never blocks: when the
// queue is full the job is dropped and counted.
func (f *Fanout) Notify(roomID int64, sender chat.Principal, msg chat.Message) error {
	j := job{
		roomID:  roomID,
		sender:  sender,
		body:    msg.Content,
		present: f.presence.PresentUsers(roomID),
	}
	if j.body == "" {
		j.body = mediaOnlyBody
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.stopped {
		return ErrStopped
	}
	select {
	case f.jobs <- j:
		f.metrics.enqueued()
		return nil
	default:
		f.metrics.dropped()
		f.logger.Warn("notification queue full, dropping",
			zap.Int64("room_id", roomID),
			zap.Int64("message_id", msg.ID),
		)
		return ErrQueueFull
	}
}

// Stop refuses new jobs and waits for queued ones to finish.
func (f *Fanout) Stop() {
	f.mu.Lock()
	if !f.stopped {
		f.stopped = true
		close(f.jobs)
	}
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *Fanout) dispatch(parent context.Context, j job) {
	ctx, cancel := context.WithTimeout(parent, f.timeout)
	defer cancel()

	log := f.logger.With(zap.Int64("room_id", j.roomID), zap.Int64("sender_id", j.sender.ID))

	memberIDs, err := f.members.ListMemberIDs(ctx, j.roomID)
	if err != nil {
		f.metrics.failed()
		log.Warn("list room members for notification", zap.Error(err))
		return
	}
	absent := Recipients(memberIDs, j.sender.ID, j.present)
	if len(absent) == 0 {
		return
	}

	dests, err := f.destinations.ListDestinations(ctx, absent)
	if err != nil {
		f.metrics.failed()
		log.Warn("list push destinations", zap.Error(err))
		return
	}
	for _, d := range dests {
		if err := f.notifier.Send(ctx, d.Endpoint, j.sender.DisplayName, j.body); err != nil {
			f.metrics.failed()
			log.Warn("push notification failed",
				zap.Int64("user_id", d.UserID),
				zap.Int64("destination_id", d.ID),
				zap.Error(err),
			)
			continue
		}
		f.metrics.sent()
	}
}

// Recipients returns the members that are neither the sender nor present.
func Recipients(memberIDs []int64, senderID int64, present map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id == senderID {
			continue
		}
		if _, ok := present[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}
