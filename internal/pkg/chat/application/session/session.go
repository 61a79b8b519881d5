// Package session drives one websocket connection through authorization,
// room membership, the receive loop and cleanup.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go-roomchat/internal/infrastructure/realtime"
	"go-roomchat/internal/pkg/auth"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/application/usecase"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultEventTimeout = 5 * time.Second

// State is a session's position in its lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateAuthorizing
	StateAuthorized
	StateJoined
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthorizing:
		return "authorizing"
	case StateAuthorized:
		return "authorized"
	case StateJoined:
		return "joined"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the transport handle a session runs on.
type Conn interface {
	realtime.Peer
	ReadMessage() ([]byte, error)
}

// Registry is the presence view a session joins and leaves.
type Registry interface {
	Join(roomID, userID int64, peer realtime.Peer) error
	Leave(roomID, userID int64, peer realtime.Peer) bool
}

type RunnerOptions struct {
	// EventTimeout bounds storage work for a single inbound event.
	EventTimeout time.Duration
}

// Runner holds the collaborators shared by every session.
type Runner struct {
	auth         auth.Verifier
	join         *usecase.JoinRoomUseCase
	registry     Registry
	broadcaster  Broadcaster
	pipeline     *Pipeline
	logger       *zap.Logger
	metrics      *Metrics
	eventTimeout time.Duration
}

func NewRunner(verifier auth.Verifier, join *usecase.JoinRoomUseCase, registry Registry, broadcaster Broadcaster, pipeline *Pipeline, opts RunnerOptions, logger *zap.Logger, metrics *Metrics) *Runner {
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = defaultEventTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		auth:         verifier,
		join:         join,
		registry:     registry,
		broadcaster:  broadcaster,
		pipeline:     pipeline,
		logger:       logger,
		metrics:      metrics,
		eventTimeout: opts.EventTimeout,
	}
}

// Session is the state of one connection bound to one room.
type Session struct {
	r         *Runner
	conn      Conn
	roomID    int64
	principal chat.Principal
	state     atomic.Int32
	log       *zap.Logger
}

// Run authorizes credential, joins conn to roomID and serves it until the
// connection ends. It returns nil when the peer went away, otherwise the
// *CloseError the connection was closed with. conn is always closed on return.
func (r *Runner) Run(ctx context.Context, conn Conn, roomID int64, credential string) error {
	s := &Session{
		r:      r,
		conn:   conn,
		roomID: roomID,
		log:    r.logger.With(zap.String("connection_id", conn.ID()), zap.Int64("room_id", roomID)),
	}
	return s.run(ctx, credential)
}

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	s.log.Debug("session state", zap.Stringer("state", st))
}

func (s *Session) run(ctx context.Context, credential string) (result error) {
	s.setState(StateConnecting)
	if strings.TrimSpace(credential) == "" {
		return s.reject(ErrTokenRequired)
	}

	s.setState(StateAuthorizing)
	principal, err := s.r.auth.Verify(ctx, credential)
	if errors.Is(err, auth.ErrUnauthorized) {
		return s.reject(ErrUnauthorized)
	}
	if err != nil {
		s.log.Error("verify credential", zap.Error(err))
		return s.reject(ErrServerFault)
	}
	s.principal = principal
	s.log = s.log.With(zap.Int64("user_id", principal.ID))
	s.setState(StateAuthorized)

	if _, err := s.r.join.Execute(ctx, usecase.JoinRoomInput{RoomID: s.roomID, UserID: principal.ID}); err != nil {
		if errors.Is(err, chat.ErrNotMember) || errors.Is(err, chat.ErrRoomNotFound) || errors.Is(err, usecase.ErrInvalidInput) {
			return s.reject(ErrForbidden)
		}
		s.log.Error("check room membership", zap.Error(err))
		return s.reject(ErrServerFault)
	}

	if err := s.r.registry.Join(s.roomID, principal.ID, s.conn); err != nil {
		return s.reject(ErrServerShutdown)
	}
	s.setState(StateJoined)
	s.r.metrics.opened()

	defer func() {
		if p := recover(); p != nil {
			s.log.Error("session fault", zap.Any("panic", p), zap.Stack("stack"))
			result = ErrServerFault
		}
		s.leave(result)
	}()
	return s.serve(ctx)
}

// reject closes a connection that never joined its room.
func (s *Session) reject(ce *CloseError) error {
	s.conn.Close(ce.Code, ce.Reason)
	s.setState(StateClosed)
	s.r.metrics.closed(false, ce.Reason)
	s.log.Info("session rejected", zap.String("reason", ce.Reason))
	return ce
}

func (s *Session) serve(ctx context.Context) error {
	s.broadcast(userJoinedFrame{Type: "user_joined", UserID: s.principal.ID, DisplayName: s.principal.DisplayName}, s.principal.ID)
	s.setState(StateActive)

	stop := context.AfterFunc(ctx, func() {
		s.conn.Close(ErrServerShutdown.Code, ErrServerShutdown.Reason)
	})
	defer stop()

	for {
		data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ErrServerShutdown
			}
			s.log.Debug("connection ended", zap.Error(err))
			return nil
		}
		if err := s.handleFrame(ctx, data); err != nil {
			return err
		}
	}
}

// handleFrame processes one inbound frame. A returned error ends the session.
func (s *Session) handleFrame(ctx context.Context, data []byte) error {
	ev, err := DecodeEvent(data)
	if err != nil {
		s.replyError(errMalformedEvent)
		s.r.metrics.event("malformed", "rejected", 0)
		return nil
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.r.eventTimeout)
	defer cancel()

	err = classify(s.dispatch(ctx, ev))
	var ee *EventError
	switch {
	case err == nil:
		s.r.metrics.event(ev.Kind(), "ok", time.Since(start))
		return nil
	case errors.As(err, &ee):
		s.r.metrics.event(ev.Kind(), "rejected", time.Since(start))
		s.replyError(ee)
		return nil
	default:
		s.r.metrics.event(ev.Kind(), "failed", time.Since(start))
		s.log.Error("handle event", zap.String("kind", ev.Kind()), zap.Error(err))
		return ErrServerFault
	}
}

func (s *Session) dispatch(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case MessageEvent:
		_, err := s.r.pipeline.PostMessage(ctx, s.principal, usecase.SendMessageInput{
			RoomID:    s.roomID,
			Content:   e.Content,
			MediaURL:  e.MediaURL,
			MediaType: e.MediaType,
			ParentID:  e.ParentID,
		})
		return err
	case ReactionEvent:
		_, err := s.r.pipeline.React(ctx, s.principal, usecase.AddReactionInput{
			RoomID:    s.roomID,
			MessageID: e.MessageID,
			Reaction:  e.Reaction,
		})
		return err
	case UnknownEvent:
		s.log.Debug("ignoring event", zap.String("type", e.Type))
		return nil
	default:
		return nil
	}
}

// leave runs exactly once for every joined session, whatever ended it.
func (s *Session) leave(result error) {
	s.setState(StateClosing)
	s.r.registry.Leave(s.roomID, s.principal.ID, s.conn)
	s.broadcast(userLeftFrame{Type: "user_left", UserID: s.principal.ID}, realtime.NoExclusion)

	code, reason := websocket.CloseNormalClosure, ""
	var ce *CloseError
	if errors.As(result, &ce) {
		code, reason = ce.Code, ce.Reason
	}
	s.conn.Close(code, reason)
	s.setState(StateClosed)
	s.r.metrics.closed(true, reason)
	s.log.Info("session closed", zap.Int("code", code), zap.String("reason", reason))
}

func (s *Session) replyError(ee *EventError) {
	payload, err := json.Marshal(errorFrame{Type: "error", Code: ee.Code, Error: ee.Message})
	if err != nil {
		return
	}
	if err := s.conn.Send(payload); err != nil {
		s.log.Debug("error reply not delivered", zap.Error(err))
	}
}

func (s *Session) broadcast(frame any, exclude int64) {
	payload, err := json.Marshal(frame)
	if err != nil {
		s.log.Error("encode frame", zap.Error(err))
		return
	}
	s.r.broadcaster.Broadcast(s.roomID, payload, exclude)
}
