package session

import (
	"errors"
	"fmt"
	"strings"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/application/usecase"

	"github.com/gorilla/websocket"
)

// EventError rejects one inbound event. It is reported to the originating
// connection only and the session keeps running.
type EventError struct {
	Code    string
	Message string
}

func (e *EventError) Error() string { return e.Code + ": " + e.Message }

// CloseError ends a session with a websocket close code and reason.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string { return fmt.Sprintf("session closed: %d %s", e.Code, e.Reason) }

var (
	ErrTokenRequired  = &CloseError{Code: websocket.ClosePolicyViolation, Reason: "token required"}
	ErrUnauthorized   = &CloseError{Code: websocket.ClosePolicyViolation, Reason: "unauthorized"}
	ErrForbidden      = &CloseError{Code: websocket.ClosePolicyViolation, Reason: "forbidden"}
	ErrServerFault    = &CloseError{Code: websocket.CloseInternalServerErr, Reason: "server error"}
	ErrServerShutdown = &CloseError{Code: websocket.CloseGoingAway, Reason: "server shutdown"}
)

var errMalformedEvent = &EventError{Code: "bad_request", Message: "malformed event"}

// classify maps a pipeline error to an EventError when the client can fix it,
// and to ErrServerFault otherwise.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *EventError
	if errors.As(err, &ee) {
		return ee
	}
	switch {
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrContentTooLong),
		errors.Is(err, chat.ErrInvalidMedia),
		errors.Is(err, chat.ErrParentMismatch):
		return &EventError{Code: "invalid_message", Message: describe(err)}
	case errors.Is(err, chat.ErrInvalidReaction):
		return &EventError{Code: "invalid_reaction", Message: "Invalid reaction type"}
	case errors.Is(err, chat.ErrMessageNotFound):
		return &EventError{Code: "message_not_found", Message: "Message not found"}
	case errors.Is(err, chat.ErrMessageDeleted):
		return &EventError{Code: "message_deleted", Message: "Message was deleted"}
	case errors.Is(err, usecase.ErrInvalidInput):
		return &EventError{Code: "bad_request", Message: describe(err)}
	default:
		return fmt.Errorf("%w: %v", ErrServerFault, err)
	}
}

func describe(err error) string {
	return strings.TrimPrefix(err.Error(), "chat: ")
}
