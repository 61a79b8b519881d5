package session

import (
	"encoding/json"
	"strings"
)

// Event is an inbound client frame. The concrete types are MessageEvent,
// ReactionEvent and UnknownEvent.
type Event interface {
	Kind() string
}

type MessageEvent struct {
	Content   string
	MediaURL  *string
	MediaType *string
	ParentID  *int64
}

type ReactionEvent struct {
	MessageID int64
	Reaction  string
}

// UnknownEvent is any frame whose type is not recognized; it is ignored.
type UnknownEvent struct {
	Type string
}

func (MessageEvent) Kind() string  { return "message" }
func (ReactionEvent) Kind() string { return "reaction" }
func (UnknownEvent) Kind() string  { return "unknown" }

type inboundFrame struct {
	Type      string  `json:"type"`
	Content   string  `json:"content"`
	MediaURL  *string `json:"media_url"`
	MediaType *string `json:"media_type"`
	ParentID  *int64  `json:"parent_id"`
	MessageID int64   `json:"message_id"`
	Reaction  string  `json:"reaction"`
}

// DecodeEvent parses one inbound frame. Only malformed JSON is an error.
func DecodeEvent(data []byte) (Event, error) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(f.Type)) {
	case "message":
		return MessageEvent{Content: f.Content, MediaURL: f.MediaURL, MediaType: f.MediaType, ParentID: f.ParentID}, nil
	case "reaction":
		return ReactionEvent{MessageID: f.MessageID, Reaction: f.Reaction}, nil
	default:
		return UnknownEvent{Type: f.Type}, nil
	}
}
