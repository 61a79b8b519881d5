package session

import (
	"time"

	chat "go-roomchat/internal/pkg/chat/application/domain"
)

type userJoinedFrame struct {
	Type        string `json:"type"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type userLeftFrame struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
}

// MessagePayload is the wire shape of a message, shared with the REST history endpoint.
type MessagePayload struct {
	ID         int64     `json:"id"`
	RoomID     int64     `json:"room_id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	MediaURL   *string   `json:"media_url"`
	MediaType  *string   `json:"media_type"`
	Mentions   []int64   `json:"mentions"`
	ParentID   *int64    `json:"parent_id"`
	Deleted    bool      `json:"deleted"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewMessagePayload(m chat.Message) MessagePayload {
	mentions := m.Mentions
	if mentions == nil {
		mentions = []int64{}
	}
	return MessagePayload{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		MediaURL:   m.MediaURL,
		MediaType:  m.MediaType,
		Mentions:   mentions,
		ParentID:   m.ParentID,
		Deleted:    m.Deleted,
		Timestamp:  m.CreatedAt,
	}
}

type newMessageFrame struct {
	Type    string         `json:"type"`
	Message MessagePayload `json:"message"`
}

type reactionFrame struct {
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	MessageID int64  `json:"message_id"`
	UserID    int64  `json:"user_id"`
	Reaction  string `json:"reaction"`
}

type messageDeletedFrame struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}
