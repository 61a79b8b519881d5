package usecase

import (
	"fmt"

	chat "go-roomchat/internal/pkg/chat/application/domain"
)

// ContentCodec seals message content before it reaches storage.
type ContentCodec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(blob string) (string, error)
}

// open turns a stored envelope back into a plaintext message. Tombstones carry
// no content or media.
func open(codec ContentCodec, e chat.Envelope) (chat.Message, error) {
	m := chat.Message{
		ID:         e.ID,
		RoomID:     e.RoomID,
		SenderID:   e.SenderID,
		SenderName: e.SenderName,
		Mentions:   e.Mentions,
		ParentID:   e.ParentID,
		Deleted:    e.Deleted,
		CreatedAt:  e.CreatedAt,
	}
	if e.Deleted {
		return m, nil
	}
	content, err := codec.Decrypt(e.Ciphertext)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: message %d: %v", ErrEncryption, e.ID, err)
	}
	m.Content = content
	m.MediaURL = e.MediaURL
	m.MediaType = e.MediaType
	return m, nil
}
