package chat

import (
	"strings"
	"time"
)

// ReactionKind is one of the fixed emoji reactions.
type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionLaugh ReactionKind = "laugh"
	ReactionAngry ReactionKind = "angry"
	ReactionSad   ReactionKind = "sad"
)

// ParseReactionKind accepts the lowercase reaction names only.
func ParseReactionKind(s string) (ReactionKind, error) {
	switch k := ReactionKind(strings.TrimSpace(s)); k {
	case ReactionLike, ReactionLove, ReactionLaugh, ReactionAngry, ReactionSad:
		return k, nil
	default:
		return "", ErrInvalidReaction
	}
}

type Reaction struct {
	ID        int64
	MessageID int64
	UserID    int64
	Kind      ReactionKind
	CreatedAt time.Time
}
