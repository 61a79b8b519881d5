package repository

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user: not found")

type User struct {
	ID        int64
	Username  string
	Email     string
	CreatedAt time.Time
}

// UserRepository reads accounts. Soft-deleted users are invisible to every method.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindIDsByUsernames maps each known username to its id; unknown names are omitted.
	FindIDsByUsernames(ctx context.Context, usernames []string) (map[string]int64, error)
}
