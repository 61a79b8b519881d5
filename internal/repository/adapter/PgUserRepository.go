package adapter

import (
	"context"
	"errors"

	repository "go-roomchat/internal/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) FindByID(ctx context.Context, id int64) (*repository.User, error) {
	return r.findOne(ctx, `
		SELECT id, username, email, created_at
		FROM chat.users
		WHERE id = $1 AND NOT is_deleted
	`, id)
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*repository.User, error) {
	return r.findOne(ctx, `
		SELECT id, username, email, created_at
		FROM chat.users
		WHERE username = $1 AND NOT is_deleted
	`, username)
}

func (r *PgUserRepository) FindIDsByUsernames(ctx context.Context, usernames []string) (map[string]int64, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	out := make(map[string]int64, len(usernames))
	if len(usernames) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT username, id
		FROM chat.users
		WHERE username = ANY($1) AND NOT is_deleted
	`, usernames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, rows.Err()
}

func (r *PgUserRepository) findOne(ctx context.Context, query string, arg any) (*repository.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	var u repository.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
