package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS chat`,
	`CREATE TABLE IF NOT EXISTS chat.users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL DEFAULT '',
		is_deleted    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat.room (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		kind        TEXT NOT NULL CHECK (kind IN ('private', 'group')),
		owner_id    BIGINT NOT NULL REFERENCES chat.users(id),
		private_key TEXT UNIQUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat.room_member (
		room_id   BIGINT NOT NULL REFERENCES chat.room(id) ON DELETE CASCADE,
		user_id   BIGINT NOT NULL REFERENCES chat.users(id),
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (room_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS chat.message (
		id         BIGSERIAL PRIMARY KEY,
		room_id    BIGINT NOT NULL REFERENCES chat.room(id),
		sender_id  BIGINT NOT NULL REFERENCES chat.users(id),
		content    TEXT NOT NULL,
		media_url  TEXT,
		media_type TEXT,
		mentions   BIGINT[],
		parent_id  BIGINT REFERENCES chat.message(id),
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS message_room_created_idx ON chat.message (room_id, created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS chat.reaction (
		id         BIGSERIAL PRIMARY KEY,
		message_id BIGINT NOT NULL REFERENCES chat.message(id),
		user_id    BIGINT NOT NULL REFERENCES chat.users(id),
		kind       TEXT NOT NULL CHECK (kind IN ('like', 'love', 'laugh', 'angry', 'sad')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat.push_destination (
		id       BIGSERIAL PRIMARY KEY,
		user_id  BIGINT NOT NULL REFERENCES chat.users(id),
		endpoint TEXT NOT NULL,
		UNIQUE (user_id, endpoint)
	)`,
}

// Migrate creates the chat schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migration %d: %w", i, err)
		}
	}
	return nil
}
