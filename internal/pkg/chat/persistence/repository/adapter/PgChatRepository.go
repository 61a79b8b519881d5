package adapter

import (
	"context"
	"errors"

	chat "go-roomchat/internal/pkg/chat/application/domain"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

var errNilPool = errors.New("PgChatRepository: nil pool")

var (
	_ repository.RoomRepository    = (*PgChatRepository)(nil)
	_ repository.MessageRepository = (*PgChatRepository)(nil)
	_ repository.PushRepository    = (*PgChatRepository)(nil)
)

// PgChatRepository implements the room, message and push repositories on one pool.
type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) FindRoom(ctx context.Context, roomID int64) (*chat.Room, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	var (
		room chat.Room
		kind string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, kind, owner_id, created_at
		FROM chat.room
		WHERE id = $1
	`, roomID).Scan(&room.ID, &room.Name, &kind, &room.OwnerID, &room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	room.Kind = chat.RoomKind(kind)
	return &room, nil
}

func (r *PgChatRepository) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errNilPool
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat.room_member WHERE room_id = $1 AND user_id = $2
		)
	`, roomID, userID).Scan(&ok)
	return ok, err
}

func (r *PgChatRepository) ListMemberIDs(ctx context.Context, roomID int64) ([]int64, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT m.user_id
		FROM chat.room_member m
		JOIN chat.users u ON u.id = m.user_id
		WHERE m.room_id = $1 AND NOT u.is_deleted
		ORDER BY m.user_id
	`, roomID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *PgChatRepository) FindOrCreatePrivateRoom(ctx context.Context, a, b int64) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	if a > b {
		a, b = b, a
	}
	key := chat.PrivatePairKey(a, b)

	var roomID int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO chat.room (name, kind, owner_id, private_key)
			VALUES ($1, 'private', $2, $3)
			ON CONFLICT (private_key) DO NOTHING
			RETURNING id
		`, chat.PrivateRoomName(a, b), a, key).Scan(&roomID)
		if errors.Is(err, pgx.ErrNoRows) {
			return tx.QueryRow(ctx, `SELECT id FROM chat.room WHERE private_key = $1`, key).Scan(&roomID)
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO chat.room_member (room_id, user_id)
			VALUES ($1, $2), ($1, $3)
			ON CONFLICT DO NOTHING
		`, roomID, a, b)
		return err
	})
	return roomID, err
}

func (r *PgChatRepository) CreateGroupRoom(ctx context.Context, name string, ownerID int64) (*chat.Room, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	room := chat.Room{Name: name, Kind: chat.RoomKindGroup, OwnerID: ownerID}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO chat.room (name, kind, owner_id)
			VALUES ($1, 'group', $2)
			RETURNING id, created_at
		`, name, ownerID).Scan(&room.ID, &room.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO chat.room_member (room_id, user_id) VALUES ($1, $2)`, room.ID, ownerID)
		return err
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, chat.ErrRoomNameTaken
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *PgChatRepository) AddMember(ctx context.Context, roomID, userID int64) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.room_member (room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, roomID, userID)
	return err
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Envelope) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (
			room_id, sender_id, content, media_url, media_type, mentions, parent_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, m.RoomID, m.SenderID, m.Ciphertext, m.MediaURL, m.MediaType, m.Mentions, m.ParentID, m.CreatedAt).Scan(&id)
	return id, err
}

const envelopeColumns = `
	m.id, m.room_id, m.sender_id, u.username, m.content, m.media_url, m.media_type,
	m.mentions, m.parent_id, m.is_deleted, m.created_at`

func scanEnvelope(row pgx.Row) (chat.Envelope, error) {
	var e chat.Envelope
	err := row.Scan(&e.ID, &e.RoomID, &e.SenderID, &e.SenderName, &e.Ciphertext, &e.MediaURL, &e.MediaType,
		&e.Mentions, &e.ParentID, &e.Deleted, &e.CreatedAt)
	return e, err
}

func (r *PgChatRepository) FindMessage(ctx context.Context, messageID int64) (*chat.Envelope, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	e, err := scanEnvelope(r.pool.QueryRow(ctx, `
		SELECT `+envelopeColumns+`
		FROM chat.message m
		JOIN chat.users u ON u.id = m.sender_id
		WHERE m.id = $1
	`, messageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PgChatRepository) GetMessagesByRoom(ctx context.Context, roomID int64, limit int, offset int) ([]chat.Envelope, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+envelopeColumns+`
		FROM chat.message m
		JOIN chat.users u ON u.id = m.sender_id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2 OFFSET $3
	`, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Envelope
	for rows.Next() {
		e, err := scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgChatRepository) MarkDeleted(ctx context.Context, messageID int64) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	ct, err := r.pool.Exec(ctx, `UPDATE chat.message SET is_deleted = TRUE, created_at = now() WHERE id = $1`, messageID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrMessageNotFound
	}
	return nil
}

func (r *PgChatRepository) SaveReaction(ctx context.Context, rc chat.Reaction) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.reaction (message_id, user_id, kind, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, rc.MessageID, rc.UserID, string(rc.Kind), rc.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) AddDestination(ctx context.Context, userID int64, endpoint string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errNilPool
	}
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO chat.push_destination (user_id, endpoint)
		VALUES ($1, $2)
		ON CONFLICT (user_id, endpoint) DO NOTHING
	`, userID, endpoint)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *PgChatRepository) ListDestinations(ctx context.Context, userIDs []int64) ([]chat.PushDestination, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, endpoint
		FROM chat.push_destination
		WHERE user_id = ANY($1)
		ORDER BY user_id, id
	`, userIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (chat.PushDestination, error) {
		var d chat.PushDestination
		err := row.Scan(&d.ID, &d.UserID, &d.Endpoint)
		return d, err
	})
}
