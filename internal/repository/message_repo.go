package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hr-board/internal/domain"
)

// ErrStore envuelve cualquier falla de la capa de persistencia.
var ErrStore = errors.New("store error")

type MessageRepository interface {
	Create(ctx context.Context, content string) (domain.Message, error)
	// ListNewestFirst devuelve los mensajes del mas reciente al mas antiguo.
	ListNewestFirst(ctx context.Context) ([]domain.Message, error)
	// ListOldestFirst devuelve los mensajes en orden de llegada.
	ListOldestFirst(ctx context.Context) ([]domain.Message, error)
	DeleteAll(ctx context.Context) (int64, error)
}

const pgMessagesSchema = `
	CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PgQuerier es el subconjunto de *pgxpool.Pool que usa el repositorio.
type PgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgMessageRepository struct {
	pool PgQuerier
}

func NewPgMessageRepository(pool PgQuerier) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

// EnsureSchema crea la tabla messages si no existe.
func (r *PgMessageRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, pgMessagesSchema); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrStore, err)
	}
	return nil
}

func (r *PgMessageRepository) Create(ctx context.Context, content string) (domain.Message, error) {
	const query = `
		INSERT INTO messages (content)
		VALUES ($1)
		RETURNING id, content, created_at
	`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, content).Scan(&msg.ID, &msg.Content, &msg.CreatedAt)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: insert message: %v", ErrStore, err)
	}
	return msg, nil
}

func (r *PgMessageRepository) ListNewestFirst(ctx context.Context) ([]domain.Message, error) {
	return r.list(ctx, `
		SELECT id, content, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
	`)
}

func (r *PgMessageRepository) ListOldestFirst(ctx context.Context) ([]domain.Message, error) {
	return r.list(ctx, `
		SELECT id, content, created_at
		FROM messages
		ORDER BY created_at ASC, id ASC
	`)
}

func (r *PgMessageRepository) list(ctx context.Context, query string) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", ErrStore, err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan message: %v", ErrStore, err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate messages: %v", ErrStore, err)
	}
	return messages, nil
}

func (r *PgMessageRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM messages`)
	if err != nil {
		return 0, fmt.Errorf("%w: delete messages: %v", ErrStore, err)
	}
	return tag.RowsAffected(), nil
}
