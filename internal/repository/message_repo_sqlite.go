package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hr-board/internal/domain"
)

// created_at se guarda como TEXT para que el driver no intente convertirlo.
const sqliteMessagesSchema = `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);
`

var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// SQLiteMessageRepository implementa MessageRepository sobre un archivo SQLite local.
type SQLiteMessageRepository struct {
	db *sql.DB
}

func NewSQLiteMessageRepository(db *sql.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{db: db}
}

func (r *SQLiteMessageRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteMessagesSchema); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrStore, err)
	}
	return nil
}

func (r *SQLiteMessageRepository) Create(ctx context.Context, content string) (domain.Message, error) {
	const query = `INSERT INTO messages (content) VALUES (?) RETURNING id, content, created_at`

	var (
		msg     domain.Message
		created string
	)
	if err := r.db.QueryRowContext(ctx, query, content).Scan(&msg.ID, &msg.Content, &created); err != nil {
		return domain.Message{}, fmt.Errorf("%w: insert message: %v", ErrStore, err)
	}
	msg.CreatedAt = parseSQLiteTime(created)
	return msg, nil
}

func (r *SQLiteMessageRepository) ListNewestFirst(ctx context.Context) ([]domain.Message, error) {
	return r.list(ctx, `SELECT id, content, created_at FROM messages ORDER BY created_at DESC, id DESC`)
}

func (r *SQLiteMessageRepository) ListOldestFirst(ctx context.Context) ([]domain.Message, error) {
	return r.list(ctx, `SELECT id, content, created_at FROM messages ORDER BY created_at ASC, id ASC`)
}

func (r *SQLiteMessageRepository) list(ctx context.Context, query string) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", ErrStore, err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var (
			msg     domain.Message
			created string
		)
		if err := rows.Scan(&msg.ID, &msg.Content, &created); err != nil {
			return nil, fmt.Errorf("%w: scan message: %v", ErrStore, err)
		}
		msg.CreatedAt = parseSQLiteTime(created)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate messages: %v", ErrStore, err)
	}
	return messages, nil
}

func (r *SQLiteMessageRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages`)
	if err != nil {
		return 0, fmt.Errorf("%w: delete messages: %v", ErrStore, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", ErrStore, err)
	}
	return n, nil
}

// Close libera la conexion subyacente.
func (r *SQLiteMessageRepository) Close() error {
	return r.db.Close()
}

func parseSQLiteTime(raw string) time.Time {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
