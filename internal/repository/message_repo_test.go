package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hr-board/internal/domain"
)

// fakePgRows entrega filas ya cargadas en memoria.
type fakePgRows struct {
	rows    []domain.Message
	idx     int
	scanErr error
}

func (r *fakePgRows) Close()                                       {}
func (r *fakePgRows) Err() error                                   { return nil }
func (r *fakePgRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakePgRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakePgRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakePgRows) RawValues() [][]byte                          { return nil }
func (r *fakePgRows) Conn() *pgx.Conn                              { return nil }

func (r *fakePgRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakePgRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	msg := r.rows[r.idx-1]
	*dest[0].(*int64) = msg.ID
	*dest[1].(*string) = msg.Content
	*dest[2].(*time.Time) = msg.CreatedAt
	return nil
}

type fakePgRow struct {
	msg domain.Message
	err error
}

func (r fakePgRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.msg.ID
	*dest[1].(*string) = r.msg.Content
	*dest[2].(*time.Time) = r.msg.CreatedAt
	return nil
}

type fakePgDB struct {
	queries  []string
	args     [][]any
	rows     []domain.Message
	row      fakePgRow
	execTag  pgconn.CommandTag
	queryErr error
	execErr  error
}

func (f *fakePgDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	return f.execTag, f.execErr
}

func (f *fakePgDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakePgRows{rows: f.rows}, nil
}

func (f *fakePgDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	return f.row
}

func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func TestPgMessageRepository_OrderingTieBreak(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakePgDB{rows: []domain.Message{
		{ID: 3, Content: "C", CreatedAt: ts},
		{ID: 2, Content: "B", CreatedAt: ts},
	}}
	repo := NewPgMessageRepository(fake)
	ctx := context.Background()

	newest, err := repo.ListNewestFirst(ctx)
	if err != nil {
		t.Fatalf("list newest: %v", err)
	}
	if len(newest) != 2 || newest[0].ID != 3 || newest[1].Content != "B" {
		t.Fatalf("unexpected rows %+v", newest)
	}
	if q := compactSQL(fake.queries[0]); !strings.HasSuffix(q, "ORDER BY created_at DESC, id DESC") {
		t.Fatalf("expected newest-first ordering with id tie-break, got %q", q)
	}

	if _, err := repo.ListOldestFirst(ctx); err != nil {
		t.Fatalf("list oldest: %v", err)
	}
	if q := compactSQL(fake.queries[1]); !strings.HasSuffix(q, "ORDER BY created_at ASC, id ASC") {
		t.Fatalf("expected oldest-first ordering with id tie-break, got %q", q)
	}
}

func TestPgMessageRepository_EmptyListIsNonNil(t *testing.T) {
	repo := NewPgMessageRepository(&fakePgDB{})
	got, err := repo.ListNewestFirst(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestPgMessageRepository_CreateAndClear(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakePgDB{
		row:     fakePgRow{msg: domain.Message{ID: 7, Content: "hola", CreatedAt: ts}},
		execTag: pgconn.NewCommandTag("DELETE 3"),
	}
	repo := NewPgMessageRepository(fake)
	ctx := context.Background()

	msg, err := repo.Create(ctx, "hola")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if msg.ID != 7 || msg.Content != "hola" || !msg.CreatedAt.Equal(ts) {
		t.Fatalf("unexpected message %+v", msg)
	}
	if len(fake.args[0]) != 1 || fake.args[0][0] != "hola" {
		t.Fatalf("expected content bound as parameter, got %v", fake.args[0])
	}

	n, err := repo.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows affected, got %d", n)
	}
}

func TestPgMessageRepository_WrapsStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	repo := NewPgMessageRepository(&fakePgDB{queryErr: boom, execErr: boom, row: fakePgRow{err: boom}})
	ctx := context.Background()

	if _, err := repo.ListOldestFirst(ctx); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore from list, got %v", err)
	}
	if _, err := repo.Create(ctx, "x"); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore from create, got %v", err)
	}
	if _, err := repo.DeleteAll(ctx); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore from delete, got %v", err)
	}
	if err := repo.EnsureSchema(ctx); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore from schema, got %v", err)
	}
}
