package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"hr-board/internal/db"
	"hr-board/internal/domain"
)

func newTestSQLiteRepo(t *testing.T) *SQLiteMessageRepository {
	t.Helper()
	conn, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "messages.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	repo := NewSQLiteMessageRepository(conn)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteMessageRepository_Ordering(t *testing.T) {
	ctx := context.Background()
	repo := newTestSQLiteRepo(t)

	for _, content := range []string{"A", "B", "C"} {
		msg, err := repo.Create(ctx, content)
		if err != nil {
			t.Fatalf("create %s: %v", content, err)
		}
		if msg.ID == 0 || msg.CreatedAt.IsZero() {
			t.Fatalf("expected id and created_at, got %+v", msg)
		}
	}

	newest, err := repo.ListNewestFirst(ctx)
	if err != nil {
		t.Fatalf("list newest: %v", err)
	}
	if got := contents(newest); got != "CBA" {
		t.Fatalf("expected CBA, got %s", got)
	}

	oldest, err := repo.ListOldestFirst(ctx)
	if err != nil {
		t.Fatalf("list oldest: %v", err)
	}
	if got := contents(oldest); got != "ABC" {
		t.Fatalf("expected ABC, got %s", got)
	}
}

func TestSQLiteMessageRepository_DeleteAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestSQLiteRepo(t)

	for _, content := range []string{"uno", "dos"} {
		if _, err := repo.Create(ctx, content); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	n, err := repo.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	left, err := repo.ListNewestFirst(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 0 || left == nil {
		t.Fatalf("expected empty non-nil list, got %+v", left)
	}
}

func TestSQLiteMessageRepository_ClosedDBWrapsStoreError(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	_ = repo.Close()
	if _, err := repo.Create(context.Background(), "x"); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestParseSQLiteTime(t *testing.T) {
	if parseSQLiteTime("2025-06-01 10:11:12").IsZero() {
		t.Fatalf("expected sqlite default layout to parse")
	}
	if !parseSQLiteTime("garbage").IsZero() {
		t.Fatalf("expected zero time for garbage")
	}
}

func contents(msgs []domain.Message) string {
	out := ""
	for _, m := range msgs {
		out += m.Content
	}
	return out
}
