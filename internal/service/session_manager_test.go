package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"hr-board/internal/domain"
	"hr-board/internal/repository"
)

type failingSessionStore struct {
	createErr error
	getErr    error
}

func (f failingSessionStore) Create(context.Context, string, string, string) (*domain.Session, error) {
	return nil, f.createErr
}

func (f failingSessionStore) Get(context.Context, string, string, string) (*domain.Session, error) {
	return nil, f.getErr
}

func (f failingSessionStore) Save(context.Context, *domain.Session) error {
	return errors.New("not implemented")
}

// existingSessionStore falla al crear pero encuentra la sesion al buscarla.
type existingSessionStore struct {
	*repository.MemorySessionStore
}

func (s existingSessionStore) Create(ctx context.Context, appName, userID, sessionID string) (*domain.Session, error) {
	if _, err := s.MemorySessionStore.Create(ctx, appName, userID, sessionID); err != nil {
		return nil, err
	}
	return nil, repository.ErrSessionExists
}

func TestSessionManagerEnsure_Idempotent(t *testing.T) {
	m := NewSessionManager(repository.NewMemorySessionStore(), "app", zap.NewNop())

	first, err := m.Ensure(context.Background(), false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := m.Ensure(context.Background(), false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.ID != second.ID || first.UserID != second.UserID {
		t.Fatalf("expected same identifiers, got %s/%s and %s/%s", first.ID, first.UserID, second.ID, second.UserID)
	}
	ref, ok := m.Current()
	if !ok || ref.SessionID != first.ID {
		t.Fatalf("expected current to point at %s, got %+v", first.ID, ref)
	}
}

func TestSessionManagerEnsure_ForceNewRotates(t *testing.T) {
	m := NewSessionManager(repository.NewMemorySessionStore(), "app", zap.NewNop())
	fixed := time.Unix(1700000000, 0)
	m.now = func() time.Time { return fixed }

	a, err := m.Ensure(context.Background(), true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, err := m.Ensure(context.Background(), true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.ID == b.ID || a.UserID == b.UserID {
		t.Fatalf("expected distinct identifiers even with a frozen clock, got %s/%s twice", a.ID, a.UserID)
	}
	if len(b.Events) != 0 {
		t.Fatalf("expected empty event log on rotated session")
	}
}

func TestSessionManagerEnsure_FallsBackToGet(t *testing.T) {
	store := existingSessionStore{repository.NewMemorySessionStore()}
	m := NewSessionManager(store, "app", zap.NewNop())

	session, err := m.Ensure(context.Background(), true)
	if err != nil {
		t.Fatalf("expected fallback to get, got %v", err)
	}
	if session == nil || session.ID == "" {
		t.Fatalf("expected session from get")
	}
}

func TestSessionManagerEnsure_Unavailable(t *testing.T) {
	store := failingSessionStore{createErr: errors.New("create boom"), getErr: errors.New("get boom")}
	m := NewSessionManager(store, "app", zap.NewNop())

	if _, err := m.Ensure(context.Background(), false); !errors.Is(err, ErrSessionUnavailable) {
		t.Fatalf("expected ErrSessionUnavailable, got %v", err)
	}
	if _, ok := m.Current(); ok {
		t.Fatalf("expected no current session after failure")
	}
}
