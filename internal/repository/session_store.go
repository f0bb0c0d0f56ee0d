package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"hr-board/internal/domain"
)

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
)

// SessionStore guarda las sesiones del runtime conversacional.
// Get devuelve copias: los cambios solo se ven despues de Save.
type SessionStore interface {
	Create(ctx context.Context, appName, userID, sessionID string) (*domain.Session, error)
	Get(ctx context.Context, appName, userID, sessionID string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
}

type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*domain.Session)}
}

func sessionKey(appName, userID, sessionID string) string {
	return appName + ":" + userID + ":" + sessionID
}

func (s *MemorySessionStore) Create(_ context.Context, appName, userID, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey(appName, userID, sessionID)
	if _, ok := s.sessions[key]; ok {
		return nil, ErrSessionExists
	}
	session := &domain.Session{
		ID:         sessionID,
		AppName:    appName,
		UserID:     userID,
		Events:     []domain.Event{},
		State:      map[string]any{},
		LastUpdate: time.Now().UTC(),
	}
	s.sessions[key] = session
	return session.Clone(), nil
}

func (s *MemorySessionStore) Get(_ context.Context, appName, userID, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionKey(appName, userID, sessionID)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *domain.Session) error {
	if session == nil {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey(session.AppName, session.UserID, session.ID)
	if _, ok := s.sessions[key]; !ok {
		return ErrSessionNotFound
	}
	stored := session.Clone()
	stored.LastUpdate = time.Now().UTC()
	s.sessions[key] = stored
	return nil
}
