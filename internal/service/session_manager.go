package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"hr-board/internal/domain"
	"hr-board/internal/repository"
)

var ErrSessionUnavailable = errors.New("session unavailable")

// SessionRef identifica la sesion activa.
type SessionRef struct {
	SessionID string
	UserID    string
}

// SessionManager mantiene la unica conversacion activa del proceso.
type SessionManager struct {
	mu        sync.Mutex
	store     repository.SessionStore
	appName   string
	current   *SessionRef
	lastStamp int64
	now       func() time.Time
	logger    *zap.Logger
}

func NewSessionManager(store repository.SessionStore, appName string, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		store:   store,
		appName: appName,
		now:     time.Now,
		logger:  logger,
	}
}

// Ensure devuelve la sesion activa o crea una nueva si no hay ninguna o forceNew es true.
func (m *SessionManager) Ensure(ctx context.Context, forceNew bool) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !forceNew && m.current != nil {
		session, err := m.store.Get(ctx, m.appName, m.current.UserID, m.current.SessionID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, repository.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
		}
		// El store la expiro; se recrea con los mismos identificadores.
		m.logger.Info("active session expired, recreating", zap.String("session_id", m.current.SessionID))
		return m.open(ctx, *m.current)
	}

	stamp := m.now().UnixNano()
	if stamp <= m.lastStamp {
		stamp = m.lastStamp + 1
	}
	m.lastStamp = stamp
	ref := SessionRef{
		SessionID: fmt.Sprintf("hr_session_%d", stamp),
		UserID:    fmt.Sprintf("hr_user_%d", stamp),
	}
	return m.open(ctx, ref)
}

func (m *SessionManager) open(ctx context.Context, ref SessionRef) (*domain.Session, error) {
	session, createErr := m.store.Create(ctx, m.appName, ref.UserID, ref.SessionID)
	if createErr != nil {
		var getErr error
		session, getErr = m.store.Get(ctx, m.appName, ref.UserID, ref.SessionID)
		if getErr != nil {
			m.logger.Error("session create and fetch failed",
				zap.String("session_id", ref.SessionID),
				zap.NamedError("create_error", createErr),
				zap.NamedError("get_error", getErr),
			)
			return nil, fmt.Errorf("%w: create: %v; get: %v", ErrSessionUnavailable, createErr, getErr)
		}
	}
	m.current = &ref
	m.logger.Info("chat session active", zap.String("session_id", ref.SessionID), zap.String("user_id", ref.UserID))
	return session, nil
}

// Current devuelve los identificadores activos, si existen.
func (m *SessionManager) Current() (SessionRef, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return SessionRef{}, false
	}
	return *m.current, true
}
