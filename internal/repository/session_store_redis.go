package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hr-board/internal/domain"
)

type redisSessionClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSessionStore serializa cada sesion como JSON bajo chat:session:<app>:<user>:<id>.
type RedisSessionStore struct {
	client redisSessionClient
	ttl    time.Duration
	prefix string
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
		prefix: "chat:session:",
	}
}

func (s *RedisSessionStore) key(appName, userID, sessionID string) string {
	return s.prefix + sessionKey(appName, userID, sessionID)
}

func (s *RedisSessionStore) Create(ctx context.Context, appName, userID, sessionID string) (*domain.Session, error) {
	session := &domain.Session{
		ID:         sessionID,
		AppName:    appName,
		UserID:     userID,
		Events:     []domain.Event{},
		State:      map[string]any{},
		LastUpdate: time.Now().UTC(),
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(appName, userID, sessionID), payload, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrStore, err)
	}
	if !ok {
		return nil, ErrSessionExists
	}
	return session, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, appName, userID, sessionID string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(appName, userID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get session: %v", ErrStore, err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", ErrStore, err)
	}
	if session.State == nil {
		session.State = map[string]any{}
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return ErrSessionNotFound
	}
	key := s.key(session.AppName, session.UserID, session.ID)
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: check session: %v", ErrStore, err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	stored := session.Clone()
	stored.LastUpdate = time.Now().UTC()
	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: save session: %v", ErrStore, err)
	}
	return nil
}
