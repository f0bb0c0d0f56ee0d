package service

import (
	"context"
	"errors"
	"strings"

	"hr-board/internal/domain"
	"hr-board/internal/repository"
)

// MessageService encapsula la lógica del tablero de mensajes anónimos.
type MessageService struct {
	repo    repository.MessageRepository
	limiter SubmitRateLimiter
}

var (
	ErrMessageServiceNotConfigured = errors.New("message service not configured")
	ErrMessageInvalidInput         = errors.New("message invalid input")
	ErrSubmitRateLimited           = errors.New("too many submissions")
)

// NewMessageService acepta un limiter nil: en ese caso no se limita el envio.
func NewMessageService(repo repository.MessageRepository, limiter SubmitRateLimiter) *MessageService {
	return &MessageService{repo: repo, limiter: limiter}
}

// Submit guarda el contenido recortado. clientKey identifica al emisor para el rate limit.
func (s *MessageService) Submit(ctx context.Context, clientKey, content string) (domain.Message, error) {
	if s == nil || s.repo == nil {
		return domain.Message{}, ErrMessageServiceNotConfigured
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, ErrMessageInvalidInput
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, clientKey) {
		return domain.Message{}, ErrSubmitRateLimited
	}
	return s.repo.Create(ctx, content)
}

func (s *MessageService) ListNewestFirst(ctx context.Context) ([]domain.Message, error) {
	if s == nil || s.repo == nil {
		return nil, ErrMessageServiceNotConfigured
	}
	return s.repo.ListNewestFirst(ctx)
}

// ListOldestFirst es el orden que consume el agente.
func (s *MessageService) ListOldestFirst(ctx context.Context) ([]domain.Message, error) {
	if s == nil || s.repo == nil {
		return nil, ErrMessageServiceNotConfigured
	}
	return s.repo.ListOldestFirst(ctx)
}

func (s *MessageService) ListForAgent(ctx context.Context) ([]domain.AgentMessage, error) {
	msgs, err := s.ListOldestFirst(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AgentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.AgentMessage{Content: m.Content})
	}
	return out, nil
}

func (s *MessageService) Clear(ctx context.Context) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, ErrMessageServiceNotConfigured
	}
	return s.repo.DeleteAll(ctx)
}
