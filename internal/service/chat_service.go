package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"hr-board/internal/domain"
	"hr-board/internal/llm"
	"hr-board/internal/repository"
)

var ErrTurnFailed = errors.New("chat turn failed")

const (
	historyMaxEvents  = 10
	historyKeepEvents = 5

	fallbackReply        = "I received your message."
	fallbackRotatedReply = "I received your message. (Started fresh session due to size limit)"
	apologyReply         = "I'm sorry, our conversation grew too long and I couldn't recover it. Please start a new chat and try again."
)

// TurnRunner ejecuta un turno del agente sobre una sesion existente.
type TurnRunner interface {
	Run(ctx context.Context, userID, sessionID string, msg *domain.Content) ([]domain.Event, error)
}

type TurnResult struct {
	Response string
	Images   []string
}

type HistoryMessage struct {
	Content string   `json:"content"`
	IsUser  bool     `json:"isUser"`
	Images  []string `json:"images"`
}

type History struct {
	Messages []HistoryMessage `json:"messages"`
	Images   []string         `json:"images"`
}

// ChatService orquesta los turnos del asistente. Todas las operaciones que tocan
// la sesion activa se serializan con mu.
type ChatService struct {
	mu       sync.Mutex
	sessions *SessionManager
	store    repository.SessionStore
	appName  string
	runner   TurnRunner
	logger   *zap.Logger
}

func NewChatService(sessions *SessionManager, store repository.SessionStore, runner TurnRunner, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		sessions: sessions,
		store:    store,
		appName:  sessions.appName,
		runner:   runner,
		logger:   logger,
	}
}

// HandleTurn procesa un mensaje del usuario. Un desborde de contexto rota la sesion
// y reintenta una vez; si el reintento falla se responde con una disculpa sin error.
func (s *ChatService) HandleTurn(ctx context.Context, text string) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Ensure(ctx, false)
	if err != nil {
		return TurnResult{}, fmt.Errorf("%w: %w", ErrTurnFailed, err)
	}

	if session.TrimEvents(historyMaxEvents, historyKeepEvents) {
		s.logger.Info("session history trimmed", zap.String("session_id", session.ID), zap.Int("kept", len(session.Events)))
		if err := s.store.Save(ctx, session); err != nil {
			return TurnResult{}, fmt.Errorf("%w: save trimmed session: %w", ErrTurnFailed, err)
		}
	}

	result, err := s.runTurn(ctx, session, text, fallbackReply)
	if err == nil {
		return result, nil
	}
	if !llm.IsContextOverflow(err) {
		s.logger.Error("chat turn failed", zap.String("session_id", session.ID), zap.Error(err))
		return TurnResult{}, fmt.Errorf("%w: %w", ErrTurnFailed, err)
	}

	s.logger.Warn("context overflow, rotating session", zap.String("session_id", session.ID), zap.Error(err))
	fresh, err := s.sessions.Ensure(ctx, true)
	if err != nil {
		s.logger.Error("session rotation failed", zap.Error(err))
		return apology(), nil
	}
	result, err = s.runTurn(ctx, fresh, text, fallbackRotatedReply)
	if err != nil {
		s.logger.Error("retry after rotation failed", zap.String("session_id", fresh.ID), zap.Error(err))
		return apology(), nil
	}
	return result, nil
}

func apology() TurnResult {
	return TurnResult{Response: apologyReply, Images: []string{}}
}

func (s *ChatService) runTurn(ctx context.Context, session *domain.Session, text, fallback string) (TurnResult, error) {
	events, err := s.runner.Run(ctx, session.UserID, session.ID, domain.NewTextContent(domain.RoleUser, text))
	if err != nil {
		// Lo que haya generado la herramienta antes de la falla no se entrega nunca.
		s.takeStateImages(ctx, session)
		return TurnResult{}, err
	}

	response := ""
	var media []string
	for _, e := range events {
		if e.Final && response == "" {
			response = e.FirstText()
		}
		for _, fr := range e.FunctionResponses() {
			media = append(media, fr.Media...)
		}
	}
	if response == "" {
		response = fallback
	}

	stateURLs := s.takeStateImages(ctx, session)
	images := media
	if len(images) == 0 {
		images = stateURLs
	}
	if images == nil {
		images = []string{}
	}
	s.logger.Info("chat turn completed",
		zap.String("session_id", session.ID),
		zap.Int("events", len(events)),
		zap.Int("images", len(images)),
	)
	return TurnResult{Response: response, Images: images}, nil
}

// takeStateImages relee la sesion, devuelve generated_image_urls y borra la clave.
func (s *ChatService) takeStateImages(ctx context.Context, session *domain.Session) []string {
	current, err := s.store.Get(ctx, s.appName, session.UserID, session.ID)
	if err != nil {
		s.logger.Warn("reload session for images failed", zap.String("session_id", session.ID), zap.Error(err))
		return nil
	}
	raw, ok := current.State[domain.StateGeneratedImageURLs]
	if !ok {
		return nil
	}
	delete(current.State, domain.StateGeneratedImageURLs)
	if err := s.store.Save(ctx, current); err != nil {
		s.logger.Warn("clear generated images failed", zap.String("session_id", session.ID), zap.Error(err))
	}
	return domain.StringSlice(raw)
}

// NewChat fuerza la rotacion de la sesion.
func (s *ChatService) NewChat(ctx context.Context) (SessionRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Ensure(ctx, true)
	if err != nil {
		return SessionRef{}, err
	}
	return SessionRef{SessionID: session.ID, UserID: session.UserID}, nil
}

// History reconstruye la transcripcion de la sesion activa. Nunca falla: ante
// cualquier error devuelve un historial vacio.
func (s *ChatService) History(ctx context.Context) History {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := History{Messages: []HistoryMessage{}, Images: []string{}}
	session, err := s.sessions.Ensure(ctx, false)
	if err != nil {
		s.logger.Warn("load chat history failed", zap.Error(err))
		return out
	}
	for _, e := range session.Events {
		text := e.Text()
		if text == "" {
			continue
		}
		out.Messages = append(out.Messages, HistoryMessage{Content: text, IsUser: e.IsUser(), Images: []string{}})
	}
	return out
}
