package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hr-board/internal/domain"
	"hr-board/internal/llm"
)

var ErrInsightsUnavailable = errors.New("insights unavailable")

const noMessagesSummary = "No messages have been submitted yet."

// Insight es el resumen que el analista produce sobre los mensajes enviados.
type Insight struct {
	Summary     string   `json:"summary"`
	Themes      []string `json:"themes"`
	Suggestions []string `json:"suggestions"`
}

type messageLister interface {
	ListOldestFirst(ctx context.Context) ([]domain.Message, error)
}

// InsightService usa el LLM para detectar quejas recurrentes y sugerir acciones.
type InsightService struct {
	llmClient llm.LLMClient
	messages  messageLister
	logger    *zap.Logger
}

func NewInsightService(llmClient llm.LLMClient, messages messageLister, logger *zap.Logger) *InsightService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightService{llmClient: llmClient, messages: messages, logger: logger}
}

func (s *InsightService) Summarize(ctx context.Context) (Insight, error) {
	if s == nil || s.llmClient == nil || s.messages == nil {
		return Insight{}, ErrInsightsUnavailable
	}
	msgs, err := s.messages.ListOldestFirst(ctx)
	if err != nil {
		return Insight{}, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return Insight{Summary: noMessagesSummary, Themes: []string{}, Suggestions: []string{}}, nil
	}

	raw, err := s.llmClient.Generate(ctx, buildInsightPrompt(msgs))
	if err != nil {
		return Insight{}, fmt.Errorf("%w: llm generate: %v", ErrInsightsUnavailable, err)
	}

	var out Insight
	if err := decodeModelJSON(raw, &out); err != nil {
		s.logger.Warn("insight response not parseable", zap.Error(err), zap.Int("raw_len", len(raw)))
		return Insight{}, fmt.Errorf("%w: %v", ErrInsightsUnavailable, err)
	}
	out.Summary = strings.TrimSpace(out.Summary)
	if out.Themes == nil {
		out.Themes = []string{}
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	s.logger.Info("insights generated", zap.Int("messages", len(msgs)), zap.Int("themes", len(out.Themes)))
	return out, nil
}

func buildInsightPrompt(msgs []domain.Message) string {
	var sb strings.Builder
	sb.WriteString(`You are an HR analyst reading anonymous messages submitted by workers.
Summarize the overall mood, list recurring patterns or complaints and suggest concrete actions.
Return ONLY a JSON object with this shape:
{"summary": "...", "themes": ["..."], "suggestions": ["..."]}

Messages (oldest first):
`)
	for _, m := range msgs {
		sb.WriteString("- ")
		sb.WriteString(strings.ReplaceAll(strings.TrimSpace(m.Content), "\n", " "))
		sb.WriteString("\n")
	}
	return sb.String()
}
