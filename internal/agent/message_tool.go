package agent

import (
	"context"

	"go.uber.org/zap"

	"hr-board/internal/domain"
	"hr-board/internal/llm"
)

const MessagesToolName = "list_submitted_messages"

// MessageLister entrega los mensajes en orden de llegada.
type MessageLister interface {
	ListOldestFirst(ctx context.Context) ([]domain.Message, error)
}

// MessagesTool expone al modelo los mensajes enviados por los trabajadores.
type MessagesTool struct {
	messages MessageLister
	logger   *zap.Logger
}

func NewMessagesTool(messages MessageLister, logger *zap.Logger) *MessagesTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessagesTool{messages: messages, logger: logger}
}

func (t *MessagesTool) Declaration() llm.Tool {
	return llm.NewFunctionTool(
		MessagesToolName,
		"Retrieves the full list of worker-submitted messages, oldest first.",
		map[string]any{"type": "object", "properties": map[string]any{}},
	)
}

func (t *MessagesTool) Invoke(ctx context.Context, _ *ToolContext, _ map[string]any) ToolResult {
	msgs, err := t.messages.ListOldestFirst(ctx)
	if err != nil {
		t.logger.Warn("list messages for agent failed", zap.Error(err))
		return ToolResult{Response: map[string]any{
			"messages": []domain.AgentMessage{{Content: "Error retrieving messages: " + err.Error()}},
		}}
	}
	if len(msgs) == 0 {
		return ToolResult{Response: map[string]any{
			"messages": []domain.AgentMessage{{Content: "No messages have been submitted yet."}},
		}}
	}

	out := make([]domain.AgentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.AgentMessage{Content: m.Content})
	}
	t.logger.Info("loaded messages for agent", zap.Int("count", len(out)))
	return ToolResult{Response: map[string]any{"messages": out}}
}
