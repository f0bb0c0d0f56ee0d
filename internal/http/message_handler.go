package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hr-board/internal/domain"
	"hr-board/internal/service"
)

// MessageBoard es lo que el handler necesita del servicio de mensajes.
type MessageBoard interface {
	Submit(ctx context.Context, clientKey, content string) (domain.Message, error)
	ListNewestFirst(ctx context.Context) ([]domain.Message, error)
	ListForAgent(ctx context.Context) ([]domain.AgentMessage, error)
	Clear(ctx context.Context) (int64, error)
}

type InsightProvider interface {
	Summarize(ctx context.Context) (service.Insight, error)
}

// MessageHandler atiende el tablero de mensajes anonimos.
type MessageHandler struct {
	logger   *zap.Logger
	messages MessageBoard
	insights InsightProvider
}

func NewMessageHandler(logger *zap.Logger, messages MessageBoard, insights InsightProvider) *MessageHandler {
	return &MessageHandler{logger: logger, messages: messages, insights: insights}
}

// Submit maneja POST /api/submit.
func (h *MessageHandler) Submit(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submit request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
		return
	}

	if _, err := h.messages.Submit(c.Request.Context(), c.ClientIP(), req.Content); err != nil {
		switch {
		case errors.Is(err, service.ErrMessageInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Message content cannot be empty"})
		case errors.Is(err, service.ErrSubmitRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "too many submissions, try again later"})
		default:
			h.logger.Error("submit message failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "could not save message"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message submitted successfully"})
}

// List maneja GET /api/messages (mas nuevos primero).
func (h *MessageHandler) List(c *gin.Context) {
	msgs, err := h.messages.ListNewestFirst(c.Request.Context())
	if err != nil {
		h.logger.Error("list messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

// ListForAgent maneja GET /api/messages/json (mas viejos primero, solo contenido).
func (h *MessageHandler) ListForAgent(c *gin.Context) {
	msgs, err := h.messages.ListForAgent(c.Request.Context())
	if err != nil {
		h.logger.Error("list agent messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}
	if msgs == nil {
		msgs = []domain.AgentMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

// Clear maneja DELETE /api/messages/clear.
func (h *MessageHandler) Clear(c *gin.Context) {
	n, err := h.messages.Clear(c.Request.Context())
	if err != nil {
		h.logger.Error("clear messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "could not clear messages"})
		return
	}
	h.logger.Info("messages cleared", zap.Int64("deleted", n))
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "All messages cleared",
		"deleted_count": n,
	})
}

// Insights maneja GET /api/messages/insights.
func (h *MessageHandler) Insights(c *gin.Context) {
	if h.insights == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insights not configured"})
		return
	}
	out, err := h.insights.Summarize(c.Request.Context())
	if err != nil {
		h.logger.Warn("insights failed", zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrInsightsUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "could not generate insights"})
		return
	}
	c.JSON(http.StatusOK, out)
}
