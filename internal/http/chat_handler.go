package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hr-board/internal/images"
	"hr-board/internal/service"
)

// ChatOrchestrator es el asistente conversacional.
type ChatOrchestrator interface {
	HandleTurn(ctx context.Context, text string) (service.TurnResult, error)
	NewChat(ctx context.Context) (service.SessionRef, error)
	History(ctx context.Context) service.History
}

type ImageSource interface {
	Open(urlOrName string) ([]byte, error)
}

// ChatHandler expone el asistente y sirve las imagenes generadas.
type ChatHandler struct {
	logger *zap.Logger
	chat   ChatOrchestrator
	images ImageSource
}

func NewChatHandler(logger *zap.Logger, chat ChatOrchestrator, images ImageSource) *ChatHandler {
	return &ChatHandler{logger: logger, chat: chat, images: images}
}

// PostMessage maneja POST /api/chat.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	res, err := h.chat.HandleTurn(c.Request.Context(), req.Message)
	if err != nil {
		h.logger.Error("chat turn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing message"})
		return
	}
	urls := res.Images
	if urls == nil {
		urls = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"response": res.Response, "images": urls})
}

// NewChat maneja POST /api/chat/new.
func (h *ChatHandler) NewChat(c *gin.Context) {
	ref, err := h.chat.NewChat(c.Request.Context())
	if err != nil {
		h.logger.Error("new chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "could not start a new chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "New chat session started",
		"session_id": ref.SessionID,
		"user_id":    ref.UserID,
	})
}

// History maneja GET /api/chat/history; siempre responde 200.
func (h *ChatHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, h.chat.History(c.Request.Context()))
}

// Image maneja GET /images/:name.
func (h *ChatHandler) Image(c *gin.Context) {
	data, err := h.images.Open(c.Param("name"))
	if err != nil {
		if !errors.Is(err, images.ErrImageNotFound) {
			h.logger.Warn("read image failed", zap.String("name", c.Param("name")), zap.Error(err))
		}
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}
