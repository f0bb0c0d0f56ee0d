package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LLMClient define la interfaz para generar respuestas de un solo prompt.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatClient completa una conversacion con herramientas declaradas.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (ChatMessage, error)
}

var (
	ErrEmptyResponse = errors.New("llm empty response")
	ErrMissingAPIKey = errors.New("llm api key not configured")
)

// APIError es una respuesta >= 400 del proveedor.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm http error: status=%d", e.Status)
	}
	return fmt.Sprintf("llm http error: status=%d: %s", e.Status, e.Message)
}

// HTTPClient implementa LLMClient y ChatClient contra una API compatible con OpenAI.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un cliente HTTP apuntando a la API de chat completions.
func NewHTTPClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *HTTPClient) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := c.Complete(ctx, ChatRequest{
		Messages: []ChatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyResponse
	}
	return msg.Content, nil
}

// Complete envia la conversacion y devuelve el mensaje del asistente.
// Un 4xx cuyo texto indica exceso de tokens se devuelve como ErrContextOverflow.
func (c *HTTPClient) Complete(ctx context.Context, req ChatRequest) (ChatMessage, error) {
	if c.apiKey == "" {
		return ChatMessage{}, ErrMissingAPIKey
	}
	if req.Model == "" {
		req.Model = c.model
	}

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return ChatMessage{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := extractErrorMessage(respBody)
		c.logger.Warn("llm error response",
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		if IsContextOverflowMessage(msg) {
			return ChatMessage{}, fmt.Errorf("%w: %s", ErrContextOverflow, msg)
		}
		return ChatMessage{}, &APIError{Status: resp.StatusCode, Message: msg}
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return ChatMessage{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if cr.Error != nil {
		if IsContextOverflowMessage(cr.Error.Message) {
			return ChatMessage{}, fmt.Errorf("%w: %s", ErrContextOverflow, cr.Error.Message)
		}
		return ChatMessage{}, fmt.Errorf("llm api error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return ChatMessage{}, ErrEmptyResponse
	}

	msg := cr.Choices[0].Message
	if msg.Content == "" && len(msg.ToolCalls) == 0 {
		return ChatMessage{}, ErrEmptyResponse
	}
	return msg, nil
}

// extractErrorMessage acepta {"error":{...}} y el formato en lista [{"error":{...}}].
func extractErrorMessage(body []byte) string {
	var single errorEnvelope
	if err := json.Unmarshal(body, &single); err == nil && single.Error != nil {
		return single.Error.Message
	}
	var list []errorEnvelope
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].Error != nil {
		return list[0].Error.Message
	}
	return strings.TrimSpace(string(body))
}

type chatResponse struct {
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason,omitempty"`
	} `json:"choices"`
	Error *apiErrorBody `json:"error,omitempty"`
}

type errorEnvelope struct {
	Error *apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Message string `json:"message"`
}
