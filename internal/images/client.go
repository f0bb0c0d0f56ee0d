package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"hr-board/internal/domain"
)

var (
	ErrImageBackend      = errors.New("image backend error")
	ErrNotConfigured     = fmt.Errorf("%w: GOOGLE_CLOUD_PROJECT or GOOGLE_CLOUD_LOCATION not configured", ErrImageBackend)
	ErrAuthAcquisition   = fmt.Errorf("%w: access token acquisition failed", ErrImageBackend)
	ErrTransport         = fmt.Errorf("%w: transport failure", ErrImageBackend)
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrImageBackend)
	ErrInvalidRequest    = fmt.Errorf("%w: invalid request", ErrImageBackend)
)

// Saver persiste los bytes decodificados; FileStore lo implementa.
type Saver interface {
	Save(name string, data []byte) (string, error)
	Remove(name string) error
}

// ClientConfig agrupa los datos del proyecto de Vertex AI.
type ClientConfig struct {
	Project  string
	Location string
	Model    string
	Timeout  time.Duration
	// Endpoint reemplaza https://{location}-aiplatform.googleapis.com (tests).
	Endpoint string
}

// Client llama al endpoint :predict de Imagen y guarda el resultado via Saver.
type Client struct {
	cfg    ClientConfig
	tokens TokenSource
	store  Saver
	http   *http.Client
	now    func() time.Time
	logger *zap.Logger
}

func NewClient(cfg ClientConfig, tokens TokenSource, store Saver, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "imagen-4.0-generate-preview-06-06"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		store:  store,
		http:   &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
		logger: logger,
	}
}

// Generate pide count imagenes para prompt, las guarda y devuelve sus URLs.
// Si alguna prediccion no decodifica no se escribe nada.
func (c *Client) Generate(ctx context.Context, prompt string, count int, aspect domain.AspectRatio) ([]domain.GeneratedImage, error) {
	if c.cfg.Project == "" || c.cfg.Location == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is empty", ErrInvalidRequest)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be > 0", ErrInvalidRequest)
	}
	if _, err := domain.ParseAspectRatio(string(aspect)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if c.tokens == nil {
		return nil, fmt.Errorf("%w: no token source", ErrAuthAcquisition)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthAcquisition, err)
	}

	c.logger.Info("generating images",
		zap.String("prompt", prompt),
		zap.Int("count", count),
		zap.String("aspect_ratio", string(aspect)),
	)

	payloads, err := c.predict(ctx, token, prompt, count, aspect)
	if err != nil {
		return nil, err
	}

	batch := c.now().Unix()
	generated := make([]domain.GeneratedImage, 0, len(payloads))
	for i, data := range payloads {
		name := fmt.Sprintf("%d_%d.png", batch, i+1)
		url, err := c.store.Save(name, data)
		if err != nil {
			c.rollback(generated)
			return nil, fmt.Errorf("save image: %w", err)
		}
		generated = append(generated, domain.GeneratedImage{Filename: name, URL: url})
	}

	c.logger.Info("images saved", zap.Int("count", len(generated)))
	return generated, nil
}

func (c *Client) predict(ctx context.Context, token, prompt string, count int, aspect domain.AspectRatio) ([][]byte, error) {
	body, err := json.Marshal(predictRequest{
		Instances:  []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{SampleCount: count, AspectRatio: string(aspect)},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("image backend error response",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var pr predictResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(pr.Predictions) == 0 {
		return nil, fmt.Errorf("%w: API response did not contain predictions", ErrMalformedResponse)
	}

	payloads := make([][]byte, 0, len(pr.Predictions))
	for i, p := range pr.Predictions {
		if p.BytesBase64Encoded == "" {
			return nil, fmt.Errorf("%w: prediction %d has no image bytes", ErrMalformedResponse, i+1)
		}
		data, err := base64.StdEncoding.DecodeString(p.BytesBase64Encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: prediction %d: %v", ErrMalformedResponse, i+1, err)
		}
		payloads = append(payloads, data)
	}
	return payloads, nil
}

func (c *Client) predictURL() string {
	base := c.cfg.Endpoint
	if base == "" {
		base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", c.cfg.Location)
	}
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		strings.TrimRight(base, "/"), c.cfg.Project, c.cfg.Location, c.cfg.Model)
}

func (c *Client) rollback(saved []domain.GeneratedImage) {
	for _, img := range saved {
		if err := c.store.Remove(img.Filename); err != nil {
			c.logger.Warn("rollback image failed", zap.String("file", img.Filename), zap.Error(err))
		}
	}
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType,omitempty"`
	} `json:"predictions"`
}
