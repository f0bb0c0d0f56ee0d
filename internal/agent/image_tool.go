package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hr-board/internal/domain"
	"hr-board/internal/llm"
)

const ImageToolName = "create_image"

// ImageGenerator es el cliente del backend de imagenes.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, count int, aspect domain.AspectRatio) ([]domain.GeneratedImage, error)
}

// ImageToolConfig fija cuantas imagenes se piden por llamada y con que aspecto.
type ImageToolConfig struct {
	Count       int
	AspectRatio domain.AspectRatio
}

// ImageTool genera posters. Las URLs van al estado de la sesion y al canal Media,
// nunca al texto que ve el modelo.
type ImageTool struct {
	generator ImageGenerator
	cfg       ImageToolConfig
	logger    *zap.Logger
}

func NewImageTool(generator ImageGenerator, cfg ImageToolConfig, logger *zap.Logger) *ImageTool {
	if cfg.Count <= 0 {
		cfg.Count = 2
	}
	if cfg.AspectRatio == "" {
		cfg.AspectRatio = domain.AspectPortrait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageTool{generator: generator, cfg: cfg, logger: logger}
}

func (t *ImageTool) Declaration() llm.Tool {
	return llm.NewFunctionTool(
		ImageToolName,
		fmt.Sprintf("Generates %d %s poster images from a text prompt and saves them. Call it at most once per user request.", t.cfg.Count, t.cfg.AspectRatio),
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prompt": map[string]any{
					"type":        "string",
					"description": "Detailed description of the poster to generate.",
				},
			},
			"required": []string{"prompt"},
		},
	)
}

func (t *ImageTool) Invoke(ctx context.Context, tc *ToolContext, args map[string]any) ToolResult {
	prompt := stringArg(args, "prompt")
	if prompt == "" {
		return errorResult("prompt is required")
	}

	imgs, err := t.generator.Generate(ctx, prompt, t.cfg.Count, t.cfg.AspectRatio)
	if err != nil {
		t.logger.Warn("image generation failed", zap.Error(err))
		return errorResult("%v", err)
	}

	urls := make([]string, 0, len(imgs))
	for _, img := range imgs {
		urls = append(urls, img.URL)
	}
	if tc != nil && tc.State != nil {
		tc.State[domain.StateGeneratedImageURLs] = urls
		tc.State[domain.StateLastImageGeneration] = prompt
	}

	msg := fmt.Sprintf("Successfully generated %d images and saved locally.", len(urls))
	t.logger.Info("image tool finished", zap.Int("images", len(urls)))
	return ToolResult{
		Response: map[string]any{"status": "success", "message": msg},
		Media:    urls,
	}
}
