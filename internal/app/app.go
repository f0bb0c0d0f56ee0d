package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hr-board/internal/agent"
	"hr-board/internal/config"
	"hr-board/internal/db"
	"hr-board/internal/domain"
	"hr-board/internal/images"
	"hr-board/internal/llm"
	"hr-board/internal/repository"
	"hr-board/internal/service"
)

// App agrupa las dependencias cableadas que comparten los binarios.
type App struct {
	Messages *service.MessageService
	Insights *service.InsightService
	Chat     *service.ChatService
	Sessions *service.SessionManager
	Images   *images.FileStore

	ping    func(ctx context.Context) error
	closers []func()
}

// Build arma el grafo completo a partir de la configuracion.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}

	messageRepo, err := a.openMessages(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		}
		cancel()
	}

	var sessionStore repository.SessionStore = repository.NewMemorySessionStore()
	if cfg.SessionBackend == "redis" {
		sessionStore = repository.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	}

	var limiter service.SubmitRateLimiter
	if redisClient != nil {
		limiter = service.NewRedisSubmitLimiter(redisClient, cfg.SubmitRateWindow, cfg.SubmitRateLimit)
	} else {
		limiter = service.NewMemorySubmitLimiter(cfg.SubmitRateWindow, cfg.SubmitRateLimit)
	}
	a.Messages = service.NewMessageService(messageRepo, limiter)

	if cfg.LLMAPIKey == "" {
		logger.Warn("GOOGLE_API_KEY is not set; model calls will fail")
	}
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout, logger)
	a.Insights = service.NewInsightService(llmClient, a.Messages, logger)

	aspect, err := domain.ParseAspectRatio(cfg.ImageAspectRatio)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("IMAGE_ASPECT_RATIO: %w", err)
	}
	if !cfg.ImageBackendConfigured() {
		logger.Warn("GOOGLE_CLOUD_PROJECT is not set; image generation will fail")
	}
	a.Images = images.NewFileStore(cfg.ImageDir)
	imageClient := images.NewClient(images.ClientConfig{
		Project:  cfg.GoogleCloudProject,
		Location: cfg.GoogleCloudLocation,
		Model:    cfg.ImageModel,
		Timeout:  cfg.ImageTimeout,
	}, images.NewDefaultTokenSource(cfg.ImageAccessToken), a.Images, logger)

	registry := agent.NewRegistry()
	registry.MustRegister(
		agent.NewMessagesTool(a.Messages, logger),
		agent.NewImageTool(imageClient, agent.ImageToolConfig{Count: cfg.ImageCount, AspectRatio: aspect}, logger),
		agent.IntakeDataTool{},
		agent.IntakeCompletedTool{},
		agent.UploadedFilesTool{},
	)
	def, err := agent.LoadDefinition(cfg.AgentsFile, cfg.AgentName)
	if err != nil {
		a.Close()
		return nil, err
	}
	runner, err := agent.NewRunner(cfg.AppName, def, registry, llmClient, sessionStore, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Sessions = service.NewSessionManager(sessionStore, cfg.AppName, logger)
	a.Chat = service.NewChatService(a.Sessions, sessionStore, runner, logger)

	logger.Info("app wired",
		zap.String("agent", def.Name),
		zap.String("session_backend", cfg.SessionBackend),
		zap.Bool("postgres", cfg.UsePostgres()),
	)
	return a, nil
}

func (a *App) openMessages(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.MessageRepository, error) {
	if cfg.UsePostgres() {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.ping = func(ctx context.Context) error { return pool.Ping(ctx) }
		repo := repository.NewPgMessageRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		logger.Info("message store ready", zap.String("driver", "postgres"))
		return repo, nil
	}

	conn, err := db.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })
	a.ping = conn.PingContext
	repo := repository.NewSQLiteMessageRepository(conn)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	logger.Info("message store ready", zap.String("driver", "sqlite"), zap.String("path", cfg.DBPath))
	return repo, nil
}

// Ping revisa la base de mensajes.
func (a *App) Ping(ctx context.Context) error {
	if a.ping == nil {
		return fmt.Errorf("message store not initialized")
	}
	return a.ping(ctx)
}

// Close libera conexiones en orden inverso.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
