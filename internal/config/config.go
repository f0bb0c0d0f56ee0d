package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8000"`

	// Persistencia de mensajes: Postgres si DATABASE_URL esta definido, SQLite en otro caso.
	DatabaseURL string `env:"DATABASE_URL"`
	DBPath      string `env:"DB_PATH" envDefault:"messages.db"`

	// Runtime del modelo de lenguaje (endpoint compatible con OpenAI).
	LLMAPIKey  string        `env:"GOOGLE_API_KEY"`
	LLMBaseURL string        `env:"LLM_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai"`
	LLMModel   string        `env:"LLM_MODEL" envDefault:"gemini-2.0-flash"`
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	AgentName  string        `env:"AGENT_NAME" envDefault:"hr_agent"`
	AgentsFile string        `env:"AGENTS_FILE"`
	AppName    string        `env:"APP_NAME" envDefault:"hr_agent_app"`

	// Backend de generacion de imagenes (Vertex AI Imagen).
	GoogleCloudProject  string        `env:"GOOGLE_CLOUD_PROJECT"`
	GoogleCloudLocation string        `env:"GOOGLE_CLOUD_LOCATION" envDefault:"us-central1"`
	ImageModel          string        `env:"IMAGE_MODEL" envDefault:"imagen-4.0-generate-preview-06-06"`
	ImageAccessToken    string        `env:"IMAGE_ACCESS_TOKEN"`
	ImageDir            string        `env:"IMAGE_DIR" envDefault:"generated_images"`
	ImageCount          int           `env:"IMAGE_COUNT" envDefault:"2"`
	ImageAspectRatio    string        `env:"IMAGE_ASPECT_RATIO" envDefault:"3:4"`
	ImageTimeout        time.Duration `env:"IMAGE_TIMEOUT" envDefault:"120s"`

	// Sesiones: "memory" o "redis".
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"memory"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`

	SubmitRateLimit  int           `env:"SUBMIT_RATE_LIMIT" envDefault:"20"`
	SubmitRateWindow time.Duration `env:"SUBMIT_RATE_WINDOW" envDefault:"1m"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate revisa combinaciones invalidas; la ausencia de credenciales no es un error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTPPort) == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}
	if c.DatabaseURL == "" && strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH cannot be empty when DATABASE_URL is not set")
	}
	switch c.SessionBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.ImageCount <= 0 {
		return fmt.Errorf("IMAGE_COUNT must be > 0")
	}
	if strings.TrimSpace(c.ImageDir) == "" {
		return fmt.Errorf("IMAGE_DIR cannot be empty")
	}
	return nil
}

// UsePostgres indica si los mensajes viven en Postgres.
func (c *Config) UsePostgres() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

// ImageBackendConfigured indica si hay proyecto y region para Imagen.
func (c *Config) ImageBackendConfigured() bool {
	return c.GoogleCloudProject != "" && c.GoogleCloudLocation != ""
}
