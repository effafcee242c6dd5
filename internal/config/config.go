package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	LLMProvider      string `env:"LLM_PROVIDER" envDefault:"ollama"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	OllamaURL        string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	ModelName        string `env:"MODEL_NAME" envDefault:"llama3.1"`
	BackendModelName string `env:"BACKEND_MODEL_NAME"` // world state and yes/no checks; defaults to ModelName

	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	WorldStateInterval int           `env:"WORLD_STATE_INTERVAL" envDefault:"5"` // rounds between unforced refreshes
	WorkerConcurrency  int           `env:"WORKER_CONCURRENCY" envDefault:"1"`
	RoundTimeout       time.Duration `env:"ROUND_TIMEOUT" envDefault:"3m"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.LLMProvider = strings.ToLower(cfg.LLMProvider)
	if cfg.BackendModelName == "" {
		cfg.BackendModelName = cfg.ModelName
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderOllama:
		if c.OllamaURL == "" {
			return errors.New("OLLAMA_URL is required for the ollama provider")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", c.WorkerConcurrency)
	}
	if c.RoundTimeout <= 0 {
		return fmt.Errorf("ROUND_TIMEOUT must be positive, got %s", c.RoundTimeout)
	}
	if c.WorldStateInterval < 1 {
		return fmt.Errorf("WORLD_STATE_INTERVAL must be at least 1, got %d", c.WorldStateInterval)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
