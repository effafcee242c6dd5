package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/simulation-suite/internal/config"
)

// NewLLMService builds the provider named by the configuration.
func NewLLMService(cfg *config.Config, logger *slog.Logger) (LLMService, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("anthropic API key is required when using anthropic provider")
		}
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, cfg.BackendModelName, logger), nil
	case config.ProviderOllama:
		return NewOllamaService(cfg.OllamaURL, cfg.ModelName, cfg.BackendModelName, logger), nil
	default:
		return nil, fmt.Errorf("invalid LLM provider %q, supported: %s, %s", cfg.LLMProvider, config.ProviderAnthropic, config.ProviderOllama)
	}
}
