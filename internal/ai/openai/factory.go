package openai

import (
	"fmt"

	"github.com/Ishwarya142/plantiq/internal/ai"
	"github.com/Ishwarya142/plantiq/internal/config"
	"github.com/Ishwarya142/plantiq/pkg/models"
)

// FromConfig constructs the AI provider selected by config.
// Called once at startup. Every supported backend speaks the chat completions
// protocol, so they share one Provider and differ only in endpoint and auth.
func FromConfig(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case config.ProviderGateway, config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, ai.ErrMissingAPIKey
		}
	case config.ProviderOllama, config.ProviderVLLM:
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gateway, openai, ollama, vllm", cfg.Provider)
	}

	return NewProvider(Config{
		Name:    cfg.Provider,
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	}), nil
}
