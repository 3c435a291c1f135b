package llm

import (
	"errors"
	"fmt"

	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
	"github.com/Abhijeetjrock/db-analyzer1/internal/llm/generate"
	"github.com/Abhijeetjrock/db-analyzer1/internal/types"
)

// ErrNotConfigured is returned when AI is disabled or no API key resolves
var ErrNotConfigured = errors.New("AI model not configured")

// NewGenerator creates a generator based on configuration
func NewGenerator(cfg config.AIConfig) (types.Generator, error) {
	if !cfg.Available() {
		return nil, fmt.Errorf("%w: provider %q", ErrNotConfigured, cfg.Provider)
	}

	key := cfg.ResolveAPIKey()
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return generate.NewOpenAIGenerator(cfg.Model, key, cfg.BaseURL)
	case config.ProviderAnthropic:
		return generate.NewAnthropicGenerator(cfg.Model, key, cfg.BaseURL)
	case config.ProviderGemini:
		return generate.NewGeminiGenerator(cfg.Model, key, cfg.BaseURL)
	case config.ProviderMock:
		return generate.NewMockGenerator(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", cfg.Provider)
	}
}
