package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.AIConfig
		provider string
	}{
		{"openai", config.AIConfig{Enabled: true, Provider: config.ProviderOpenAI, APIKey: "k"}, "openai"},
		{"anthropic", config.AIConfig{Enabled: true, Provider: config.ProviderAnthropic, APIKey: "k"}, "anthropic"},
		{"gemini", config.AIConfig{Enabled: true, Provider: config.ProviderGemini, APIKey: "k"}, "gemini"},
		{"mock without key", config.AIConfig{Enabled: true, Provider: config.ProviderMock}, "mock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.provider, g.Provider())
			assert.NotEmpty(t, g.Model())
		})
	}
}

func TestNewGenerator_NotConfigured(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewGenerator(config.AIConfig{Enabled: true, Provider: config.ProviderOpenAI})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewGenerator(config.AIConfig{Enabled: false, Provider: config.ProviderMock})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
