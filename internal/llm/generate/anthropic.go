package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/Abhijeetjrock/db-analyzer1/internal/types"
)

const (
	defaultAnthropicModel     = "claude-3-5-haiku-20241022"
	defaultAnthropicMaxTokens = 2000
)

type AnthropicGenerator struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicGenerator builds a generator for the Anthropic messages API.
// baseURL overrides the API host, mostly for tests.
func NewAnthropicGenerator(model, apiKey, baseURL string) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if model == "" {
		model = defaultAnthropicModel
	}

	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(baseURL, "/")))
	}

	return &AnthropicGenerator{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}, nil
}

func (g *AnthropicGenerator) Complete(ctx context.Context, prompt string, opts types.GenerationOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	system := opts.System
	if system == "" {
		system = types.DefaultSystemPrompt
	}
	temperature := float32(opts.Temperature)

	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(g.model),
		MaxTokens:   maxTokens,
		System:      system,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			b.WriteString(*block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic: no text content in response")
	}
	return b.String(), nil
}

func (g *AnthropicGenerator) Model() string    { return g.model }
func (g *AnthropicGenerator) Provider() string { return "anthropic" }

// Compile-time interface check
var _ types.Generator = (*AnthropicGenerator)(nil)
