package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/Abhijeetjrock/db-analyzer1/internal/types"
)

const defaultOpenAIModel = "gpt-3.5-turbo"

type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator builds a generator for the OpenAI chat API or any
// compatible endpoint given by baseURL
func NewOpenAIGenerator(model, apiKey, baseURL string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if model == "" {
		model = defaultOpenAIModel
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

func (g *OpenAIGenerator) Complete(ctx context.Context, prompt string, opts types.GenerationOptions) (string, error) {
	system := opts.System
	if system == "" {
		system = types.DefaultSystemPrompt
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) Model() string    { return g.model }
func (g *OpenAIGenerator) Provider() string { return "openai" }

// Compile-time interface check
var _ types.Generator = (*OpenAIGenerator)(nil)
