package types

import "context"

// Generator produces text completions from prompts
type Generator interface {
	Complete(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
	Model() string
	Provider() string
}

// GenerationOptions contains options for text generation. Zero values
// leave the provider default in place.
type GenerationOptions struct {
	System      string  `json:"system,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// DefaultSystemPrompt frames every SQL optimization request
const DefaultSystemPrompt = "You are an expert SQL database optimization assistant. You provide optimized SQL queries and explain your optimizations clearly."
