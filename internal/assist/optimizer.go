// Package assist drives the AI provider for query optimization and
// natural-language SQL generation.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/llm"
	"github.com/Abhijeetjrock/db-analyzer1/internal/ratelimit"
	"github.com/Abhijeetjrock/db-analyzer1/internal/types"
)

// ErrRateLimited is returned when the local rate limiter denies a provider call
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitError carries how long the caller should wait
type RateLimitError struct {
	Wait float64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v: please wait %.1f seconds before trying again", ErrRateLimited, e.Wait)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// UserMessage is shown in the fallback suggestion
func (e *RateLimitError) UserMessage() string {
	return fmt.Sprintf("Rate limit exceeded. Please wait %.1f seconds before trying again.", e.Wait)
}

func checkLimit(limiter *ratelimit.Limiter) error {
	if limiter == nil {
		return nil
	}
	if d := limiter.Allow(); !d.Allowed {
		return &RateLimitError{Wait: d.Wait.Seconds()}
	}
	return nil
}

// Optimizer is the AI optimization strategy backed by a text generator
type Optimizer struct {
	generator types.Generator
	limiter   *ratelimit.Limiter
	prompts   *PromptBuilder
	opts      types.GenerationOptions
	logger    *zap.Logger
}

// NewOptimizer wires a generator to the optimizer. limiter may be nil.
func NewOptimizer(generator types.Generator, limiter *ratelimit.Limiter, cfg config.AIConfig, logger *zap.Logger) *Optimizer {
	return &Optimizer{
		generator: generator,
		limiter:   limiter,
		prompts:   NewPromptBuilder(),
		opts: types.GenerationOptions{
			System:      types.DefaultSystemPrompt,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		logger: logger.Named("ai-optimizer"),
	}
}

func (o *Optimizer) Provider() string { return o.generator.Provider() }

// Optimize asks the provider for an optimized query. A response that holds
// no parseable JSON still succeeds, with the raw text as explanation.
func (o *Optimizer) Optimize(ctx context.Context, query string, d dialect.Dialect) (*analyze.AIResult, error) {
	if err := checkLimit(o.limiter); err != nil {
		o.logger.Warn("AI call rate limited", zap.Error(err))
		return nil, err
	}

	prompt := o.prompts.BuildOptimizationPrompt(query, d)
	o.logger.Debug("Sending optimization prompt",
		zap.String("provider", o.generator.Provider()),
		zap.String("model", o.generator.Model()),
		zap.Int("prompt_length", len(prompt)))

	raw, err := o.generator.Complete(ctx, prompt, o.opts)
	if err != nil {
		classified := llm.ClassifyError(err)
		o.logger.Error("AI optimization call failed",
			zap.String("provider", o.generator.Provider()),
			zap.String("error_type", string(classified.Type)),
			zap.Bool("retryable", classified.Retryable),
			zap.Error(err))
		return nil, classified
	}

	result, err := ParseJSONResponse[analyze.AIResult](raw)
	if err != nil {
		o.logger.Warn("AI response is not JSON, using it as explanation", zap.Error(err))
		return &analyze.AIResult{
			OptimizedQuery: query,
			Explanation:    strings.TrimSpace(raw),
		}, nil
	}
	result.OptimizedQuery = cleanSQL(result.OptimizedQuery)
	return &result, nil
}

// cleanSQL strips markdown fences a model sometimes leaves around SQL
func cleanSQL(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```SQL")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var _ analyze.Strategy = (*Optimizer)(nil)
