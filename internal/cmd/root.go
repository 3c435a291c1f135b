package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
	"github.com/Abhijeetjrock/db-analyzer1/internal/assist"
	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
	"github.com/Abhijeetjrock/db-analyzer1/internal/llm"
	"github.com/Abhijeetjrock/db-analyzer1/internal/logging"
	"github.com/Abhijeetjrock/db-analyzer1/internal/ratelimit"
	"github.com/Abhijeetjrock/db-analyzer1/internal/types"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "crossdb",
	Short: "CrossDB Optimizer - multi-dialect SQL rewriting and optimization",
	Long: `CrossDB Optimizer rewrites SQL anti-patterns into equivalent, faster forms
for Oracle, Databricks, Snowflake, PostgreSQL, MySQL and SQL Server, and
explains what it changed.

Run it as an HTTP service with "serve", or use the CLI commands to optimize
single queries, replay sample workloads and check provider and database
connectivity.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: search ./deploy, ., $HOME/.crossdb, /etc/crossdb)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runtime is what every command builds from the config file
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadRuntime() (*runtime, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger}, nil
}

// aiStack builds the generator and limiter. The generator is nil when no
// provider is configured, which leaves every path rule-based.
func (rt *runtime) aiStack() (types.Generator, *ratelimit.Limiter) {
	limiter := ratelimit.FromConfig(rt.cfg.RateLimit)

	gen, err := llm.NewGenerator(rt.cfg.AI)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			rt.logger.Info("AI provider not configured, using rule-based optimization only",
				zap.String("provider", rt.cfg.AI.Provider))
		} else {
			rt.logger.Warn("Failed to create AI generator", zap.Error(err))
		}
		return nil, limiter
	}

	rt.logger.Info("AI provider configured",
		zap.String("provider", gen.Provider()),
		zap.String("model", gen.Model()))
	return gen, limiter
}

func (rt *runtime) engine(gen types.Generator, limiter *ratelimit.Limiter) *analyze.OptimizationEngine {
	var strategy analyze.Strategy
	if gen != nil {
		strategy = assist.NewOptimizer(gen, limiter, rt.cfg.AI, rt.logger)
	}
	return analyze.NewOptimizationEngine(rt.cfg.AI, strategy, rt.logger)
}
