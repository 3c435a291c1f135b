package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Abhijeetjrock/db-analyzer1/internal/assist"
	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/llm"
)

var testAIDialect string

var testAICmd = &cobra.Command{
	Use:   "test-ai",
	Short: "Test the configured AI provider",
	Long: `Send a sample query through the configured AI provider and print the parsed
answer. This helps verify API keys and connectivity before serving traffic.`,
	RunE: testAIProvider,
}

func init() {
	rootCmd.AddCommand(testAICmd)

	testAICmd.Flags().StringVarP(&testAIDialect, "dialect", "d", "mysql", "Dialect for the sample query")
}

const sampleQuery = `SELECT * FROM orders o, customers c
WHERE o.customer_id = c.id
AND o.created_at > '2024-01-01'
ORDER BY o.created_at DESC`

func testAIProvider(cmd *cobra.Command, args []string) error {
	fmt.Println("🧪 Testing AI provider connection...")

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	fmt.Printf("🤖 Provider: %s, model: %q\n", rt.cfg.AI.Provider, rt.cfg.AI.Model)
	gen, err := llm.NewGenerator(rt.cfg.AI)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			fmt.Println("⚠️  No API key found. Set ai.api_key, ai.api_key_env or the provider's key variable.")
		}
		return fmt.Errorf("failed to create generator: %w", err)
	}

	timeout := rt.cfg.AI.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// One-off check, so no rate limiter
	optimizer := assist.NewOptimizer(gen, nil, rt.cfg.AI, rt.logger)
	start := time.Now()
	res, err := optimizer.Optimize(ctx, sampleQuery, dialect.Parse(testAIDialect))
	if err != nil {
		var llmErr *llm.Error
		if errors.As(err, &llmErr) {
			fmt.Printf("   ❌ %s\n", llmErr.UserMessage())
		}
		return fmt.Errorf("AI provider check failed: %w", err)
	}

	fmt.Printf("   ✅ %s/%s answered in %v\n", gen.Provider(), gen.Model(), time.Since(start).Round(time.Millisecond))
	if res.OptimizedQuery != "" && res.OptimizedQuery != sampleQuery {
		fmt.Printf("   📝 Optimized query:\n%s\n", res.OptimizedQuery)
	}
	if res.Explanation != "" {
		fmt.Printf("   💡 Explanation: %s\n", res.Explanation)
	}
	for _, imp := range res.Improvements {
		fmt.Printf("   • %s\n", imp)
	}
	if res.PerformanceGain != "" {
		fmt.Printf("   📈 Estimated gain: %s\n", res.PerformanceGain)
	}

	fmt.Println("\n🎉 AI provider is working correctly!")
	return nil
}
