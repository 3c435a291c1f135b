package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
)

var (
	sampleType    string
	sampleFile    string
	sampleDialect string
	sampleCount   int
	sampleUseAI   bool
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Run sample anti-pattern queries through the optimizer",
	Long: `Run a catalog of anti-pattern queries through the optimizer and print a
one-line summary per query. Use --file to replay your own batch instead.

Built-in query types:
- full-scan: leading wildcards and functions on filtered columns
- comma-join: implicit joins in the FROM list
- subquery: IN subqueries and correlated aggregates
- aggregation: heavy GROUP BY/ORDER BY without limits

Batch file format (YAML):
  queries:
    - name: monthly-average
      dialect: databricks
      query: SELECT ...`,
	RunE: runSamples,
}

func init() {
	rootCmd.AddCommand(samplesCmd)

	samplesCmd.Flags().StringVar(&sampleType, "type", "all", "Sample type (all|full-scan|comma-join|subquery|aggregation)")
	samplesCmd.Flags().StringVarP(&sampleFile, "file", "f", "", "YAML batch file to run instead of the built-in catalog")
	samplesCmd.Flags().StringVarP(&sampleDialect, "dialect", "d", "", "Override the dialect of every sample")
	samplesCmd.Flags().IntVar(&sampleCount, "count", 0, "Run at most this many samples (0 = all)")
	samplesCmd.Flags().BoolVar(&sampleUseAI, "ai", false, "Consult the AI provider for each sample")
}

// Sample is one query of a batch
type Sample struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Dialect string `yaml:"dialect"`
	Query   string `yaml:"query"`
}

type sampleBatch struct {
	Queries []Sample `yaml:"queries"`
}

var builtinSamples = []Sample{
	{
		Name: "wildcard-product-search", Type: "full-scan", Dialect: "mysql",
		Query: "SELECT * FROM products WHERE name LIKE '%Book%'",
	},
	{
		Name: "email-domain-search", Type: "full-scan", Dialect: "postgresql",
		Query: "SELECT * FROM customers WHERE LOWER(email) LIKE '%gmail%'",
	},
	{
		Name: "orders-by-year", Type: "full-scan", Dialect: "oracle",
		Query: "SELECT id, total FROM orders WHERE YEAR(created_at) = 2024",
	},
	{
		Name: "four-table-comma-join", Type: "comma-join", Dialect: "oracle",
		Query: `SELECT c.email, o.total, p.name
FROM customers c, orders o, products p, order_items oi
WHERE c.id = o.customer_id
AND o.id = oi.order_id
AND oi.product_id = p.id
AND c.city = 'New York'`,
	},
	{
		Name: "two-table-comma-join", Type: "comma-join", Dialect: "databricks",
		Query: "SELECT c.company, o.total FROM customers c, orders o WHERE c.id = o.customer_id AND o.status = 'paid'",
	},
	{
		Name: "tech-customer-orders", Type: "subquery", Dialect: "snowflake",
		Query: `SELECT * FROM orders o
WHERE o.customer_id IN (
  SELECT c.id FROM customers c
  WHERE c.company = 'Tech'
)`,
	},
	{
		Name: "above-monthly-average", Type: "subquery", Dialect: "databricks",
		Query: "SELECT * FROM sales s WHERE amount > (SELECT AVG(amount) FROM sales s2 WHERE DATE_FORMAT(sale_date,'%Y-%m') = DATE_FORMAT(s.sale_date,'%Y-%m'))",
	},
	{
		Name: "city-sales", Type: "aggregation", Dialect: "sqlserver",
		Query: `SELECT c.city, c.country, COUNT(*) AS customers, SUM(o.total) AS total_sales
FROM customers c
LEFT JOIN orders o ON c.id = o.customer_id
GROUP BY c.city, c.country
ORDER BY total_sales DESC`,
	},
	{
		Name: "category-revenue", Type: "aggregation", Dialect: "mysql",
		Query: `SELECT UPPER(p.category) AS category, SUM(oi.quantity * oi.price) AS revenue
FROM products p
JOIN order_items oi ON p.id = oi.product_id
WHERE p.description LIKE '%professional%' OR p.description LIKE '%premium%'
GROUP BY p.category
HAVING SUM(oi.quantity * oi.price) > 100
ORDER BY revenue DESC`,
	},
}

func runSamples(cmd *cobra.Command, args []string) error {
	samples, err := selectSamples()
	if err != nil {
		return err
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	gen, limiter := rt.aiStack()
	engine := rt.engine(gen, limiter)

	fmt.Fprintf(cmd.OutOrStdout(), "🧪 Running %d sample quer%s...\n", len(samples), pluralize(len(samples)))
	return replaySamples(cmd.Context(), cmd.OutOrStdout(), engine, samples, sampleUseAI)
}

func selectSamples() ([]Sample, error) {
	var samples []Sample
	if sampleFile != "" {
		loaded, err := loadSampleFile(sampleFile)
		if err != nil {
			return nil, err
		}
		samples = loaded
	} else {
		for _, s := range builtinSamples {
			if sampleType == "all" || s.Type == sampleType {
				samples = append(samples, s)
			}
		}
		if len(samples) == 0 {
			return nil, fmt.Errorf("unknown sample type: %s", sampleType)
		}
	}

	if sampleDialect != "" {
		for i := range samples {
			samples[i].Dialect = sampleDialect
		}
	}
	if sampleCount > 0 && sampleCount < len(samples) {
		samples = samples[:sampleCount]
	}
	return samples, nil
}

func loadSampleFile(path string) ([]Sample, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var batch sampleBatch
	if err := yaml.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(batch.Queries) == 0 {
		return nil, fmt.Errorf("batch file %s has no queries", path)
	}
	for i := range batch.Queries {
		if batch.Queries[i].Name == "" {
			batch.Queries[i].Name = fmt.Sprintf("query-%d", i+1)
		}
		if batch.Queries[i].Dialect == "" {
			batch.Queries[i].Dialect = "oracle"
		}
	}
	return batch.Queries, nil
}

// replaySamples optimizes each sample and writes one summary line for it.
// A failing sample is reported and the batch continues.
func replaySamples(ctx context.Context, w io.Writer, engine *analyze.OptimizationEngine, samples []Sample, useAI bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	failed := 0
	for i, s := range samples {
		res, err := engine.Optimize(ctx, analyze.Request{Query: s.Query, Dialect: s.Dialect, UseAI: useAI})
		if err != nil {
			failed++
			fmt.Fprintf(w, "   ❌ #%d %s (%s): %v\n", i+1, s.Name, s.Dialect, err)
			continue
		}
		marker := "✅"
		if !res.Changed() {
			marker = "💡"
		}
		fmt.Fprintf(w, "   %s #%d %s (%s): %d change(s), %d suggestion(s), %d index rec(s), %s, est. %d%%\n",
			marker, i+1, s.Name, res.Dialect, res.ChangeCount, len(res.Suggestions),
			len(res.IndexRecommendations), strings.ToLower(res.Complexity), res.ImprovementEstimate)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d samples failed", failed, len(samples))
	}
	return nil
}

func pluralize(count int) string {
	if count == 1 {
		return "y"
	}
	return "ies"
}
