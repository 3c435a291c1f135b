package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
)

var (
	optQuery   string
	optFile    string
	optDialect string
	optDisable []string
	optNoAI    bool
	optOut     string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Optimize a single SQL query and print the report",
	Long: `Optimize one query for a target dialect. The query is read from --query,
from --file, or from stdin when neither is given.

Categories that can be disabled: joins, hints, bestPractices, indexes, subqueries.`,
	RunE: optimizeQuery,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVarP(&optQuery, "query", "q", "", "SQL query text")
	optimizeCmd.Flags().StringVarP(&optFile, "file", "f", "", "Read the query from this file")
	optimizeCmd.Flags().StringVarP(&optDialect, "dialect", "d", "oracle", "Target dialect (oracle|databricks|snowflake|postgresql|mysql|sqlserver)")
	optimizeCmd.Flags().StringSliceVar(&optDisable, "disable", nil, "Comma-separated categories to switch off")
	optimizeCmd.Flags().BoolVar(&optNoAI, "no-ai", false, "Skip the AI provider even when configured")
	optimizeCmd.Flags().StringVarP(&optOut, "out", "o", "", "Also write the report to this file")
}

func optimizeQuery(cmd *cobra.Command, args []string) error {
	query, err := readQuery(cmd.InOrStdin())
	if err != nil {
		return err
	}
	opts, err := disabledOptions(optDisable)
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

	res, err := engine.Optimize(context.Background(), analyze.Request{
		Query:   query,
		Dialect: optDialect,
		Options: opts,
		UseAI:   !optNoAI,
	})
	if err != nil {
		return err
	}

	report := analyze.FormatReport(res, analyze.NewReportMeta(engine.AIProvider()))
	fmt.Fprint(cmd.OutOrStdout(), report)

	if optOut != "" {
		if err := os.WriteFile(optOut, []byte(report), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "📄 Report written to %s\n", optOut)
	}
	return nil
}

func readQuery(stdin io.Reader) (string, error) {
	switch {
	case optQuery != "":
		return optQuery, nil
	case optFile != "":
		raw, err := os.ReadFile(optFile)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		return string(raw), nil
	default:
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(raw), nil
	}
}

// disabledOptions turns --disable values into an OptionSet
func disabledOptions(names []string) (analyze.OptionSet, error) {
	opts := analyze.OptionSet{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !slices.Contains(analyze.Categories, name) {
			return nil, fmt.Errorf("unknown category %q (valid: %s)", name, strings.Join(analyze.Categories, ", "))
		}
		opts[name] = false
	}
	return opts, nil
}
