package assist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
)

// FormatNLReport renders generated SQL as a plain-text report
func FormatNLReport(res *NLResult, prompt string, meta analyze.ReportMeta) string {
	var b strings.Builder

	analyze.WriteSection(&b, "NATURAL LANGUAGE TO SQL GENERATION REPORT")
	fmt.Fprintf(&b, "Generated: %s\n", meta.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Report ID: %s\n", meta.ID)
	provider := "Rule-Based"
	if res.AIUsed {
		provider = strings.ToUpper(res.Provider)
	}
	fmt.Fprintf(&b, "AI Provider: %s\n", provider)
	mode := res.LearningMode
	if mode == "" {
		mode = ZeroShot
	}
	fmt.Fprintf(&b, "Learning Mode: %s\n\n", strings.ToUpper(strings.ReplaceAll(string(mode), "-", " ")))

	analyze.WriteSection(&b, "NATURAL LANGUAGE REQUIREMENT")
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(prompt))

	if res.Explanation != "" {
		analyze.WriteSection(&b, "AI EXPLANATION")
		fmt.Fprintf(&b, "%s\n\n", res.Explanation)
	}

	for _, name := range orderedDialects(res.GeneratedSQL) {
		sql := strings.TrimSpace(res.GeneratedSQL[name])
		if sql == "" {
			continue
		}
		title := strings.ToUpper(dialect.PolicyFor(dialect.Dialect(name)).Name)
		if !dialect.Dialect(name).IsKnown() {
			title = strings.ToUpper(name)
		}
		analyze.WriteSection(&b, title+" SQL")
		fmt.Fprintf(&b, "%s\n\n", sql)
	}

	analyze.WriteSection(&b, "USAGE NOTES")
	b.WriteString("- Review and test the generated SQL before using it in production\n")
	b.WriteString("- Adjust table names, column names and conditions as needed\n")
	b.WriteString("- Add indexes that match the filters you keep\n\n")

	analyze.WriteSection(&b, "END OF REPORT")
	return b.String()
}

// orderedDialects lists known dialects in display order, then the rest sorted
func orderedDialects(generated map[string]string) []string {
	var names []string
	seen := map[string]bool{}
	for _, d := range dialect.Known {
		if _, ok := generated[d.String()]; ok {
			names = append(names, d.String())
			seen[d.String()] = true
		}
	}
	var rest []string
	for name := range generated {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
