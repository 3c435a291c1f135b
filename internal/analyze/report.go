package analyze

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ruleLine = strings.Repeat("=", 80)
	dashLine = strings.Repeat("-", 80)
)

// ReportMeta is the header information of an exported report
type ReportMeta struct {
	ID          string
	GeneratedAt time.Time
	Provider    string
}

// NewReportMeta stamps a report with a fresh id and the current time
func NewReportMeta(provider string) ReportMeta {
	return ReportMeta{ID: uuid.NewString(), GeneratedAt: time.Now(), Provider: provider}
}

// Filename is the attachment name for the report
func (m ReportMeta) Filename(prefix string) string {
	return fmt.Sprintf("%s_%s.txt", prefix, m.GeneratedAt.Format("20060102_150405"))
}

// WriteSection writes an 80-column banner followed by title
func WriteSection(b *strings.Builder, title string) {
	fmt.Fprintf(b, "%s\n%s\n%s\n\n", ruleLine, title, ruleLine)
}

// WriteSubsection writes title underlined with dashes
func WriteSubsection(b *strings.Builder, title string) {
	fmt.Fprintf(b, "%s\n%s\n", title, dashLine)
}

// FormatReport renders res as a plain-text optimization report
func FormatReport(res *OptimizationResult, meta ReportMeta) string {
	var b strings.Builder

	WriteSection(&b, "SQL QUERY OPTIMIZATION REPORT")
	fmt.Fprintf(&b, "Generated: %s\n", meta.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Report ID: %s\n", meta.ID)
	fmt.Fprintf(&b, "Database Type: %s\n", strings.ToUpper(res.Dialect))
	method := "Rule-Based"
	if res.AIUsed {
		provider := meta.Provider
		if provider == "" {
			provider = "unknown"
		}
		method = fmt.Sprintf("AI-Powered (%s)", strings.ToUpper(provider))
	}
	fmt.Fprintf(&b, "Optimization Method: %s\n", method)
	if res.Complexity != "" {
		fmt.Fprintf(&b, "Query Complexity: %s\n", res.Complexity)
	}
	fmt.Fprintf(&b, "Estimated Performance Improvement: %d%% (estimate, not measured)\n\n", res.ImprovementEstimate)

	WriteSection(&b, "ORIGINAL QUERY")
	b.WriteString(res.OriginalQuery + "\n\n")

	WriteSection(&b, "OPTIMIZED QUERY")
	b.WriteString(res.RewrittenQuery + "\n\n")

	WriteSection(&b, "OPTIMIZATION IMPROVEMENTS")
	if len(res.Changes) == 0 {
		b.WriteString("No specific improvements recorded.\n\n")
	}
	for i, c := range res.Changes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Description)
		fmt.Fprintf(&b, "   Category: %s\n", c.Category)
		if c.Rationale != "" {
			fmt.Fprintf(&b, "   Impact: %s\n", c.Rationale)
		}
		b.WriteString("\n")
	}

	if len(res.Suggestions) > 0 {
		WriteSection(&b, "OPTIMIZATION SUGGESTIONS")
		for i, s := range res.Suggestions {
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, strings.ToUpper(string(s.Priority)), s.Title)
			fmt.Fprintf(&b, "   %s\n", s.Description)
			if s.Example != "" {
				fmt.Fprintf(&b, "   Example: %s\n", s.Example)
			}
			b.WriteString("\n")
		}
	}

	if len(res.IndexRecommendations) > 0 {
		WriteSection(&b, "INDEX RECOMMENDATIONS")
		for i, rec := range res.IndexRecommendations {
			fmt.Fprintf(&b, "%d. Table: %s\n", i+1, rec.Table)
			fmt.Fprintf(&b, "   Columns: %s\n", rec.Columns)
			fmt.Fprintf(&b, "   Type: %s\n", rec.Kind)
			fmt.Fprintf(&b, "   Reason: %s\n", rec.Rationale)
			if rec.DDL != "" {
				fmt.Fprintf(&b, "   DDL: %s\n", rec.DDL)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "%s\nEND OF REPORT\n%s\n", ruleLine, ruleLine)
	return b.String()
}
