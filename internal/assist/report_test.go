package assist

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
)

func TestFormatNLReport(t *testing.T) {
	meta := analyze.ReportMeta{
		ID:          "r-1",
		GeneratedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
	res := &NLResult{
		GeneratedSQL: map[string]string{
			"snowflake": "SELECT * FROM t LIMIT 5",
			"oracle":    "SELECT * FROM t WHERE ROWNUM <= 5",
		},
		Explanation:  "First five rows",
		LearningMode: FewShot,
		AIUsed:       true,
		Provider:     "gemini",
	}

	report := FormatNLReport(res, "top 5 rows of t", meta)

	assert.Contains(t, report, "NATURAL LANGUAGE TO SQL GENERATION REPORT")
	assert.Contains(t, report, "Generated: 2026-03-04 05:06:07")
	assert.Contains(t, report, "AI Provider: GEMINI")
	assert.Contains(t, report, "Learning Mode: FEW SHOT")
	assert.Contains(t, report, "NATURAL LANGUAGE REQUIREMENT\n"+strings.Repeat("=", 80)+"\n\ntop 5 rows of t")
	assert.Contains(t, report, "AI EXPLANATION")
	assert.Less(t, strings.Index(report, "ORACLE SQL"), strings.Index(report, "SNOWFLAKE SQL"))
	assert.NotContains(t, report, "DATABRICKS SQL")
	assert.True(t, strings.HasSuffix(report, "END OF REPORT\n"+strings.Repeat("=", 80)+"\n\n"))
}

func TestFormatNLReport_RuleBased(t *testing.T) {
	res := &NLResult{GeneratedSQL: map[string]string{"sqlserver": "SELECT TOP 1 * FROM t"}}

	report := FormatNLReport(res, "first row", analyze.NewReportMeta(""))

	assert.Contains(t, report, "AI Provider: Rule-Based")
	assert.Contains(t, report, "Learning Mode: ZERO SHOT")
	assert.Contains(t, report, "SQL SERVER SQL")
	assert.NotContains(t, report, "AI EXPLANATION")
}
