package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/sqltext"
)

func advise(sql string, d dialect.Dialect, opts OptionSet, rewritten map[PatternKind]bool) []Suggestion {
	return NewAdvisor(NewQueryAnalyzer()).Advise(sqltext.New(sql), dialect.PolicyFor(d), opts, rewritten)
}

func titles(suggestions []Suggestion) []string {
	var out []string
	for _, s := range suggestions {
		out = append(out, s.Title)
	}
	return out
}

func TestAdvise_Priorities(t *testing.T) {
	sql := "SELECT * FROM a, b WHERE a.id NOT IN (SELECT id FROM c) AND a.name LIKE '%x' AND (a.k = 1 OR b.k = 2) ORDER BY a.id"
	got := advise(sql, dialect.Snowflake, nil, nil)

	byTitle := map[string]Priority{}
	for _, s := range got {
		byTitle[s.Title] = s.Priority
	}
	assert.Equal(t, PriorityMedium, byTitle["Implicit Join Detected"])
	assert.Equal(t, PriorityMedium, byTitle["Avoid SELECT * in Production Queries"])
	assert.Equal(t, PriorityHigh, byTitle["NOT IN Subquery Detected"])
	assert.Equal(t, PriorityHigh, byTitle["Leading Wildcard in LIKE"])
	assert.Equal(t, PriorityMedium, byTitle["Multiple OR Conditions"])
	assert.Equal(t, PriorityLow, byTitle["Missing LIMIT with ORDER BY"])
}

func TestAdvise_Idempotent(t *testing.T) {
	sql := "SELECT * FROM t WHERE id IN (SELECT id FROM t2) AND UPPER(t.name) = 'X' ORDER BY id"
	first := advise(sql, dialect.PostgreSQL, nil, nil)
	second := advise(sql, dialect.PostgreSQL, nil, nil)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestAdvise_SkipsRewrittenPatterns(t *testing.T) {
	sql := "SELECT * FROM t WHERE id IN (SELECT id FROM t2)"
	assert.Contains(t, titles(advise(sql, dialect.MySQL, nil, nil)), "IN Subquery Detected")

	got := advise(sql, dialect.MySQL, nil, map[PatternKind]bool{PatternInSubquery: true})
	assert.NotContains(t, titles(got), "IN Subquery Detected")
}

func TestAdvise_DisabledCategories(t *testing.T) {
	sql := "SELECT * FROM a, b WHERE a.id IN (SELECT id FROM c) AND a.name LIKE '%x'"
	got := titles(advise(sql, dialect.MySQL, OptionSet{
		CategoryJoins:         false,
		CategorySubqueries:    false,
		CategoryBestPractices: false,
	}, nil))
	assert.Empty(t, got)
}

func TestAdvise_IncompleteCommaJoinExplainsWhy(t *testing.T) {
	got := advise("SELECT a.x FROM a, b WHERE a.id = b.id OR a.y = 1", dialect.MySQL, nil, nil)
	require.NotEmpty(t, got)
	assert.Equal(t, "Implicit Join Detected", got[0].Title)
	assert.Contains(t, got[0].Description, "Not rewritten automatically")
}

func TestAdvise_FunctionOnColumnListsExpressions(t *testing.T) {
	got := advise("SELECT e.id FROM emp e WHERE UPPER(e.name) = 'A' AND TRIM(e.code) = 'B'", dialect.Oracle, nil, nil)
	require.Len(t, got, 1)
	assert.Equal(t, PriorityMedium, got[0].Priority)
	assert.Contains(t, got[0].Description, "UPPER(e.name), TRIM(e.code)")
}

func TestHintSuggestions(t *testing.T) {
	tests := []struct {
		dialect dialect.Dialect
		sql     string
		want    string
	}{
		{dialect.Oracle, "SELECT id FROM t WHERE id = 1", "Index Hint Suggestion"},
		{dialect.Databricks, "SELECT * FROM f JOIN d ON f.id = d.id", "Databricks Broadcast Join"},
		{dialect.SQLServer, "SELECT id FROM t", "SQL Server Table Hints"},
		{dialect.Snowflake, "SELECT id FROM t", "Snowflake Clustering Keys"},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			got := hintSuggestions(sqltext.New(tt.sql), dialect.PolicyFor(tt.dialect))
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Title)
			assert.Equal(t, PriorityInfo, got[0].Priority)
		})
	}

	assert.Empty(t, hintSuggestions(sqltext.New("SELECT id FROM t"), dialect.PolicyFor(dialect.MySQL)))
}

func TestInsertHintBlock(t *testing.T) {
	out, hints := insertHintBlock("SELECT a.id FROM a JOIN b ON a.id = b.id")
	assert.Equal(t, []string{"USE_HASH"}, hints)
	assert.Equal(t, "SELECT /*+ USE_HASH */ a.id FROM a JOIN b ON a.id = b.id", out)

	out, hints = insertHintBlock("select dept, count(*) from emp group by dept")
	assert.Equal(t, []string{"PARALLEL(4)"}, hints)
	assert.Equal(t, "select /*+ PARALLEL(4) */ dept, count(*) from emp group by dept", out)

	sql := "SELECT /*+ FULL(a) */ * FROM a JOIN b ON a.id = b.id JOIN c ON b.id = c.id"
	out, hints = insertHintBlock(sql)
	assert.Empty(t, hints)
	assert.Equal(t, sql, out)
}
