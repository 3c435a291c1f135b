package assist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
)

func TestParseLearningMode(t *testing.T) {
	tests := []struct {
		in   string
		want LearningMode
	}{
		{"", ZeroShot},
		{"zero-shot", ZeroShot},
		{"One-Shot", OneShot},
		{" few-shot ", FewShot},
	}
	for _, tt := range tests {
		got, err := ParseLearningMode(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLearningMode("two-shot")
	assert.ErrorIs(t, err, ErrUnknownLearningMode)
}

func TestBuildOptimizationPrompt(t *testing.T) {
	pb := NewPromptBuilder()
	prompt := pb.BuildOptimizationPrompt("SELECT * FROM a, b WHERE a.id = b.aid", dialect.Oracle)

	assert.Contains(t, prompt, "for a ORACLE database")
	assert.Contains(t, prompt, "```sql\nSELECT * FROM a, b WHERE a.id = b.aid\n```")
	assert.Contains(t, prompt, "Anti-patterns detected:")
	assert.Contains(t, prompt, "comma-join")
	assert.Contains(t, prompt, `"optimized_query"`)
	assert.Contains(t, prompt, `"best_practices"`)
	assert.Contains(t, prompt, "ROWNUM")
}

func TestBuildOptimizationPrompt_CleanQuery(t *testing.T) {
	pb := NewPromptBuilder()
	prompt := pb.BuildOptimizationPrompt("SELECT id FROM t WHERE id = 1 LIMIT 1", dialect.MySQL)

	assert.NotContains(t, prompt, "Anti-patterns detected")
	assert.Contains(t, prompt, "for a MYSQL database")
}

func TestBuildNLPrompt(t *testing.T) {
	pb := NewPromptBuilder()
	targets := []dialect.Dialect{dialect.Oracle, dialect.SQLServer}
	ex := []Example{{Prompt: "all users", SQL: "SELECT * FROM users"}}

	t.Run("zero-shot", func(t *testing.T) {
		prompt, err := pb.BuildNLPrompt("top 5 products", ZeroShot, nil, targets)
		require.NoError(t, err)
		assert.Contains(t, prompt, "Natural language request: top 5 products")
		assert.Contains(t, prompt, "Oracle SQL, SQL Server SQL")
		assert.Contains(t, prompt, `"oracle":`)
		assert.Contains(t, prompt, `"sqlserver":`)
		assert.NotContains(t, prompt, `"snowflake":`)
		assert.NotContains(t, prompt, "Example")
	})

	t.Run("one-shot", func(t *testing.T) {
		prompt, err := pb.BuildNLPrompt("top 5 products", OneShot, ex, targets)
		require.NoError(t, err)
		assert.Contains(t, prompt, "Example for reference:\nNatural Language: all users\nSQL: SELECT * FROM users")
	})

	t.Run("few-shot", func(t *testing.T) {
		more := append(ex, Example{Prompt: "count orders", SQL: "SELECT COUNT(*) FROM orders"})
		prompt, err := pb.BuildNLPrompt("top 5 products", FewShot, more, targets)
		require.NoError(t, err)
		assert.Contains(t, prompt, "1. Natural Language: all users")
		assert.Contains(t, prompt, "2. Natural Language: count orders")
	})

	t.Run("examples required", func(t *testing.T) {
		_, err := pb.BuildNLPrompt("x", OneShot, nil, targets)
		assert.ErrorIs(t, err, ErrMissingExamples)
		_, err = pb.BuildNLPrompt("x", FewShot, []Example{{Prompt: "only a prompt"}}, targets)
		assert.ErrorIs(t, err, ErrMissingExamples)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := pb.BuildNLPrompt("x", LearningMode("many-shot"), ex, targets)
		assert.ErrorIs(t, err, ErrUnknownLearningMode)
	})
}
