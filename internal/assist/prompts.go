package assist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
)

// LearningMode controls how many worked examples go into an NL→SQL prompt
type LearningMode string

const (
	ZeroShot LearningMode = "zero-shot"
	OneShot  LearningMode = "one-shot"
	FewShot  LearningMode = "few-shot"
)

var (
	// ErrMissingExamples is returned for one-shot and few-shot requests without an example
	ErrMissingExamples = errors.New("learning mode requires an example prompt and example SQL")
	// ErrUnknownLearningMode is returned for a mode other than zero-shot, one-shot or few-shot
	ErrUnknownLearningMode = errors.New("unknown learning mode")
)

// ParseLearningMode accepts the mode names used by the API. Empty means zero-shot.
func ParseLearningMode(s string) (LearningMode, error) {
	switch m := LearningMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ZeroShot, nil
	case ZeroShot, OneShot, FewShot:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLearningMode, s)
	}
}

// Example is a worked natural-language → SQL pair
type Example struct {
	Prompt string `json:"prompt" yaml:"prompt"`
	SQL    string `json:"sql" yaml:"sql"`
}

func (e Example) complete() bool {
	return strings.TrimSpace(e.Prompt) != "" && strings.TrimSpace(e.SQL) != ""
}

// NLSystemPrompt frames every NL→SQL request
const NLSystemPrompt = `You are an expert SQL developer. Generate SQL queries from natural language descriptions.
Convert user requirements into correct, optimized SQL for each requested database platform.
Generate syntactically correct SQL that follows the conventions of each platform.
Return SQL code only inside the JSON values, with no explanations in the SQL itself.`

// PromptBuilder creates the prompts sent to the AI provider
type PromptBuilder struct {
	analyzer *analyze.QueryAnalyzer
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{analyzer: analyze.NewQueryAnalyzer()}
}

// BuildOptimizationPrompt asks for an optimized query as a JSON object,
// noting the anti-patterns the rule engine already sees
func (pb *PromptBuilder) BuildOptimizationPrompt(query string, d dialect.Dialect) string {
	policy := dialect.PolicyFor(d)
	detection := pb.analyzer.Detect(policy.Query(query), policy)

	var prompt strings.Builder

	fmt.Fprintf(&prompt, "Analyze and optimize the following SQL query for a %s database.\n\n", strings.ToUpper(d.String()))

	prompt.WriteString("Original Query:\n```sql\n")
	prompt.WriteString(query)
	prompt.WriteString("\n```\n\n")

	if kinds := detection.Kinds(); len(kinds) > 0 {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		fmt.Fprintf(&prompt, "Anti-patterns detected: %s\n\n", strings.Join(names, ", "))
	}

	prompt.WriteString("Please provide:\n")
	prompt.WriteString("1. An optimized version of the query\n")
	prompt.WriteString("2. Detailed explanation of all optimizations made\n")
	prompt.WriteString("3. Performance improvement estimation\n")
	prompt.WriteString("4. Index recommendations if applicable\n")
	prompt.WriteString("5. Best practices applied\n\n")

	prompt.WriteString("Format your response as JSON with these fields:\n")
	prompt.WriteString(`{
    "optimized_query": "the optimized SQL query",
    "explanation": "detailed explanation of changes",
    "improvements": ["list of improvements made"],
    "performance_gain": "estimated performance improvement percentage",
    "index_recommendations": ["list of index recommendations"],
    "best_practices": ["list of best practices applied"]
}`)
	prompt.WriteString("\n\n")

	prompt.WriteString("DIALECT NOTES:\n")
	switch policy.Dialect {
	case dialect.Oracle:
		prompt.WriteString("- Optimizer hints use the /*+ ... */ block right after SELECT\n")
		prompt.WriteString("- Rows are limited with ROWNUM or FETCH FIRST n ROWS ONLY\n")
		prompt.WriteString("- Dates are truncated with TRUNC(col, 'MM')\n")
	case dialect.Databricks:
		prompt.WriteString("- Spark SQL syntax; BROADCAST hints suit small lookup tables\n")
		prompt.WriteString("- Prefer predicates that allow partition pruning\n")
	case dialect.Snowflake:
		prompt.WriteString("- Snowflake has no secondary indexes; clustering keys play that role\n")
		prompt.WriteString("- Rows are limited with LIMIT\n")
	case dialect.SQLServer:
		prompt.WriteString("- Rows are limited with TOP n\n")
		prompt.WriteString("- Do not add WITH (NOLOCK) without saying so\n")
	case dialect.PostgreSQL, dialect.MySQL:
		prompt.WriteString("- Rows are limited with LIMIT\n")
		prompt.WriteString("- B-tree indexes are the default index type\n")
	default:
		prompt.WriteString("- Use portable ANSI SQL\n")
	}
	prompt.WriteString("\nImportant: Ensure the optimized query is syntactically correct and runnable.")

	return prompt.String()
}

// BuildNLPrompt asks for one SQL statement per target dialect plus an
// explanation, as a JSON object keyed by dialect name
func (pb *PromptBuilder) BuildNLPrompt(request string, mode LearningMode, examples []Example, targets []dialect.Dialect) (string, error) {
	var usable []Example
	for _, ex := range examples {
		if ex.complete() {
			usable = append(usable, ex)
		}
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Natural language request: %s\n\n", strings.TrimSpace(request))

	switch mode {
	case ZeroShot:
	case OneShot:
		if len(usable) == 0 {
			return "", ErrMissingExamples
		}
		ex := usable[0]
		prompt.WriteString("Example for reference:\n")
		fmt.Fprintf(&prompt, "Natural Language: %s\nSQL: %s\n\n", ex.Prompt, ex.SQL)
	case FewShot:
		if len(usable) == 0 {
			return "", ErrMissingExamples
		}
		prompt.WriteString("Examples for reference:\n")
		for i, ex := range usable {
			fmt.Fprintf(&prompt, "%d. Natural Language: %s\n   SQL: %s\n", i+1, ex.Prompt, ex.SQL)
		}
		prompt.WriteString("\n")
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLearningMode, mode)
	}

	names := make([]string, len(targets))
	for i, d := range targets {
		names[i] = dialect.PolicyFor(d).Name + " SQL"
	}
	fmt.Fprintf(&prompt, "Generate SQL for these database platforms:\n%s\n\n", strings.Join(names, ", "))

	prompt.WriteString("Provide the response in JSON format like this:\n{\n")
	for _, d := range targets {
		fmt.Fprintf(&prompt, "    %q: \"SELECT ... (%s-specific SQL)\",\n", d.String(), dialect.PolicyFor(d).Name)
	}
	prompt.WriteString("    \"explanation\": \"Brief explanation of the query logic\"\n}\n\n")
	prompt.WriteString("Generate only for the requested databases.")

	return prompt.String(), nil
}
