package assist

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/corazawaf/libinjection-go"
	"go.uber.org/zap"

	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/llm"
	"github.com/Abhijeetjrock/db-analyzer1/internal/ratelimit"
	"github.com/Abhijeetjrock/db-analyzer1/internal/types"
)

var (
	ErrEmptyPrompt = errors.New("no natural language prompt provided")
	// ErrInvalidPrompt is returned for prompts that look like SQL injection payloads
	ErrInvalidPrompt = errors.New("prompt rejected: looks like a SQL injection payload")
	ErrNoTargets     = errors.New("select at least one target database")
	// ErrAIUnavailable is returned when AI is required but no provider is configured
	ErrAIUnavailable = errors.New("AI model is not configured")
)

const nlMaxTokens = 1500

// NLRequest asks for SQL matching a natural-language description
type NLRequest struct {
	Prompt   string
	Mode     LearningMode
	Examples []Example
	Targets  []dialect.Dialect
	UseAI    bool
	// RequireAI turns AI failures into errors instead of falling back to templates
	RequireAI bool
}

// NLResult is the generated SQL per target dialect
type NLResult struct {
	GeneratedSQL map[string]string `json:"generated_sql"`
	Explanation  string            `json:"explanation"`
	LearningMode LearningMode      `json:"learning_mode"`
	AIUsed       bool              `json:"ai_used"`
	Provider     string            `json:"ai_provider"`
	Notice       string            `json:"notice,omitempty"`
}

// NLGenerator turns natural-language requests into SQL, through the AI
// provider when possible and simple templates otherwise
type NLGenerator struct {
	generator types.Generator
	limiter   *ratelimit.Limiter
	prompts   *PromptBuilder
	opts      types.GenerationOptions
	logger    *zap.Logger
}

// NewNLGenerator builds a generator. generator and limiter may be nil.
func NewNLGenerator(generator types.Generator, limiter *ratelimit.Limiter, cfg config.AIConfig, logger *zap.Logger) *NLGenerator {
	return &NLGenerator{
		generator: generator,
		limiter:   limiter,
		prompts:   NewPromptBuilder(),
		opts: types.GenerationOptions{
			System:      NLSystemPrompt,
			MaxTokens:   nlMaxTokens,
			Temperature: cfg.Temperature,
		},
		logger: logger.Named("nl-to-sql"),
	}
}

// AIAvailable reports whether a provider is wired in
func (g *NLGenerator) AIAvailable() bool { return g.generator != nil }

// Generate validates req and produces SQL for every target
func (g *NLGenerator) Generate(ctx context.Context, req NLRequest) (*NLResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if injected, fingerprint := libinjection.IsSQLi(prompt); injected {
		g.logger.Warn("Rejected NL prompt", zap.String("fingerprint", fingerprint))
		return nil, ErrInvalidPrompt
	}
	targets := uniqueTargets(req.Targets)
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	mode := req.Mode
	if mode == "" {
		mode = ZeroShot
	}
	// Build the prompt up front so a missing example fails on both paths
	aiPrompt, err := g.prompts.BuildNLPrompt(prompt, mode, req.Examples, targets)
	if err != nil {
		return nil, err
	}

	result := &NLResult{LearningMode: mode, Provider: "rule-based"}

	if req.UseAI {
		switch {
		case g.generator == nil:
			if req.RequireAI {
				return nil, ErrAIUnavailable
			}
			result.Notice = "AI model not configured; generated with rule-based templates"
		default:
			sql, explanation, err := g.generateWithAI(ctx, aiPrompt, targets)
			if err == nil {
				result.GeneratedSQL = sql
				result.Explanation = explanation
				result.AIUsed = true
				result.Provider = g.generator.Provider()
				return result, nil
			}
			if req.RequireAI {
				return nil, err
			}
			result.Notice = userMessage(err) + " Generated with rule-based templates instead."
			g.logger.Warn("NL to SQL AI path failed, using templates", zap.Error(err))
		}
	}

	result.GeneratedSQL = GenerateRuleBased(prompt, targets)
	result.Explanation = "Generated with rule-based templates. Review table names, columns and conditions before use."
	return result, nil
}

func (g *NLGenerator) generateWithAI(ctx context.Context, prompt string, targets []dialect.Dialect) (map[string]string, string, error) {
	if err := checkLimit(g.limiter); err != nil {
		return nil, "", err
	}

	g.logger.Info("Generating SQL from natural language",
		zap.String("provider", g.generator.Provider()),
		zap.Int("targets", len(targets)))

	raw, err := g.generator.Complete(ctx, prompt, g.opts)
	if err != nil {
		return nil, "", llm.ClassifyError(err)
	}

	generated := map[string]string{}
	explanation := "SQL generated from natural language"

	parsed, err := ParseJSONResponse[map[string]any](raw)
	if err != nil {
		g.logger.Warn("AI response is not JSON, extracting SQL from text", zap.Error(err))
		if sql := extractSQLFromText(raw); sql != "" {
			for _, d := range targets {
				generated[d.String()] = sql
			}
		}
	} else {
		for _, d := range targets {
			if s, ok := parsed[d.String()].(string); ok && strings.TrimSpace(s) != "" {
				generated[d.String()] = cleanSQL(s)
			}
		}
		if s, ok := parsed["explanation"].(string); ok && s != "" {
			explanation = s
		}
	}

	if len(generated) == 0 {
		return nil, "", fmt.Errorf("AI response held no SQL for %d target(s)", len(targets))
	}
	return generated, explanation, nil
}

var sqlStatementPattern = regexp.MustCompile(`(?is)\b(?:SELECT|WITH|INSERT|UPDATE|DELETE)\b.*?(?:;|$)`)

func extractSQLFromText(text string) string {
	text = strings.ReplaceAll(text, "```sql", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(sqlStatementPattern.FindString(text))
}

func uniqueTargets(in []dialect.Dialect) []dialect.Dialect {
	seen := map[dialect.Dialect]bool{}
	var out []dialect.Dialect
	for _, d := range in {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func userMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}

var (
	topNPattern    = regexp.MustCompile(`\b(?:top|first|limit)\s+(\d+)\b`)
	allRowsPattern = regexp.MustCompile(`\b(?:get|select|show|list|fetch)\s+all\b`)
	countPattern   = regexp.MustCompile(`\b(?:count|how many|number of)\b`)
	filterPattern  = regexp.MustCompile(`\b(?:where|having)\b`)

	tablePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bfrom\s+(?:the\s+)?(\w+)`),
		regexp.MustCompile(`\b(\w+)\s+table\b`),
		regexp.MustCompile(`\b(?:top|first|limit)\s+\d+\s+(\w+)`),
		regexp.MustCompile(`\b(?:how many|number of|count(?: of)?)\s+(?:the\s+)?(\w+)`),
		regexp.MustCompile(`\ball\s+(?:the\s+)?(\w+)`),
		regexp.MustCompile(`\bin\s+(?:the\s+)?(\w+)`),
	}

	notTables = map[string]bool{
		"the": true, "a": true, "an": true, "all": true, "my": true, "our": true,
		"rows": true, "records": true, "each": true, "every": true, "of": true,
	}
)

const placeholderTable = "table_name"

// GenerateRuleBased covers simple requests without a provider: all rows,
// a row count, or the first N rows, using each dialect's row-limit idiom
func GenerateRuleBased(prompt string, targets []dialect.Dialect) map[string]string {
	lower := strings.ToLower(prompt)
	table := inferTable(lower)
	out := make(map[string]string, len(targets))

	if m := topNPattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			for _, d := range targets {
				out[d.String()] = dialect.PolicyFor(d).LimitClause("*", table, n)
			}
			return out
		}
	}

	var sql string
	switch {
	case countPattern.MatchString(lower):
		sql = fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	case allRowsPattern.MatchString(lower):
		sql = fmt.Sprintf("SELECT * FROM %s", table)
	case filterPattern.MatchString(lower):
		sql = fmt.Sprintf("SELECT * FROM %s WHERE condition = 'value'", table)
	default:
		oneLine := strings.Join(strings.Fields(prompt), " ")
		sql = fmt.Sprintf("-- Requirement: %s\nSELECT * FROM %s WHERE condition = 'value'", oneLine, table)
	}
	for _, d := range targets {
		out[d.String()] = sql
	}
	return out
}

func inferTable(lower string) string {
	for _, p := range tablePatterns {
		for _, m := range p.FindAllStringSubmatch(lower, -1) {
			if name := m[1]; !notTables[name] && !isNumber(name) {
				return name
			}
		}
	}
	return placeholderTable
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
