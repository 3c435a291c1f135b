package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/sqltext"
)

// AIResult is a successful answer from an AI strategy
type AIResult struct {
	OptimizedQuery       string   `json:"optimized_query"`
	Explanation          string   `json:"explanation"`
	Improvements         []string `json:"improvements"`
	PerformanceGain      string   `json:"performance_gain"`
	IndexRecommendations []string `json:"index_recommendations"`
	BestPractices        []string `json:"best_practices"`
}

// Strategy is an optional AI optimizer consulted before the rule-based path.
// Any error makes the engine fall back to its own rules.
type Strategy interface {
	Optimize(ctx context.Context, query string, d dialect.Dialect) (*AIResult, error)
	Provider() string
}

// Request is one optimize call
type Request struct {
	Query   string
	Dialect string
	Options OptionSet
	UseAI   bool
}

// OptimizationEngine sequences the AI strategy, rewrites, advisories,
// index recommendations and scoring
type OptimizationEngine struct {
	analyzer *QueryAnalyzer
	advisor  *Advisor
	strategy Strategy
	aiConfig config.AIConfig
	logger   *zap.Logger
}

// NewOptimizationEngine builds an engine. strategy may be nil when no AI
// provider is configured.
func NewOptimizationEngine(aiConfig config.AIConfig, strategy Strategy, logger *zap.Logger) *OptimizationEngine {
	analyzer := NewQueryAnalyzer()
	return &OptimizationEngine{
		analyzer: analyzer,
		advisor:  NewAdvisor(analyzer),
		strategy: strategy,
		aiConfig: aiConfig,
		logger:   logger.Named("optimizer"),
	}
}

// AIAvailable reports whether an AI strategy is wired in
func (oe *OptimizationEngine) AIAvailable() bool { return oe.strategy != nil }

// AIProvider names the configured AI provider, or "" without one
func (oe *OptimizationEngine) AIProvider() string {
	if oe.strategy == nil {
		return ""
	}
	return oe.strategy.Provider()
}

// pipeline is the per-request working state
type pipeline struct {
	original  *sqltext.Query
	current   string
	policy    dialect.Policy
	opts      OptionSet
	rewritten map[PatternKind]bool

	changes     []Change
	suggestions []Suggestion
	aiIndexes   []IndexRecommendation
	indexes     []IndexRecommendation
	aiUsed      bool
	steps       []StepResult
}

func (p *pipeline) record(res StepResult) { p.steps = append(p.steps, res) }

// Optimize rewrites and analyzes req.Query. The only error is ErrEmptyQuery;
// a failing step is skipped and reported in the result's Steps.
func (oe *OptimizationEngine) Optimize(ctx context.Context, req Request) (*OptimizationResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	d := dialect.Parse(req.Dialect)
	policy := dialect.PolicyFor(d)

	p := &pipeline{
		original:  policy.Query(query),
		current:   query,
		policy:    policy,
		opts:      req.Options,
		rewritten: map[PatternKind]bool{},
	}

	// Step 1: AI strategy, if asked for
	if req.UseAI {
		p.record(runStep("ai-strategy", func() StepResult { return oe.tryAI(ctx, p, d) }))
	}

	// Step 2: rule-based rewrites unless the AI answer was taken
	if !p.aiUsed {
		if p.opts.Enabled(CategoryJoins) {
			p.record(runStep("comma-join", func() StepResult { return oe.commaJoinStep(p) }))
		}
		if p.opts.Enabled(CategoryHints) {
			p.record(runStep("optimizer-hints", func() StepResult { return oe.hintStep(p) }))
		}
		if p.opts.Enabled(CategorySubqueries) {
			p.record(runStep("correlated-subquery", func() StepResult { return oe.correlatedStep(p) }))
			p.record(runStep("in-subquery", func() StepResult { return oe.inSubqueryStep(p) }))
		}
	}

	// Step 3: advisories
	if p.opts.Enabled(CategoryHints) {
		p.record(runStep("hint-advice", func() StepResult {
			advice := hintSuggestions(p.policy.Query(p.current), p.policy)
			p.suggestions = append(p.suggestions, advice...)
			return stepOK(fmt.Sprintf("%d hint suggestion(s)", len(advice)))
		}))
	}
	p.record(runStep("advisories", func() StepResult {
		advice := oe.advisor.Advise(p.original, p.policy, p.opts, p.rewritten)
		p.suggestions = append(p.suggestions, advice...)
		return stepOK(fmt.Sprintf("%d suggestion(s)", len(advice)))
	}))

	// Step 4: index recommendations from the query as written
	if p.opts.Enabled(CategoryIndexes) {
		p.record(runStep("index-recommendations", func() StepResult {
			recs := recommendIndexes(p.original, p.policy)
			p.indexes = recs
			return stepOK(fmt.Sprintf("%d recommendation(s)", len(recs)))
		}))
	}

	result := &OptimizationResult{
		OriginalQuery:        query,
		RewrittenQuery:       p.current,
		Dialect:              d.String(),
		Changes:              nonNil(p.changes),
		Suggestions:          nonNil(p.suggestions),
		IndexRecommendations: nonNil(append(p.aiIndexes, p.indexes...)),
		AIUsed:               p.aiUsed,
		Steps:                p.steps,
	}

	// Step 5: scoring
	result.ChangeCount = len(result.Changes)
	result.Complexity = ClassifyComplexity(ComplexityScore(p.original)).String()
	result.ImprovementEstimate = EstimateImprovement(len(result.Changes), result.Suggestions, result.Changed())

	for _, step := range p.steps {
		if step.Status == StepSkipped {
			oe.logger.Warn("Optimization step skipped",
				zap.String("step", step.Step),
				zap.String("reason", step.Reason))
		}
	}
	oe.logger.Debug("Query optimized",
		zap.String("dialect", result.Dialect),
		zap.Int("changes", result.ChangeCount),
		zap.Int("suggestions", len(result.Suggestions)),
		zap.Bool("ai_used", result.AIUsed))

	return result, nil
}

func (oe *OptimizationEngine) tryAI(ctx context.Context, p *pipeline, d dialect.Dialect) StepResult {
	if oe.strategy == nil {
		p.suggestions = append(p.suggestions, Suggestion{
			Priority:    PriorityInfo,
			Title:       "AI Model Not Configured",
			Description: "Configure an AI provider and API key to enable AI-powered optimization. Using rule-based optimization instead.",
			Example:     "export CROSSDB_AI_API_KEY=\"your-api-key-here\"",
		})
		return stepSkipped("no AI strategy configured")
	}

	if oe.aiConfig.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, oe.aiConfig.Timeout)
		defer cancel()
	}

	out, err := oe.strategy.Optimize(ctx, p.original.Text(), d)
	if err != nil {
		oe.logger.Warn("AI optimization failed, using rule-based optimization",
			zap.String("provider", oe.strategy.Provider()),
			zap.Error(err))
		p.suggestions = append(p.suggestions, Suggestion{
			Priority:    PriorityInfo,
			Title:       "AI Optimization Unavailable",
			Description: userMessage(err),
			Example:     "Using rule-based optimization instead",
		})
		return stepSkipped("AI strategy failed: %v", err)
	}

	if q := strings.TrimSpace(out.OptimizedQuery); q != "" {
		p.current = q
	}
	for _, improvement := range out.Improvements {
		p.changes = append(p.changes, Change{
			Category:    ChangeAIOptimization,
			Description: improvement,
			Rationale:   "Recommended by the AI optimizer",
		})
	}
	if out.Explanation != "" {
		example := "See optimized query above"
		if out.PerformanceGain != "" {
			example = "Estimated gain: " + out.PerformanceGain
		}
		p.suggestions = append(p.suggestions, Suggestion{
			Priority:    PriorityHigh,
			Title:       "AI Analysis",
			Description: out.Explanation,
			Example:     example,
		})
	}
	for _, practice := range out.BestPractices {
		p.suggestions = append(p.suggestions, Suggestion{
			Priority:    PriorityInfo,
			Title:       "Best Practice",
			Description: practice,
			Example:     "Applied in optimized query",
		})
	}
	for _, rec := range out.IndexRecommendations {
		p.aiIndexes = append(p.aiIndexes, IndexRecommendation{
			Table:     "AI-suggested",
			Columns:   "See recommendation",
			Kind:      "AI",
			Rationale: rec,
			DDL:       rec,
		})
	}
	p.aiUsed = true
	return stepOK("AI answer used by " + oe.strategy.Provider())
}

func (oe *OptimizationEngine) commaJoinStep(p *pipeline) StepResult {
	q := p.policy.Query(p.current)
	matches := oe.analyzer.DetectKind(q, p.policy, PatternCommaJoin)
	if len(matches) == 0 {
		return stepOK("no comma join")
	}
	m := matches[0]
	if !m.Complete {
		return stepSkipped("comma join not rewritten: %s", m.Detail)
	}

	out, change := rewriteCommaJoin(q, m.Capture.(*CommaJoinCapture))
	p.current = out
	p.changes = append(p.changes, change)
	p.rewritten[PatternCommaJoin] = true
	return stepOK("comma join rewritten")
}

func (oe *OptimizationEngine) hintStep(p *pipeline) StepResult {
	if p.policy.Hints != dialect.HintBlock {
		return stepOK("dialect has no hint block")
	}
	out, hints := insertHintBlock(p.current)
	if len(hints) == 0 {
		return stepOK("no hints apply")
	}

	joined := strings.Join(hints, " ")
	p.current = out
	p.changes = append(p.changes, Change{
		Category:    ChangeOracleHints,
		Description: "Added Oracle Hints: " + joined,
		Rationale:   "Query optimizer will use the suggested execution strategy",
	})
	return stepOK("inserted " + joined)
}

func (oe *OptimizationEngine) correlatedStep(p *pipeline) StepResult {
	matches := oe.analyzer.DetectKind(p.policy.Query(p.current), p.policy, PatternCorrelatedAvg)
	if len(matches) == 0 {
		return stepOK("no correlated aggregate")
	}
	m := matches[0]
	if !m.Complete {
		return stepSkipped("correlated subquery not rewritten: %s", m.Detail)
	}

	out, change, ok := rewriteCorrelatedAvg(m.Capture.(*CorrelatedAvgCapture), p.policy)
	if !ok {
		return stepSkipped("dialect %q has no window-function date truncation", p.policy.Dialect)
	}
	p.current = out
	p.changes = append(p.changes, change)
	p.rewritten[PatternCorrelatedAvg] = true
	return stepOK("correlated subquery rewritten")
}

func (oe *OptimizationEngine) inSubqueryStep(p *pipeline) StepResult {
	out, rewritten, remaining := rewriteInSubqueries(p.current, p.policy)
	if rewritten == 0 {
		if remaining > 0 {
			return stepSkipped("%d IN subquery(s) could not be captured", remaining)
		}
		return stepOK("no IN subquery")
	}

	p.current = out
	p.changes = append(p.changes, Change{
		Category:    ChangeInToExists,
		Description: "Converted IN subquery to EXISTS",
		Rationale:   "EXISTS can stop at the first matching row, often faster than IN",
	})
	if remaining == 0 {
		p.rewritten[PatternInSubquery] = true
	}
	return stepOK(fmt.Sprintf("%d IN subquery(s) rewritten", rewritten))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// userMessage prefers the short text a classified error carries for display
func userMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
