package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
	"github.com/Abhijeetjrock/db-analyzer1/internal/assist"
	"github.com/Abhijeetjrock/db-analyzer1/internal/database"
	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
)

const defaultDialect = "oracle"

// defaultNLTargets are used when a request names no target databases
var defaultNLTargets = []dialect.Dialect{dialect.Oracle, dialect.Databricks, dialect.Snowflake}

// healthCheck endpoint for monitoring
func (s *Server) healthCheck(c *gin.Context) {
	catalog := "not configured"
	if s.deps.Catalog != nil {
		if err := s.deps.Catalog.HealthCheck(c.Request.Context()); err != nil {
			s.logger.Warn("Catalog health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"error":  "database connection failed",
			})
			return
		}
		catalog = "connected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"service":      serviceName,
		"version":      Version,
		"ai_available": s.deps.Engine.AIAvailable(),
		"ai_provider":  s.deps.Engine.AIProvider(),
		"catalog":      catalog,
	})
}

func (s *Server) info(c *gin.Context) {
	supported := make([]string, len(dialect.Known))
	for i, d := range dialect.Known {
		supported[i] = dialect.PolicyFor(d).Name
	}

	c.JSON(http.StatusOK, gin.H{
		"name":                serviceName,
		"description":         "Multi-dialect SQL rewriting and optimization engine",
		"version":             Version,
		"supported_databases": supported,
		"ai_available":        s.deps.Engine.AIAvailable(),
		"ai_provider":         s.deps.Engine.AIProvider(),
		"endpoints": gin.H{
			"health":                 "/api/health",
			"info":                   "/api/info",
			"rate_limit_status":      "/api/rate-limit-status",
			"optimize_query":         "/api/optimize-query (POST)",
			"export_optimized_query": "/api/export-optimized-query (POST)",
			"nl_to_sql":              "/api/nl-to-sql (POST)",
			"export_nl_to_sql":       "/api/export-nl-to-sql (POST)",
			"analyze":                "/api/analyze (POST)",
		},
	})
}

func (s *Server) rateLimitStatus(c *gin.Context) {
	if !s.deps.Engine.AIAvailable() || s.deps.Limiter == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"ai_available": false,
			"message":      "AI not configured",
		})
		return
	}

	status := s.deps.Limiter.Status()
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"ai_available": true,
		"provider":     s.deps.Engine.AIProvider(),
		"status":       status,
		"message":      fmt.Sprintf("%d/%d requests remaining", status.Remaining, status.Max),
	})
}

type analyzeRequest struct {
	TableName       string `json:"table_name" binding:"required,max=128"`
	IncludeRowCount bool   `json:"include_row_count"`
}

// analyzeTable describes one table of the catalog database
func (s *Server) analyzeTable(c *gin.Context) {
	if s.deps.Catalog == nil {
		respondError(c, http.StatusServiceUnavailable, database.ErrNoCatalog.Error())
		return
	}

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	info, err := s.deps.Catalog.DescribeTable(c.Request.Context(), req.TableName, req.IncludeRowCount)
	switch {
	case errors.Is(err, database.ErrInvalidTableName):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, database.ErrTableNotFound):
		respondError(c, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Error("Table analysis failed", zap.String("table", req.TableName), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to analyze table")
		return
	}

	s.logger.Info("Table analyzed",
		zap.String("table", info.Name),
		zap.Int("columns", len(info.Columns)),
		zap.Int("indexes", len(info.Indexes)))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"table":   info,
	})
}

type optimizeRequest struct {
	Query   string            `json:"query"`
	DBType  string            `json:"db_type" binding:"omitempty,max=64"`
	Options analyze.OptionSet `json:"options"`
	UseAI   *bool             `json:"use_ai"`
}

type optimizeResponse struct {
	Success     bool   `json:"success"`
	AIAvailable bool   `json:"ai_available"`
	AIProvider  string `json:"ai_provider,omitempty"`
	*analyze.OptimizationResult
}

func (s *Server) optimizeQuery(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.DBType == "" {
		req.DBType = defaultDialect
	}

	res, err := s.deps.Engine.Optimize(c.Request.Context(), analyze.Request{
		Query:   req.Query,
		Dialect: req.DBType,
		Options: req.Options,
		UseAI:   req.UseAI == nil || *req.UseAI,
	})
	if err != nil {
		if errors.Is(err, analyze.ErrEmptyQuery) {
			respondError(c, http.StatusBadRequest, "No query provided")
			return
		}
		s.logger.Error("Optimization failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("Query optimized",
		zap.String("dialect", res.Dialect),
		zap.Int("changes", res.ChangeCount),
		zap.Bool("ai_used", res.AIUsed))

	c.JSON(http.StatusOK, optimizeResponse{
		Success:            true,
		AIAvailable:        s.deps.Engine.AIAvailable(),
		AIProvider:         s.deps.Engine.AIProvider(),
		OptimizationResult: res,
	})
}

type exportOptimizedRequest struct {
	analyze.OptimizationResult
	AIProvider string `json:"ai_provider"`
}

func (s *Server) exportOptimizedQuery(c *gin.Context) {
	var req exportOptimizedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.RewrittenQuery) == "" {
		respondError(c, http.StatusBadRequest, "No optimized query provided")
		return
	}

	meta := analyze.NewReportMeta(req.AIProvider)
	s.sendReport(c, meta.Filename("optimized_query"), analyze.FormatReport(&req.OptimizationResult, meta))
}

type nlRequest struct {
	Prompt          string           `json:"prompt"`
	NLPrompt        string           `json:"nl_prompt"`
	LearningMode    string           `json:"learning_mode" binding:"omitempty,oneof=zero-shot one-shot few-shot"`
	ExamplePrompt   string           `json:"example_prompt"`
	ExampleSQL      string           `json:"example_sql"`
	Examples        []assist.Example `json:"examples"`
	TargetDatabases map[string]bool  `json:"target_databases" binding:"omitempty,dive,keys,sqldialect,endkeys"`
	UseAI           *bool            `json:"use_ai"`
	RequireAI       bool             `json:"require_ai"`
}

func (r nlRequest) prompt() string {
	if r.Prompt != "" {
		return r.Prompt
	}
	return r.NLPrompt
}

func (r nlRequest) targets() []dialect.Dialect {
	if r.TargetDatabases == nil {
		return defaultNLTargets
	}
	var out []dialect.Dialect
	for _, d := range dialect.Known {
		for name, on := range r.TargetDatabases {
			if on && dialect.Parse(name) == d {
				out = append(out, d)
			}
		}
	}
	return out
}

func (r nlRequest) examples() []assist.Example {
	examples := r.Examples
	if r.ExamplePrompt != "" || r.ExampleSQL != "" {
		examples = append([]assist.Example{{Prompt: r.ExamplePrompt, SQL: r.ExampleSQL}}, examples...)
	}
	return examples
}

func (s *Server) nlToSQL(c *gin.Context) {
	var req nlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	mode, err := assist.ParseLearningMode(req.LearningMode)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.deps.NL.Generate(c.Request.Context(), assist.NLRequest{
		Prompt:    req.prompt(),
		Mode:      mode,
		Examples:  req.examples(),
		Targets:   req.targets(),
		UseAI:     req.UseAI == nil || *req.UseAI,
		RequireAI: req.RequireAI,
	})
	if err != nil {
		status := nlErrorStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("NL to SQL failed", zap.Error(err))
		}
		respondError(c, status, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"generated_sql": res.GeneratedSQL,
		"explanation":   res.Explanation,
		"learning_mode": res.LearningMode,
		"ai_used":       res.AIUsed,
		"ai_provider":   res.Provider,
		"notice":        res.Notice,
	})
}

func nlErrorStatus(err error) int {
	switch {
	case errors.Is(err, assist.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, assist.ErrEmptyPrompt),
		errors.Is(err, assist.ErrInvalidPrompt),
		errors.Is(err, assist.ErrNoTargets),
		errors.Is(err, assist.ErrMissingExamples),
		errors.Is(err, assist.ErrUnknownLearningMode),
		errors.Is(err, assist.ErrAIUnavailable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type exportNLRequest struct {
	assist.NLResult
	Prompt   string `json:"prompt"`
	NLPrompt string `json:"nl_prompt"`
}

func (s *Server) exportNLToSQL(c *gin.Context) {
	var req exportNLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.GeneratedSQL) == 0 {
		respondError(c, http.StatusBadRequest, "No generated SQL provided")
		return
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = req.NLPrompt
	}

	meta := analyze.NewReportMeta(req.Provider)
	s.sendReport(c, meta.Filename("nl_to_sql"), assist.FormatNLReport(&req.NLResult, prompt, meta))
}

// sendReport returns content as a text attachment and keeps a copy in the
// backup directory when one is configured
func (s *Server) sendReport(c *gin.Context, filename, content string) {
	if dir := s.deps.Export.BackupDir; dir != "" {
		if err := writeBackup(dir, filename, content); err != nil {
			s.logger.Warn("Failed to save report backup", zap.String("dir", dir), zap.Error(err))
		} else {
			s.logger.Info("Report saved", zap.String("path", filepath.Join(dir, filename)))
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

func writeBackup(dir, filename, content string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644)
}
