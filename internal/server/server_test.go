package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
	"github.com/Abhijeetjrock/db-analyzer1/internal/assist"
	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
	"github.com/Abhijeetjrock/db-analyzer1/internal/database"
	"github.com/Abhijeetjrock/db-analyzer1/internal/llm/generate"
	"github.com/Abhijeetjrock/db-analyzer1/internal/ratelimit"
)

var testAIConfig = config.AIConfig{
	Enabled:     true,
	Provider:    config.ProviderMock,
	Timeout:     time.Second,
	MaxTokens:   2000,
	Temperature: 0.3,
}

type fakeCatalog struct {
	err      error
	describe func(table string, withRowCount bool) (*database.TableInfo, error)
}

func (f fakeCatalog) HealthCheck(context.Context) error { return f.err }

func (f fakeCatalog) DescribeTable(_ context.Context, table string, withRowCount bool) (*database.TableInfo, error) {
	if f.describe == nil {
		return nil, errors.New("not implemented")
	}
	return f.describe(table, withRowCount)
}

type options struct {
	withAI    bool
	limiter   *ratelimit.Limiter
	catalog   Catalog
	backupDir string
}

func newTestServer(t *testing.T, o options) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	var strategy analyze.Strategy
	var nl *assist.NLGenerator
	if o.withAI {
		gen := generate.NewMockGenerator("")
		strategy = assist.NewOptimizer(gen, o.limiter, testAIConfig, logger)
		nl = assist.NewNLGenerator(gen, o.limiter, testAIConfig, logger)
	} else {
		nl = assist.NewNLGenerator(nil, nil, testAIConfig, logger)
	}

	return NewServer(config.ServerConfig{Addr: ":0"}, Dependencies{
		Engine:  analyze.NewOptimizationEngine(testAIConfig, strategy, logger),
		NL:      nl,
		Limiter: o.limiter,
		Catalog: o.catalog,
		Export:  config.ExportConfig{BackupDir: o.backupDir},
		Logger:  logger,
	})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	t.Run("no catalog", func(t *testing.T) {
		rec := do(t, newTestServer(t, options{}), http.MethodGet, "/api/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "not configured", body["catalog"])
		assert.Equal(t, false, body["ai_available"])
	})

	t.Run("catalog up", func(t *testing.T) {
		rec := do(t, newTestServer(t, options{catalog: fakeCatalog{}}), http.MethodGet, "/api/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "connected", decode(t, rec)["catalog"])
	})

	t.Run("catalog down", func(t *testing.T) {
		rec := do(t, newTestServer(t, options{catalog: fakeCatalog{err: errors.New("refused")}}), http.MethodGet, "/api/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "error", decode(t, rec)["status"])
	})
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, options{})

	rec := do(t, s, http.MethodGet, "/api/info", nil)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestInfo(t *testing.T) {
	rec := do(t, newTestServer(t, options{withAI: true}), http.MethodGet, "/api/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["ai_available"])
	assert.Equal(t, "mock", body["ai_provider"])
	assert.Contains(t, body["supported_databases"], "SQL Server")
	assert.Contains(t, body["endpoints"], "nl_to_sql")
}

func TestRateLimitStatus(t *testing.T) {
	rec := do(t, newTestServer(t, options{}), http.MethodGet, "/api/rate-limit-status", nil)
	assert.Equal(t, false, decode(t, rec)["ai_available"])

	limiter := ratelimit.New(3, time.Minute)
	limiter.Allow()
	rec = do(t, newTestServer(t, options{withAI: true, limiter: limiter}), http.MethodGet, "/api/rate-limit-status", nil)
	body := decode(t, rec)
	assert.Equal(t, true, body["ai_available"])
	assert.Equal(t, "2/3 requests remaining", body["message"])
	status := body["status"].(map[string]any)
	assert.EqualValues(t, 2, status["remaining_requests"])
	assert.EqualValues(t, 60, status["time_window"])
}

func TestOptimizeQuery(t *testing.T) {
	s := newTestServer(t, options{})
	rec := do(t, s, http.MethodPost, "/api/optimize-query", map[string]any{
		"query":   "SELECT * FROM customers c, orders o WHERE c.id = o.customer_id AND c.city = 'New York'",
		"db_type": "mysql",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["ai_used"])
	assert.Equal(t, "mysql", body["dialect"])
	assert.Contains(t, body["rewritten_query"], "INNER JOIN orders o ON c.id = o.customer_id")
	assert.NotEmpty(t, body["changes"])
	assert.NotEmpty(t, body["suggestions"])
}

func TestOptimizeQuery_DefaultsAndAI(t *testing.T) {
	s := newTestServer(t, options{withAI: true})
	rec := do(t, s, http.MethodPost, "/api/optimize-query", map[string]any{
		"query": "SELECT * FROM customers c, orders o WHERE c.id = o.customer_id",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "oracle", body["dialect"])
	assert.Equal(t, true, body["ai_used"])
	assert.Equal(t, "mock", body["ai_provider"])
}

func TestOptimizeQuery_BadInput(t *testing.T) {
	s := newTestServer(t, options{})
	tests := []struct {
		name string
		body any
		want string
	}{
		{"empty query", map[string]any{"query": "   "}, "No query provided"},
		{"missing query", map[string]any{"db_type": "mysql"}, "No query provided"},
		{"malformed json", "{", "invalid request body"},
		{"long dialect", map[string]any{"query": "SELECT 1", "db_type": strings.Repeat("x", 65)}, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/optimize-query", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestExportOptimizedQuery(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, options{backupDir: dir})

	rec := do(t, s, http.MethodPost, "/api/export-optimized-query", map[string]any{
		"original_query":  "SELECT * FROM a, b WHERE a.id = b.aid",
		"rewritten_query": "SELECT * FROM a INNER JOIN b ON a.id = b.aid",
		"dialect":         "mysql",
		"changes":         []map[string]string{{"category": "comma-join→explicit-join", "description": "Converted"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="optimized_query_`)
	assert.Contains(t, rec.Body.String(), "SQL QUERY OPTIMIZATION REPORT")
	assert.Contains(t, rec.Body.String(), "INNER JOIN b")

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	saved, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, rec.Body.String(), string(saved))

	rec = do(t, s, http.MethodPost, "/api/export-optimized-query", map[string]any{"original_query": "SELECT 1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNLToSQL(t *testing.T) {
	t.Run("rule-based without provider", func(t *testing.T) {
		rec := do(t, newTestServer(t, options{}), http.MethodPost, "/api/nl-to-sql", map[string]any{
			"prompt":           "show the top 5 products",
			"target_databases": map[string]bool{"oracle": true, "mssql": true, "snowflake": false},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, false, body["ai_used"])
		assert.Equal(t, "zero-shot", body["learning_mode"])
		assert.Equal(t, map[string]any{
			"oracle":    "SELECT * FROM products WHERE ROWNUM <= 5",
			"sqlserver": "SELECT TOP 5 * FROM products",
		}, body["generated_sql"])
	})

	t.Run("mock provider with legacy fields", func(t *testing.T) {
		rec := do(t, newTestServer(t, options{withAI: true}), http.MethodPost, "/api/nl-to-sql", map[string]any{
			"nl_prompt":      "first ten employees",
			"learning_mode":  "one-shot",
			"example_prompt": "all users",
			"example_sql":    "SELECT * FROM users",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, true, body["ai_used"])
		assert.Len(t, body["generated_sql"], 3)
	})
}

func TestNLToSQL_Errors(t *testing.T) {
	exhausted := ratelimit.New(1, time.Hour)
	exhausted.Allow()

	tests := []struct {
		name   string
		opts   options
		body   map[string]any
		status int
	}{
		{"empty prompt", options{}, map[string]any{"prompt": ""}, http.StatusBadRequest},
		{"injection", options{}, map[string]any{"prompt": "1' OR '1'='1"}, http.StatusBadRequest},
		{"no targets", options{}, map[string]any{"prompt": "count orders", "target_databases": map[string]bool{"oracle": false}}, http.StatusBadRequest},
		{"unknown target", options{}, map[string]any{"prompt": "count orders", "target_databases": map[string]bool{"teradata": true}}, http.StatusBadRequest},
		{"bad mode", options{}, map[string]any{"prompt": "count orders", "learning_mode": "two-shot"}, http.StatusBadRequest},
		{"missing example", options{}, map[string]any{"prompt": "count orders", "learning_mode": "few-shot"}, http.StatusBadRequest},
		{"ai required", options{}, map[string]any{"prompt": "count orders", "require_ai": true}, http.StatusBadRequest},
		{"rate limited", options{withAI: true, limiter: exhausted}, map[string]any{"prompt": "count orders", "require_ai": true}, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(t, tt.opts), http.MethodPost, "/api/nl-to-sql", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, false, decode(t, rec)["success"])
		})
	}
}

func TestExportNLToSQL(t *testing.T) {
	s := newTestServer(t, options{})
	rec := do(t, s, http.MethodPost, "/api/export-nl-to-sql", map[string]any{
		"prompt":        "count orders",
		"generated_sql": map[string]string{"oracle": "SELECT COUNT(*) FROM orders"},
		"learning_mode": "zero-shot",
		"ai_used":       false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "nl_to_sql_")
	assert.Contains(t, rec.Body.String(), "ORACLE SQL")
	assert.Contains(t, rec.Body.String(), "count orders")

	rec = do(t, s, http.MethodPost, "/api/export-nl-to-sql", map[string]any{"prompt": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeTable(t *testing.T) {
	var gotRowCount bool
	catalog := fakeCatalog{describe: func(table string, withRowCount bool) (*database.TableInfo, error) {
		gotRowCount = withRowCount
		switch table {
		case "orders":
			n := int64(42)
			return &database.TableInfo{
				Dialect:    "mysql",
				Name:       "orders",
				Columns:    []database.Column{{Name: "id", Type: "int", Nullable: false}},
				PrimaryKey: []string{"id"},
				Indexes:    []database.Index{{Name: "PRIMARY", Columns: []string{"id"}, Unique: true}},
				RowCount:   &n,
			}, nil
		case "missing":
			return nil, fmt.Errorf("%w: missing", database.ErrTableNotFound)
		case "bad name":
			return nil, fmt.Errorf("%w: %q", database.ErrInvalidTableName, table)
		}
		return nil, errors.New("connection reset")
	}}
	s := newTestServer(t, options{catalog: catalog})

	rec := do(t, s, http.MethodPost, "/api/analyze", map[string]any{"table_name": "orders", "include_row_count": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	table := body["table"].(map[string]any)
	assert.Equal(t, "orders", table["name"])
	assert.Equal(t, []any{"id"}, table["primary_key"])
	assert.EqualValues(t, 42, table["row_count"])
	assert.True(t, gotRowCount)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"not found", map[string]any{"table_name": "missing"}, http.StatusNotFound},
		{"invalid name", map[string]any{"table_name": "bad name"}, http.StatusBadRequest},
		{"missing name", map[string]any{}, http.StatusBadRequest},
		{"catalog failure", map[string]any{"table_name": "other"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, decode(t, rec)["success"])
		})
	}
}

func TestAnalyzeTable_NoCatalog(t *testing.T) {
	rec := do(t, newTestServer(t, options{}), http.MethodPost, "/api/analyze", map[string]any{"table_name": "orders"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "no catalog")
}
