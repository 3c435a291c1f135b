package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Abhijeetjrock/db-analyzer1/internal/analyze"
	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
)

func resetSampleFlags(t *testing.T) {
	t.Helper()
	sampleType, sampleFile, sampleDialect, sampleCount = "all", "", "", 0
	t.Cleanup(func() {
		sampleType, sampleFile, sampleDialect, sampleCount = "all", "", "", 0
	})
}

func TestSelectSamples(t *testing.T) {
	resetSampleFlags(t)

	all, err := selectSamples()
	require.NoError(t, err)
	assert.Len(t, all, len(builtinSamples))

	sampleType = "comma-join"
	joins, err := selectSamples()
	require.NoError(t, err)
	require.NotEmpty(t, joins)
	for _, s := range joins {
		assert.Equal(t, "comma-join", s.Type)
	}

	sampleType = "all"
	sampleDialect = "snowflake"
	sampleCount = 2
	limited, err := selectSamples()
	require.NoError(t, err)
	require.Len(t, limited, 2)
	for _, s := range limited {
		assert.Equal(t, "snowflake", s.Dialect)
	}
	// overriding the dialect must not touch the built-in catalog
	assert.NotEqual(t, "snowflake", builtinSamples[0].Dialect)

	sampleType = "bogus"
	sampleDialect, sampleCount = "", 0
	_, err = selectSamples()
	assert.ErrorContains(t, err, "unknown sample type")
}

func TestLoadSampleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`queries:
  - name: wide-scan
    dialect: mysql
    query: SELECT * FROM orders
  - query: SELECT id FROM a, b WHERE a.id = b.a_id
`), 0o644))

	samples, err := loadSampleFile(path)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "wide-scan", samples[0].Name)
	assert.Equal(t, "mysql", samples[0].Dialect)
	assert.Equal(t, "query-2", samples[1].Name)
	assert.Equal(t, "oracle", samples[1].Dialect)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("queries: []\n"), 0o644))
	_, err = loadSampleFile(empty)
	assert.ErrorContains(t, err, "has no queries")

	_, err = loadSampleFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read batch file")
}

func TestReplaySamples(t *testing.T) {
	engine := analyze.NewOptimizationEngine(config.AIConfig{}, nil, zap.NewNop())

	var out bytes.Buffer
	err := replaySamples(context.Background(), &out, engine, builtinSamples[:4], false)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, out.String(), "four-table-comma-join (oracle)")

	out.Reset()
	err = replaySamples(context.Background(), &out, engine, []Sample{
		{Name: "blank", Dialect: "mysql", Query: "   "},
		builtinSamples[0],
	}, false)
	assert.EqualError(t, err, "1 of 2 samples failed")
	assert.Contains(t, out.String(), "❌ #1 blank")
}

func TestDisabledOptions(t *testing.T) {
	opts, err := disabledOptions([]string{"hints", " indexes ", ""})
	require.NoError(t, err)
	assert.False(t, opts.Enabled(analyze.CategoryHints))
	assert.False(t, opts.Enabled(analyze.CategoryIndexes))
	assert.True(t, opts.Enabled(analyze.CategoryJoins))

	_, err = disabledOptions([]string{"everything"})
	assert.ErrorContains(t, err, `unknown category "everything"`)
}

func TestReadQuery(t *testing.T) {
	t.Cleanup(func() { optQuery, optFile = "", "" })

	optQuery = "SELECT 1"
	q, err := readQuery(strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", q)

	optQuery = ""
	path := filepath.Join(t.TempDir(), "q.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT 2"), 0o644))
	optFile = path
	q, err = readQuery(nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", q)

	optFile = ""
	q, err = readQuery(strings.NewReader("SELECT 3"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 3", q)
}

func TestEngineWithoutGenerator(t *testing.T) {
	rt := &runtime{cfg: &config.Config{}, logger: zap.NewNop()}
	engine := rt.engine(nil, nil)
	assert.False(t, engine.AIAvailable())
	assert.Empty(t, engine.AIProvider())
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "y", pluralize(1))
	assert.Equal(t, "ies", pluralize(3))
}
