package analyze

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
	"github.com/Abhijeetjrock/db-analyzer1/internal/sqltext"
)

func TestRecommendIndexes(t *testing.T) {
	sql := "SELECT * FROM orders o JOIN customers c ON o.customer_id = c.id WHERE o.status = 'open'"
	recs := recommendIndexes(sqltext.New(sql), dialect.PolicyFor(dialect.MySQL))
	require.Len(t, recs, 3)

	assert.Equal(t, IndexRecommendation{
		Table:     "orders",
		Columns:   "status",
		Kind:      "B-TREE",
		Rationale: "Column used in WHERE clause for filtering",
		DDL:       "CREATE INDEX idx_orders_status ON orders(status)",
	}, recs[0])
	assert.Equal(t, "orders", recs[1].Table)
	assert.Equal(t, "customer_id", recs[1].Columns)
	assert.Equal(t, "customers", recs[2].Table)
	assert.Equal(t, "id", recs[2].Columns)
}

func TestRecommendIndexes_QualifiedTableAndUnresolvedAlias(t *testing.T) {
	sql := "SELECT * FROM sales.orders o WHERE o.Region = 'EU' AND x.flag = 1"
	recs := recommendIndexes(sqltext.New(sql), dialect.PolicyFor(dialect.Snowflake))
	require.Len(t, recs, 2)
	assert.Equal(t, "CREATE INDEX idx_sales_orders_region ON sales.orders(Region)", recs[0].DDL)
	assert.Equal(t, "INDEX", recs[0].Kind)
	assert.Equal(t, "x", recs[1].Table)
}

func TestRecommendIndexes_DedupAndCap(t *testing.T) {
	var preds []string
	for i := 1; i <= 8; i++ {
		preds = append(preds, fmt.Sprintf("t.c%d = %d", i, i))
	}
	preds = append(preds, "T.C1 = 9")
	sql := "SELECT * FROM big t WHERE " + strings.Join(preds, " AND ")

	recs := recommendIndexes(sqltext.New(sql), dialect.PolicyFor(dialect.Oracle))
	require.Len(t, recs, MaxIndexRecommendations)
	for i, rec := range recs {
		assert.Equal(t, "big", rec.Table)
		assert.Equal(t, fmt.Sprintf("c%d", i+1), rec.Columns)
	}
}
