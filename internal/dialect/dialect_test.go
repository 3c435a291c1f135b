package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
	}{
		{"oracle", Oracle},
		{" ORACLE ", Oracle},
		{"postgres", PostgreSQL},
		{"mssql", SQLServer},
		{"Databricks", Databricks},
		{"teradata", Dialect("teradata")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestPolicyFor_Generic(t *testing.T) {
	p := PolicyFor(Parse("teradata"))
	assert.Equal(t, "Generic", p.Name)
	assert.Equal(t, HintNone, p.Hints)
	assert.False(t, p.SupportsWindow)
	assert.False(t, Dialect("teradata").IsKnown())

	_, ok := p.PartitionExpr("sale_date", "%Y-%m")
	assert.False(t, ok)
}

func TestPartitionExpr(t *testing.T) {
	tests := []struct {
		dialect Dialect
		format  string
		want    string
		ok      bool
	}{
		{Oracle, "%Y-%m", "TRUNC(sale_date, 'MM')", true},
		{Oracle, "%Y", "TRUNC(sale_date, 'YYYY')", true},
		{Oracle, "%H:%i", "", false},
		{Databricks, "%Y-%m", "DATE_FORMAT(sale_date, '%Y-%m')", true},
		{Snowflake, "%Y-%m", "DATE_FORMAT(sale_date, '%Y-%m')", true},
		{PostgreSQL, "%Y-%m", "DATE_FORMAT(sale_date, '%Y-%m')", true},
		{MySQL, "%Y", "DATE_FORMAT(sale_date, '%Y')", true},
		{SQLServer, "%Y-%m", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect)+" "+tt.format, func(t *testing.T) {
			got, ok := PolicyFor(tt.dialect).PartitionExpr("sale_date", tt.format)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRowLimitIdioms(t *testing.T) {
	assert.Equal(t, "SELECT * FROM orders WHERE ROWNUM <= 10", PolicyFor(Oracle).LimitClause("*", "orders", 10))
	assert.Equal(t, "SELECT TOP 10 * FROM orders", PolicyFor(SQLServer).LimitClause("*", "orders", 10))
	assert.Equal(t, "SELECT * FROM orders LIMIT 10", PolicyFor(Snowflake).LimitClause("*", "orders", 10))

	assert.True(t, PolicyFor(MySQL).SupportsLimit())
	assert.False(t, PolicyFor(Oracle).SupportsLimit())
	assert.Equal(t, "ROWNUM", PolicyFor(Oracle).RowLimit.String())
}

func TestIndexKind(t *testing.T) {
	for _, d := range []Dialect{Oracle, PostgreSQL, MySQL} {
		assert.Equal(t, "B-TREE", PolicyFor(d).IndexKind, d)
	}
	for _, d := range []Dialect{Databricks, Snowflake, SQLServer, Dialect("x")} {
		assert.Equal(t, "INDEX", PolicyFor(d).IndexKind, d)
	}
}
