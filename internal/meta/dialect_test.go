package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect_QuoteName(t *testing.T) {
	assert.Equal(t, "Orders", Plain.QuoteName("Orders"))
	assert.Equal(t, `"Orders"`, SQLite.QuoteName("Orders"))
	assert.Equal(t, `"sales"."Orders"`, Postgres.QuoteName("sales.Orders"))
	assert.Equal(t, "`Orders`", MySQL.QuoteName("Orders"))
	assert.Equal(t, `"a""b"`, SQLite.QuoteName(`a"b`))
}

func TestDialect_QuoteString(t *testing.T) {
	assert.Equal(t, "'Acme'", Plain.QuoteString("Acme"))
	assert.Equal(t, "'O''Brien'", SQLite.QuoteString("O'Brien"))
	assert.Equal(t, `'C:\\dir'`, MySQL.QuoteString(`C:\dir`))
	assert.Equal(t, `'C:\dir'`, Postgres.QuoteString(`C:\dir`))
	assert.Equal(t, "'\u00e9'", Plain.QuoteString("e\u0301"), "literals are NFC normalized")
}

func TestDialect_FormatOperator(t *testing.T) {
	tests := []struct {
		op   Operator
		null bool
		want string
	}{
		{Equal, false, "="},
		{Equal, true, "IS"},
		{NotEqual, false, "<>"},
		{NotEqual, true, "IS NOT"},
		{GreaterThan, false, ">"},
		{GreaterThanOrEqual, false, ">="},
		{LessThan, true, "<"},
		{LessThanOrEqual, false, "<="},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SQLite.FormatOperator(tc.op, tc.null), "%v null=%v", tc.op, tc.null)
	}
}

func TestOperator_Mirror(t *testing.T) {
	assert.Equal(t, LessThan, GreaterThan.Mirror())
	assert.Equal(t, GreaterThanOrEqual, LessThanOrEqual.Mirror())
	assert.Equal(t, Equal, Equal.Mirror())
	assert.Equal(t, NotEqual, NotEqual.Mirror())
	for op := Equal; op <= LessThanOrEqual; op++ {
		assert.Equal(t, op, op.Mirror().Mirror())
	}
}

func TestDialect_ParameterName(t *testing.T) {
	assert.Equal(t, "@status", SQLite.ParameterName("status", 1))
	assert.Equal(t, "$2", Postgres.ParameterName("status", 2))
	assert.Equal(t, ":status", MySQL.ParameterName("status", 3))
}

func TestDialect_FormatBool(t *testing.T) {
	assert.Equal(t, "1", SQLite.FormatBool(true))
	assert.Equal(t, "0", SQLite.FormatBool(false))
	assert.Equal(t, "TRUE", Postgres.FormatBool(true))
}

func TestLookupDialect(t *testing.T) {
	d, err := LookupDialect("SQLite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = LookupDialect("oracle")
	assert.ErrorContains(t, err, "unknown dialect")
	assert.Equal(t, []string{"mysql", "plain", "postgres", "sqlite"}, DialectNames())
}
