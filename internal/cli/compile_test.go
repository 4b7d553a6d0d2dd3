package cli

import (
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type compileResponse struct {
	Status string            `json:"status"`
	Data   CompilationResult `json:"data"`
}

// errorResponse ignores Data, which holds every error when there are several.
type errorResponse struct {
	Status string    `json:"status"`
	Error  *CLIError `json:"error"`
}

func decodeCompile(t *testing.T, out string) compileResponse {
	t.Helper()
	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func TestCompile_Text(t *testing.T) {
	out, err := execute(t, shopFs(t), "compile", "/shop/schema.cue", "/shop/queries.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 2 query(ies) for plain")
	assert.Contains(t, out, "-- acme_orders\n"+acmeStatement)
	assert.Contains(t, out, "-- north_open")
	assert.Contains(t, out, "WHERE self.Status = @status")
	assert.Contains(t, out, "ORDER BY self.Id DESC")
	// argument table
	assert.Contains(t, out, "Placeholder")
	assert.Contains(t, out, "@status")
}

func TestCompile_JSON(t *testing.T) {
	out, err := execute(t, shopFs(t), "--format", "json", "compile", "/shop/schema.cue", "/shop/queries.yaml")
	require.NoError(t, err)

	resp := decodeCompile(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "plain", resp.Data.Dialect)
	require.Len(t, resp.Data.Queries, 2)

	acme := resp.Data.Queries[0]
	assert.Equal(t, "acme_orders", acme.Name)
	assert.Equal(t, acmeStatement, acme.Statement)
	assert.Empty(t, acme.Arguments)

	north := resp.Data.Queries[1]
	assert.Equal(t, "north_open", north.Name)
	assert.Equal(t, "JOIN Customers AS t1\n"+
		"\tON self.CustomerId = t1.Id\n"+
		"JOIN Regions AS t2\n"+
		"\tON t1.RegionId = t2.Id AND t2.Name = 'North'\n"+
		"WHERE self.Status = @status", north.Fragment)
	require.Len(t, north.Arguments, 1)
	assert.Equal(t, "status", north.Arguments[0].Name)
	assert.NotEqual(t, acme.Key, north.Key)
}

func TestCompile_DialectFlag(t *testing.T) {
	out, err := execute(t, shopFs(t), "--format", "json", "--dialect", "postgres",
		"compile", "/shop/schema.cue", "/shop/queries.yaml", "--query", "north_open")
	require.NoError(t, err)

	resp := decodeCompile(t, out)
	assert.Equal(t, "postgres", resp.Data.Dialect)
	require.Len(t, resp.Data.Queries, 1)
	q := resp.Data.Queries[0]
	assert.Contains(t, q.Statement, `WHERE "self"."Status" = $1`)
	require.Len(t, q.Arguments, 1)
	assert.Equal(t, "$1", q.Arguments[0].Placeholder)
}

func TestCompile_Reverse(t *testing.T) {
	out, err := execute(t, shopFs(t), "--format", "json",
		"compile", "/shop/schema.cue", "/shop/queries.yaml", "-q", "north_open", "--reverse")
	require.NoError(t, err)

	resp := decodeCompile(t, out)
	require.Len(t, resp.Data.Queries, 1)
	assert.Equal(t, "ORDER BY self.Id ASC", resp.Data.Queries[0].OrderBy)
}

func TestCompile_OutputToFile(t *testing.T) {
	fsys := shopFs(t)
	out, err := execute(t, fsys, "compile", "/shop/schema.cue", "/shop/queries.yaml", "-o", "/out/compiled.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote compiled queries to /out/compiled.json")

	data, err := afero.ReadFile(fsys, "/out/compiled.json")
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "plain", result.Dialect)
	assert.Len(t, result.Queries, 2)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		queries  string
		schema   string
		args     []string
		wantCode string
	}{
		{
			name:     "missing_schema",
			args:     []string{"/nope.cue", "/shop/queries.yaml"},
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "missing_queries",
			args:     []string{"/shop/schema.cue", "/nope.yaml"},
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "unknown_query",
			args:     []string{"/shop/schema.cue", "/shop/queries.yaml", "--query", "nope"},
			wantCode: ErrCodeBadQuery,
		},
		{
			name:     "unknown_member",
			queries:  "queries:\n  - {name: bad, entity: Order, where: self.Missing == 1}\n",
			wantCode: "MAPPING",
		},
		{
			name:     "unconstrained_join",
			queries:  "queries:\n  - name: bad\n    entity: Order\n    joins: [{name: c, entity: Customer}]\n",
			wantCode: "INVALID_EXPRESSION",
		},
		{
			name:     "unsupported_expression",
			queries:  "queries:\n  - {name: bad, entity: Order, where: '!(self.Id == 1)'}\n",
			wantCode: "UNSUPPORTED_EXPRESSION",
		},
		{
			name:     "unknown_field",
			queries:  "queries:\n  - {name: bad, entity: Order, filter: x}\n",
			wantCode: ErrCodeLoadFailed,
		},
		{
			name:     "no_identity",
			schema:   "entity: Order: columns: {Status: {type: \"string\"}}\n",
			wantCode: "E102",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := shopFs(t)
			if tt.queries != "" {
				writeFile(t, fsys, "/shop/queries.yaml", tt.queries)
			}
			if tt.schema != "" {
				writeFile(t, fsys, "/shop/schema.cue", tt.schema)
			}
			args := tt.args
			if args == nil {
				args = []string{"/shop/schema.cue", "/shop/queries.yaml"}
			}

			out, err := execute(t, fsys, append([]string{"--format", "json", "compile"}, args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp errorResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestCompile_ReportsEveryFailingQuery(t *testing.T) {
	fsys := shopFs(t)
	writeFile(t, fsys, "/shop/queries.yaml", `queries:
  - {name: one, entity: Order, where: self.Missing == 1}
  - {name: two, entity: Order, where: self.Id == 1}
  - {name: three, entity: Order, where: self.Other == 1}
`)

	out, err := execute(t, fsys, "compile", "/shop/schema.cue", "/shop/queries.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "query one")
	assert.Contains(t, out, "query three")
	assert.NotContains(t, out, "query two")
	assert.Contains(t, err.Error(), "2 error(s)")
}

func TestCompile_SchemaDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/schema/region.cue", `entity: Region: columns: {
	Id:   {type: "int", identity: true}
	Name: {type: "string"}
}
`)
	writeFile(t, fsys, "/schema/customer.cue", `dialect: "mysql"
entity: Customer: columns: {
	Id:       {type: "int", identity: true}
	RegionId: {type: "int", references: "Region.Id"}
	Region:   {type: "Region", via: "RegionId"}
}
`)
	writeFile(t, fsys, "/queries.yaml", "queries:\n  - {name: north, entity: Customer, where: self.Region.Name == \"North\"}\n")

	out, err := execute(t, fsys, "--format", "json", "compile", "/schema", "/queries.yaml")
	require.NoError(t, err)

	resp := decodeCompile(t, out)
	assert.Equal(t, "mysql", resp.Data.Dialect)
	require.Len(t, resp.Data.Queries, 1)
	assert.Contains(t, resp.Data.Queries[0].Statement, "JOIN `Regions` AS `t1`")
}
