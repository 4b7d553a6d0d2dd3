package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runValidateCmd(t *testing.T, fsys afero.Fs, format string, path string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format, Fs: fsys}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidSchema(t *testing.T) {
	out, err := runValidateCmd(t, shopFs(t), "text", "/shop/schema.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Schema valid: 3 entit(ies)")
}

func TestValidateValidSchemaJSON(t *testing.T) {
	out, err := runValidateCmd(t, shopFs(t), "json", "/shop/schema.cue")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.ElementsMatch(t, []string{"Region", "Customer", "Order"}, resp.Data.Entities)
}

func TestValidateNonExistentSchema(t *testing.T) {
	out, err := runValidateCmd(t, afero.NewMemMapFs(), "text", "/nope.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateEmptyDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/schema", 0o755))

	out, err := runValidateCmd(t, fsys, "text", "/schema")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}

func TestValidateInvalidSchema(t *testing.T) {
	tests := []struct {
		name      string
		schema    string
		wantCodes []string
	}{
		{
			name: "no_identity_and_unknown_reference",
			schema: `entity: Order: columns: {
	Status:     {type: "string"}
	CustomerId: {type: "int", references: "Customer.Id"}
}
`,
			wantCodes: []string{"E102", "E104"},
		},
		{
			name:      "cue_syntax_error",
			schema:    "entity: Order: columns: {\n",
			wantCodes: []string{ErrCodeBuildFailed},
		},
		{
			name:      "unknown_dialect",
			schema:    "dialect: \"oracle\"\nentity: Order: columns: Id: {type: \"int\", identity: true}\n",
			wantCodes: []string{ErrCodeBuildFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			writeFile(t, fsys, "/schema.cue", tt.schema)

			out, err := runValidateCmd(t, fsys, "json", "/schema.cue")
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp struct {
				Status string           `json:"status"`
				Data   ValidationResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.False(t, resp.Data.Valid)

			var codes []string
			for _, e := range resp.Data.Errors {
				codes = append(codes, e.Code)
			}
			assert.ElementsMatch(t, tt.wantCodes, codes)
		})
	}
}

func TestValidateInvalidSchemaText(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/schema.cue", "entity: Order: columns: {Status: {type: \"string\"}}\n")

	out, err := runValidateCmd(t, fsys, "text", "/schema.cue")
	require.Error(t, err)
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E102")
}

func TestValidateSchemaDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/schema/a.cue", "entity: Region: columns: Id: {type: \"int\", identity: true}\n")
	writeFile(t, fsys, "/schema/b.cue", `entity: Customer: columns: {
	Id:       {type: "int", identity: true}
	RegionId: {type: "int", references: "Region.Id"}
}
`)
	writeFile(t, fsys, "/schema/README.md", "not cue")

	out, err := runValidateCmd(t, fsys, "text", "/schema")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Schema valid: 2 entit(ies)")
}
