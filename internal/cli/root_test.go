package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "liftsql", cmd.Use)
	assert.Contains(t, cmd.Long, "JOIN")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "check", "validate", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dialectFlag := cmd.PersistentFlags().Lookup("dialect")
	require.NotNil(t, dialectFlag)
	assert.Equal(t, "", dialectFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	queryFlag := compileCmd.Flags().Lookup("query")
	require.NotNil(t, queryFlag)
	assert.Equal(t, "q", queryFlag.Shorthand)

	reverseFlag := compileCmd.Flags().Lookup("reverse")
	require.NotNil(t, reverseFlag)
	assert.Equal(t, "false", reverseFlag.DefValue)
}

func TestCheckCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	checkCmd, _, err := cmd.Find([]string{"check"})
	require.NoError(t, err)

	dbFlag := checkCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)

	require.NotNil(t, checkCmd.Flags().Lookup("ddl"))
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, err := execute(t, shopFs(t), "--format", "invalid", "validate", "/shop/schema.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestDialectValidationIntegration(t *testing.T) {
	_, err := execute(t, shopFs(t), "--dialect", "oracle", "validate", "/shop/schema.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid dialect")
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("LIFTSQL_FORMAT", "json")
	t.Setenv("LIFTSQL_DIALECT", "postgres")

	out, err := execute(t, shopFs(t), "compile", "/shop/schema.cue", "/shop/queries.yaml", "-q", "acme_orders")
	require.NoError(t, err)

	resp := decodeCompile(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "postgres", resp.Data.Dialect)
}

func TestFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("LIFTSQL_FORMAT", "json")

	out, err := execute(t, shopFs(t), "--format", "text", "validate", "/shop/schema.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Schema valid")
}

func TestConfigFile(t *testing.T) {
	fsys := shopFs(t)
	writeFile(t, fsys, "/etc/liftsql.yaml", "format: json\ndialect: mysql\n")

	out, err := execute(t, fsys, "--config", "/etc/liftsql.yaml", "compile", "/shop/schema.cue", "/shop/queries.yaml", "-q", "acme_orders")
	require.NoError(t, err)

	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "mysql", resp.Data.Dialect)
	require.Len(t, resp.Data.Queries, 1)
	assert.Contains(t, resp.Data.Queries[0].Statement, "JOIN `Customers` AS `c`")
}

func TestConfigFileMissing(t *testing.T) {
	_, err := execute(t, shopFs(t), "--config", "/etc/missing.yaml", "validate", "/shop/schema.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "reading config")
}
