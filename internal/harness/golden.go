package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/liftsql/internal/ir"
)

// Snapshot renders the parts of a result that golden files pin down, as
// canonical JSON. The cache key is left out: it hashes the schema revision
// and is covered by its own determinism tests.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snap := map[string]any{
		"scenario_name": scenarioName,
	}
	if result.ErrorCode != "" {
		snap["error"] = result.ErrorCode
	}
	if c := result.Compiled; c != nil {
		args := make([]any, len(c.Arguments))
		for i, a := range c.Arguments {
			args[i] = map[string]any{
				"name":        a.Name,
				"type":        a.Type,
				"ordinal":     a.Ordinal,
				"placeholder": a.Placeholder,
			}
		}
		snap["dialect"] = c.Dialect
		snap["statement"] = c.Statement
		snap["arguments"] = args
	}
	if result.Rows != nil {
		rows := make([]any, len(result.Rows))
		for i, id := range result.Rows {
			rows[i] = id
		}
		snap["rows"] = rows
	}
	return ir.MarshalCanonical(snap)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
