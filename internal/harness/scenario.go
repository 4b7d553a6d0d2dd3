package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/querysql"
)

// Scenario defines one compilation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the query when
	// the query definition has none, and the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialect overrides the schema's dialect. Defaults to plain.
	Dialect string `yaml:"dialect,omitempty"`

	// Schema is CUE source declaring the entities.
	Schema string `yaml:"schema"`

	// Query is the definition under test.
	Query querysql.Definition `yaml:"query"`

	// Reverse flips the ordering.
	Reverse bool `yaml:"reverse,omitempty"`

	// Setup is SQL run against a fresh in-memory SQLite database before
	// the compiled statement executes. Without it the statement is only
	// compiled.
	Setup string `yaml:"setup,omitempty"`

	// Args binds the query's parameters when the statement executes.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect states what compilation must produce.
	Expect Expect `yaml:"expect"`
}

// Expect specifies expected compilation behavior.
type Expect struct {
	// Error is the expected compile error code. Excludes every other field.
	Error string `yaml:"error,omitempty"`

	// Fragment is the expected JOIN/WHERE text. Nil skips the check.
	Fragment *string `yaml:"fragment,omitempty"`

	// Rows are the expected identity values, in order. Requires Setup.
	Rows []int64 `yaml:"rows,omitempty"`
}

// errorCodes lists the codes expect.error may name.
var errorCodes = map[string]bool{
	string(querysql.ErrCodeUnsupported):       true,
	string(querysql.ErrCodeInvalidUsage):      true,
	string(querysql.ErrCodeMapping):           true,
	string(querysql.ErrCodeInvalidOperation):  true,
	string(querysql.ErrCodeInvalidExpression): true,
	ErrCodeParse:                              true,
}

// ErrCodeParse is reported for predicates that are not valid expressions.
const ErrCodeParse = "PARSE"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}

	if s.Query.Entity == "" {
		return fmt.Errorf("query.entity is required")
	}

	if s.Dialect != "" {
		if _, err := meta.LookupDialect(s.Dialect); err != nil {
			return fmt.Errorf("dialect: %w", err)
		}
	}

	if s.Expect.Error != "" {
		if !errorCodes[s.Expect.Error] {
			return fmt.Errorf("expect.error: unknown code %q", s.Expect.Error)
		}
		if s.Expect.Fragment != nil || s.Expect.Rows != nil {
			return fmt.Errorf("expect.error excludes fragment and rows")
		}
	}

	if s.Expect.Rows != nil && s.Setup == "" {
		return fmt.Errorf("expect.rows requires setup")
	}

	if s.Setup != "" {
		switch s.Dialect {
		case "", meta.Plain.Name(), meta.SQLite.Name():
		default:
			return fmt.Errorf("setup runs on SQLite; dialect %q cannot execute there", s.Dialect)
		}
	}

	return nil
}
