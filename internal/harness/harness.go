package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/queryir"
	"github.com/roach88/liftsql/internal/querysql"
	"github.com/roach88/liftsql/internal/store"
)

// Run executes a scenario and returns the result.
//
// Each scenario with setup SQL runs in a fresh in-memory database for
// isolation. An error is returned only when the scenario itself cannot be
// executed (bad schema, failing setup SQL); unmet expectations are reported
// in Result.Errors.
//
// Execution flow:
// 1. Compile the inline schema
// 2. Build the query definition
// 3. Check the expected error or fragment
// 4. Run setup SQL and the compiled statement, check rows
func Run(scenario *Scenario) (*Result, error) {
	schema, err := meta.CompileSchema([]byte(scenario.Schema), scenario.Name+".cue")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	dialect, err := scenarioDialect(scenario, schema)
	if err != nil {
		return nil, err
	}

	def := scenario.Query
	if def.Name == "" {
		def.Name = scenario.Name
	}

	result := NewResult()
	compiled, err := querysql.Build(schema, dialect, def, querysql.BuildOptions{Reverse: scenario.Reverse})
	if err != nil {
		result.ErrorCode = ErrorCode(err)
		checkError(scenario, result, err)
		return result, nil
	}
	result.Compiled = compiled

	if scenario.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected %s error, query compiled to:\n%s",
			scenario.Expect.Error, compiled.Statement))
	}
	if want := scenario.Expect.Fragment; want != nil && *want != compiled.Fragment {
		result.AddError(fmt.Sprintf("fragment mismatch:\nwant: %q\ngot:  %q", *want, compiled.Fragment))
	}

	if scenario.Setup == "" {
		return result, nil
	}
	if err := execute(scenario, schema, compiled, result); err != nil {
		return nil, err
	}
	return result, nil
}

func scenarioDialect(s *Scenario, schema *meta.Schema) (meta.Dialect, error) {
	name := s.Dialect
	if name == "" {
		name = schema.Dialect()
	}
	if name == "" {
		return meta.Plain, nil
	}
	d, err := meta.LookupDialect(name)
	if err != nil {
		return nil, err
	}
	if s.Setup != "" && d != meta.Plain && d != meta.SQLite {
		return nil, fmt.Errorf("setup runs on SQLite; dialect %q cannot execute there", name)
	}
	return d, nil
}

// ErrorCode classifies a Build failure: a querysql code, PARSE for a
// predicate that does not parse, otherwise ERROR.
func ErrorCode(err error) string {
	if code := querysql.Code(err); code != "" {
		return string(code)
	}
	var pe *queryir.ParseError
	if errors.As(err, &pe) {
		return ErrCodeParse
	}
	return "ERROR"
}

func checkError(s *Scenario, r *Result, err error) {
	switch {
	case s.Expect.Error == "":
		r.AddError(fmt.Sprintf("unexpected error: %v", err))
	case s.Expect.Error != r.ErrorCode:
		r.AddError(fmt.Sprintf("expected %s error, got %s: %v", s.Expect.Error, r.ErrorCode, err))
	}
}

// execute runs the setup SQL and the compiled statement, collecting the
// first identity column of every row.
func execute(s *Scenario, schema *meta.Schema, compiled *querysql.Compiled, r *Result) error {
	entity, _ := schema.Entity(s.Query.Entity)
	key := entity.Identity()[0].Name

	st, err := store.OpenMemory()
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Apply(ctx, s.Setup); err != nil {
		return fmt.Errorf("failed to run setup: %w", err)
	}

	rows, err := st.SelectInts(ctx, compiled.Statement, s.Args, key)
	if err != nil {
		r.AddError(fmt.Sprintf("statement failed: %v", err))
		return nil
	}
	r.Rows = rows

	slog.Debug("scenario executed",
		"scenario", s.Name,
		"rows", len(rows))

	if s.Expect.Rows != nil && !slices.Equal(s.Expect.Rows, rows) {
		r.AddError(fmt.Sprintf("rows mismatch: want %v, got %v", s.Expect.Rows, rows))
	}
	return nil
}
