package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/liftsql/internal/querysql"
	"github.com/roach88/liftsql/internal/sqlcheck"
	"github.com/roach88/liftsql/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Query string // check only this query
	DB    string // SQLite database to prepare against
	DDL   string // DDL script applied before preparing
}

// CheckResult reports every compiled statement and whether the dialect's
// grammar accepted it.
type CheckResult struct {
	Dialect string         `json:"dialect"`
	Passed  int            `json:"passed"`
	Failed  int            `json:"failed"`
	Queries []QueryOutcome `json:"queries"`
}

// QueryOutcome is the check outcome for one query.
type QueryOutcome struct {
	Name      string `json:"name"`
	Statement string `json:"statement"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <schema> <queries.yaml>",
		Short: "Compile queries and validate the SQL against the dialect",
		Long: `Compile every query and validate the resulting statements.

Postgres statements are parsed with libpg_query and MySQL statements with a
MySQL grammar. SQLite and plain statements are prepared against a database,
given with --db or built in memory from a --ddl script.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "check only the named query")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database path (sqlite and plain dialects)")
	cmd.Flags().StringVar(&opts.DDL, "ddl", "", "SQL script creating the tables (sqlite and plain dialects)")

	return cmd
}

func runCheck(opts *CheckOptions, schemaPath, queriesPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	schema, dialect, defs, err := loadInputs(opts.RootOptions, schemaPath, queriesPath, opts.Query)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	compiled, errs := compileAll(schema, dialect, defs, querysql.BuildOptions{})
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	db, err := openCheckDB(opts, cmd)
	if err != nil {
		return outputCompileError(formatter, ErrCodeLoadFailed, err.Error(), nil)
	}
	if db != nil {
		defer db.Close()
	}

	checker, err := sqlcheck.ForDialect(dialect, db)
	if errors.Is(err, sqlcheck.ErrNeedsDatabase) {
		return outputCompileError(formatter, ErrCodeNotFound,
			fmt.Sprintf("dialect %s needs --db or --ddl", dialect.Name()), nil)
	}
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	result := &CheckResult{Dialect: dialect.Name()}
	for _, q := range compiled.Queries {
		outcome := QueryOutcome{Name: q.Name, Statement: q.Statement, OK: true}
		if err := checker.Check(cmd.Context(), q.Statement); err != nil {
			outcome.OK = false
			outcome.Error = err.Error()
			result.Failed++
		} else {
			result.Passed++
		}
		formatter.VerboseLog("Checked %s: ok=%t", q.Name, outcome.OK)
		result.Queries = append(result.Queries, outcome)
	}

	return outputCheckResult(formatter, result)
}

// openCheckDB opens the database named by --db and applies --ddl. With only
// --ddl the script runs against a fresh in-memory database. Returns nil when
// neither flag is set.
func openCheckDB(opts *CheckOptions, cmd *cobra.Command) (*store.Store, error) {
	if opts.DB == "" && opts.DDL == "" {
		return nil, nil
	}

	var (
		db  *store.Store
		err error
	)
	if opts.DB != "" {
		db, err = store.Open(opts.DB)
	} else {
		db, err = store.OpenMemory()
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if opts.DDL != "" {
		script, err := afero.ReadFile(opts.fs(), opts.DDL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("reading ddl: %w", err)
		}
		if err := db.Apply(cmd.Context(), string(script)); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying ddl: %w", err)
		}
	}
	return db, nil
}

// outputCheckResult reports outcomes. Any rejected statement exits 1.
func outputCheckResult(formatter *OutputFormatter, result *CheckResult) error {
	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		for _, q := range result.Queries {
			if q.OK {
				fmt.Fprintf(formatter.Writer, "✓ %s\n", q.Name)
				continue
			}
			fmt.Fprintf(formatter.Writer, "✗ %s\n  %s\n", q.Name, q.Error)
		}
		fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed (%s)\n", result.Passed, result.Failed, result.Dialect)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d statement(s) rejected", result.Failed))
	}
	return nil
}
