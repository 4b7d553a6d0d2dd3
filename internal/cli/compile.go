package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/liftsql/internal/harness"
	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Query   string // compile only this query
	Reverse bool   // flip every ordering direction
	Output  string // output file path
}

// CompilationResult holds the compiled queries.
type CompilationResult struct {
	Dialect string               `json:"dialect"`
	Queries []*querysql.Compiled `json:"queries"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema> <queries.yaml>",
		Short: "Compile query definitions to SQL",
		Long: `Compile YAML query definitions against a CUE schema.

Each query's predicate becomes JOIN ... ON and WHERE clauses, with join
conditions moved into ON where that cannot change the result. The full
SELECT statement and its bound arguments are printed.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "compile only the named query")
	cmd.Flags().BoolVar(&opts.Reverse, "reverse", false, "reverse every ordering (backward paging)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, schemaPath, queriesPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	schema, dialect, defs, err := loadInputs(opts.RootOptions, schemaPath, queriesPath, opts.Query)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Compiling %d query(ies) for dialect %s", len(defs), dialect.Name())

	result, errs := compileAll(schema, dialect, defs, querysql.BuildOptions{Reverse: opts.Reverse})
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	if opts.Output != "" {
		if err := writeResultToFile(opts.fs(), result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// loadInputs loads the schema and query file and resolves the dialect.
func loadInputs(opts *RootOptions, schemaPath, queriesPath, only string) (*meta.Schema, meta.Dialect, []querysql.Definition, error) {
	fsys := opts.fs()
	schema, err := LoadSchema(fsys, schemaPath)
	if err != nil {
		return nil, nil, nil, err
	}
	dialect, err := ResolveDialect(opts.Dialect, schema)
	if err != nil {
		return nil, nil, nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
	}
	defs, err := LoadQueries(fsys, queriesPath)
	if err != nil {
		return nil, nil, nil, err
	}
	defs, err = SelectQueries(defs, only)
	if err != nil {
		return nil, nil, nil, err
	}
	return schema, dialect, defs, nil
}

// compileAll builds every definition, collecting all failures.
func compileAll(schema *meta.Schema, dialect meta.Dialect, defs []querysql.Definition, bo querysql.BuildOptions) (*CompilationResult, []error) {
	result := &CompilationResult{Dialect: dialect.Name()}
	var errs []error
	for _, def := range defs {
		compiled, err := querysql.Build(schema, dialect, def, bo)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result.Queries = append(result.Queries, compiled)
	}
	return result, errs
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d query(ies) for %s\n\n", len(result.Queries), result.Dialect)

	for _, q := range result.Queries {
		fmt.Fprintf(formatter.Writer, "-- %s\n%s\n", q.Name, q.Statement)
		if len(q.Arguments) > 0 {
			fmt.Fprintln(formatter.Writer)
			writeArguments(formatter.Writer, q.Arguments)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote compiled queries to %s\n", outputFile)
	}

	return nil
}

// writeArguments renders bound arguments as a table.
func writeArguments(w io.Writer, args []querysql.Argument) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"#", "Name", "Type", "Placeholder"})
	for _, a := range args {
		table.Append([]string{strconv.Itoa(a.Ordinal), a.Name, a.Type, a.Placeholder})
	}
	table.Render()
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputLoadError reports a failure to load the schema or queries.
// Schema validation failures are reported one per code.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var verrs meta.ValidationErrors
	if errors.As(err, &verrs) {
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = v
		}
		return outputCompileErrors(formatter, errs)
	}
	code, message := parseCompileError(err)
	return outputCompileError(formatter, code, message, nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		// JSON format - use CLIResponse with first error
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{
				Code:    code,
				Message: message,
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Compilation errors are command-level errors (exit code 2)
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var verr meta.ValidationError
	if errors.As(err, &verr) {
		return verr.Code, verr.Field + ": " + verr.Message
	}
	if code := harness.ErrorCode(err); code != "ERROR" {
		return code, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// writeResultToFile writes the compilation result as indented JSON.
func writeResultToFile(fsys afero.Fs, result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := afero.WriteFile(fsys, filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
