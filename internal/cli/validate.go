package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/liftsql/internal/meta"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Entities []string               `json:"entities,omitempty"`
	Errors   []meta.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Validate a schema without compiling queries",
		Long: `Validate a CUE schema file or directory.

Checks CUE syntax, entity and column definitions, navigation targets and
foreign key references. Every problem is reported, not only the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	schema, errs, err := ValidateSchema(opts.fs(), schemaPath)
	if err != nil {
		code, message := parseCompileError(err)
		return outputValidateError(formatter, code, message, nil)
	}
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	names := make([]string, 0, len(schema.Entities()))
	for _, e := range schema.Entities() {
		formatter.VerboseLog("Validated entity: %s (table %s)", e.Name, e.Table)
		names = append(names, e.Name)
	}
	return outputValidateSuccess(formatter, names)
}

// ValidateSchema loads the schema at path and returns its validation
// errors. Schema source errors (bad CUE, wrong field types) are reported as
// validation errors with code E006; a missing path is returned as err.
func ValidateSchema(fsys afero.Fs, path string) (*meta.Schema, []meta.ValidationError, error) {
	schema, err := LoadSchema(fsys, path)
	if err == nil {
		return schema, nil, nil
	}

	var verrs meta.ValidationErrors
	if errors.As(err, &verrs) {
		return nil, verrs, nil
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) && loadErr.Code == ErrCodeBuildFailed {
		field := "schema"
		if loadErr.Pos.IsValid() {
			field = fmt.Sprintf("%s:%d", loadErr.Pos.Filename(), loadErr.Pos.Line())
		}
		return nil, []meta.ValidationError{{Field: field, Message: loadErr.Message, Code: loadErr.Code}}, nil
	}
	return nil, nil, err
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, entities []string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Entities: entities})
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema valid: %d entit(ies)\n", len(entities))
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []meta.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
