package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/liftsql/internal/meta"
)

// EnvPrefix prefixes environment variables that set global flags
// (LIFTSQL_FORMAT, LIFTSQL_DIALECT, LIFTSQL_VERBOSE).
const EnvPrefix = "LIFTSQL"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Dialect string // overrides the schema's dialect when set
	Config  string // optional config file (yaml, json or toml)

	// Fs is the filesystem schemas, queries, scenarios and config are read
	// from and output files are written to.
	Fs afero.Fs

	v *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the liftsql CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithFs(afero.NewOsFs())
}

// NewRootCommandWithFs creates the root command reading from fs.
func NewRootCommandWithFs(fs afero.Fs) *cobra.Command {
	opts := &RootOptions{Fs: fs, v: viper.New()}

	cmd := &cobra.Command{
		Use:   "liftsql",
		Short: "liftsql - predicate to SQL compiler",
		Long: `Compile typed predicates and orderings into SQL JOIN, WHERE and ORDER BY
clauses, moving join conditions into ON wherever that cannot change the result.

Global settings are merged from flags, LIFTSQL_* environment variables and
an optional --config file, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Dialect, "dialect", "", "SQL dialect (plain|sqlite|postgres|mysql), defaults to the schema's")
	flags.StringVar(&opts.Config, "config", "", "config file")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// load merges flags, environment and config file into opts and installs
// the process logger.
func (o *RootOptions) load(cmd *cobra.Command) error {
	v := o.v
	v.SetFs(o.Fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return WrapExitError(ExitCommandError, "binding flags", err)
	}

	if o.Config != "" {
		v.SetConfigFile(o.Config)
		if err := v.ReadInConfig(); err != nil {
			return WrapExitError(ExitCommandError, "reading config "+o.Config, err)
		}
	}

	o.Verbose = v.GetBool("verbose")
	o.Format = v.GetString("format")
	o.Dialect = v.GetString("dialect")

	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	if o.Dialect != "" {
		if _, err := meta.LookupDialect(o.Dialect); err != nil {
			return WrapExitError(ExitCommandError, "invalid dialect", err)
		}
	}

	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// fs returns the configured filesystem, defaulting to the OS.
func (o *RootOptions) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
