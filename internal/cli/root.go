// Package cli implements the tally command-line interface: it serves the
// REST API and acts as a terminal list view over it.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/internal/paths"
	"github.com/mesh-intelligence/tally/pkg/logger"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	serverURL string
	logLevel  string
	jsonMode  bool
}

// app is the state shared by one command invocation.
type app struct {
	flags    rootFlags
	settings *Settings
	log      logger.Logger
	stderr   io.Writer
}

// NewRootCmd creates the top-level "tally" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: logger.Discard(), stderr: os.Stderr}

	root := &cobra.Command{
		Use:   "tally",
		Short: "Business records over REST",
		Long: "Tally stores employees, salaries, invoices, offices, branches, vendors\n" +
			"and job postings, serves them over REST, and browses them from the terminal.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (env "+paths.EnvDataDir+")")
	pf.StringVar(&a.flags.serverURL, "server", "", "API server URL (default from config server_url)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newServeCmd(),
		a.newListCmd(),
		a.newGetCmd(),
		a.newCreateCmd(),
		a.newUpdateCmd(),
		a.newDeleteCmd(),
		a.newRmCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
	)
	return root
}

// setup loads settings and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return err
	}
	if a.flags.serverURL != "" {
		s.ServerURL = a.flags.serverURL
	}
	if a.flags.logLevel != "" {
		s.LogLevel = a.flags.logLevel
	}
	a.settings = s
	a.log = logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(s.LogLevel),
		Output:     a.stderr,
		JSON:       s.LogJSON,
		TimeFormat: "15:04:05",
	})
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), a.log))
	return nil
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error {
	return &exitError{code: exitUserError, err: err}
}

func userErrorf(format string, args ...any) error {
	return userError(fmt.Errorf(format, args...))
}

// userSentinels are failures caused by the caller's input.
var userSentinels = []error{
	types.ErrValidation,
	types.ErrNotFound,
	types.ErrConflict,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidFilter,
	types.ErrInvalidSort,
	types.ErrTableNotFound,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrDSNRequired,
}

// exitCode maps an error returned by a command onto a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	for _, s := range userSentinels {
		if errors.Is(err, s) {
			return exitUserError
		}
	}
	return exitSysError
}

// exactArgs is cobra.ExactArgs reporting a user error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return userError(err)
		}
		return nil
	}
}

// resourceArg checks that args[0] names a resource.
func resourceArg(args []string) (string, error) {
	if len(args) == 0 || !types.IsResource(args[0]) {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return "", userErrorf("unknown resource %q (valid: %s)", name, resourceList())
	}
	return args[0], nil
}
