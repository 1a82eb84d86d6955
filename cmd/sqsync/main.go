package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sqtriage/sqsync/internal/config"
	"github.com/sqtriage/sqsync/internal/debug"
	"github.com/sqtriage/sqsync/internal/telemetry"
	"github.com/sqtriage/sqsync/internal/ui"
)

// app holds the flag-bound state of one invocation.
type app struct {
	configPath string
	jsonOutput bool
	report     bool
	verbose    bool
	quiet      bool
	noInput    bool
	assumeYes  bool

	stdout io.Writer
	stderr io.Writer

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc

	settings *config.Settings
	logger   *slog.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.DiscardHandler),
	}
}

func (a *app) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqsync",
		Short: "sqsync - SonarQube issue housekeeping",
		Long: `Copies manual FALSE-POSITIVE/WONTFIX resolutions between SonarQube projects
and assigns open issues to the users who authored them.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Handle --version flag on root command
			if v, _ := cmd.Flags().GetBool("version"); v {
				_, _ = fmt.Fprintf(a.stdout, "sqsync version %s (%s)\n", Version, Build)
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.setupSignalContext()
			a.applyVerbosityFlags()
			a.applyColorPolicy()

			if cmd.Name() == "version" || cmd == cmd.Root() {
				return nil
			}

			if err := a.loadSettings(cmd); err != nil {
				return err
			}
			a.setupLogger()
			return a.initTelemetry()
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default: sqsync.yaml in ., $XDG_CONFIG_HOME/sqsync, ~/.config/sqsync)")
	pf.BoolVar(&a.jsonOutput, "json", false, "Output the run result in JSON format")
	pf.BoolVar(&a.report, "report", false, "Print a markdown report of every action")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose/debug output")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "Suppress non-essential output (errors only)")
	pf.BoolVar(&a.noInput, "no-input", false, "Never prompt (password, confirmation)")
	pf.BoolVarP(&a.assumeYes, "yes", "y", false, "Do not ask for confirmation before writing")
	registerConfigFlags(pf)

	// Add --version flag to root command (same behavior as version subcommand)
	rootCmd.Flags().BoolP("version", "V", false, "Print version information")

	rootCmd.AddGroup(&cobra.Group{ID: "workflows", Title: "Workflows:"})
	rootCmd.AddCommand(
		a.copyResolutionCommand(),
		a.autoAssignCommand(),
		a.runCommand(),
		a.versionCommand(),
	)
	return rootCmd
}

func (a *app) setupSignalContext() {
	if a.rootCtx != nil {
		return
	}
	a.rootCtx, a.rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (a *app) applyVerbosityFlags() {
	debug.SetVerbose(a.verbose)
	debug.SetQuiet(a.quiet)
}

// applyColorPolicy turns styling off when stdout is not a color terminal or
// when the output is meant for machines.
func (a *app) applyColorPolicy() {
	if a.jsonOutput || !ui.ShouldUseColor(a.stdout) {
		ui.DisableColor()
	}
}

func (a *app) loadSettings(cmd *cobra.Command) error {
	s, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	a.settings = s
	return nil
}

func (a *app) setupLogger() {
	level := debug.ResolveLevel(a.settings.LogLevel.SlogLevel())
	a.logger = slog.New(debug.NewHandler(a.stderr, &debug.HandlerOptions{
		Level: level,
		Color: ui.ShouldUseColor(a.stderr),
	}))
	if a.settings.ConfigFile != "" {
		a.logger.Debug("Using config file " + a.settings.ConfigFile)
	}
}

func (a *app) initTelemetry() error {
	return telemetry.Init(a.rootCtx, telemetry.Options{
		Enabled: a.settings.Telemetry.Enabled,
		Stdout:  a.settings.Telemetry.Stdout,
		Output:  a.stderr,
		Service: "sqsync",
		Version: Version,
	})
}

// close flushes telemetry and releases the signal context.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := telemetry.Shutdown(ctx); err != nil {
		WarnError(a.stderr, "telemetry shutdown: %v", err)
	}
	if a.rootCancel != nil {
		a.rootCancel()
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	rootCmd := a.rootCommand()
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	a.close()

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errRunDeclined):
		_, _ = fmt.Fprintln(stderr, "Run cancelled.")
		return 0
	case isCanceled(err):
		_, _ = fmt.Fprintln(stderr, "Interrupted.")
		return exitCodeCanceled
	default:
		a.reportError(err)
		return 1
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
