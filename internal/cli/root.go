package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/config"
)

// RootOptions holds global flags for all commands. Flags left unset fall
// back to the environment (see config.Config).
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	DBPath   string
	DataDir  string
	Schedule string
	Now      string // pins the clock, e.g. 2026-01-12T09:00

	// Config is filled in before any command runs.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the retreat CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "retreat",
		Short: "Retreat companion",
		Long: `A terminal companion for the 2026 winter retreat.

Days open and close on a fixed schedule. Missions, stamp activities, the
testimony and the survey are only usable while their window is open.
Everything is stored in a local SQLite file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (env RETREAT_DB)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data", "", "static data directory (env RETREAT_DATA_DIR)")
	cmd.PersistentFlags().StringVar(&opts.Schedule, "schedule", "", "CUE schedule file (env RETREAT_SCHEDULE)")
	cmd.PersistentFlags().StringVar(&opts.Now, "now", "", "pin the clock (env RETREAT_DEBUG_TIME)")

	// Add subcommands
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewOnboardCommand(opts))
	cmd.AddCommand(NewMissionsCommand(opts))
	cmd.AddCommand(NewMissionCommand(opts))
	cmd.AddCommand(NewStampCommand(opts))
	cmd.AddCommand(NewTimetableCommand(opts))
	cmd.AddCommand(NewGroupCommand(opts))
	cmd.AddCommand(NewShareCommand(opts))
	cmd.AddCommand(NewTestimonyCommand(opts))
	cmd.AddCommand(NewSurveyCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewTUICommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// resolve loads the configuration, lets explicit flags override it and
// installs the default logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = o.DBPath
	}
	if flags.Changed("data") {
		cfg.DataDir = o.DataDir
	}
	if flags.Changed("schedule") {
		cfg.SchedulePath = o.Schedule
	}
	if flags.Changed("now") {
		cfg.DebugTime = o.Now
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg

	level, _ := cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
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

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return GetExitCode(err)
}
