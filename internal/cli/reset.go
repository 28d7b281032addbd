package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/store"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored progress",
		Long: `Delete the name, checklist, stamps, testimony and survey responses from
the database. Requires --yes.

Example:
  retreat reset --yes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "refusing to reset without --yes")
			}

			st, err := store.Open(rootOpts.Config.DBPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer func() {
				if cerr := st.Close(); cerr != nil {
					slog.Error("error closing database", "error", cerr)
				}
			}()

			if err := st.Reset(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "reset failed", err)
			}
			slog.Info("database reset", "path", rootOpts.Config.DBPath)

			f := rootOpts.formatter(cmd)
			return f.Render(map[string]string{"db": rootOpts.Config.DBPath}, func(w io.Writer) {
				fmt.Fprintf(w, "✓ %s 초기화 완료\n", rootOpts.Config.DBPath)
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all progress")
	return cmd
}
