package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/tui"
)

// NewTUICommand creates the tui command.
func NewTUICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive companion",
		Long: `Open the full-screen companion: day tabs, today's checklist, stamp
progress and the timetable. Statuses refresh every RETREAT_TICK.

Keys: 1-3 switch day, j/k move, space toggle, t timetable, q quit.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app) error {
				model := tui.New(ctx, tui.Options{
					Runner:  a.engine,
					Signals: a.rec,
					Splash:  a.store,
					Tick:    rootOpts.Config.Tick,
				})
				p := tea.NewProgram(model,
					tea.WithAltScreen(),
					tea.WithContext(ctx),
					tea.WithInput(cmd.InOrStdin()),
					tea.WithOutput(cmd.OutOrStdout()),
				)
				if _, err := p.Run(); err != nil {
					return WrapExitError(ExitCommandError, "tui failed", err)
				}
				return nil
			})
		},
	}
}
