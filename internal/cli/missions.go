package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/engine"
)

// MissionItem is one checklist row.
type MissionItem struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// MissionsResult is the payload of the missions command.
type MissionsResult struct {
	Day      string          `json:"day"`
	Missions []MissionItem   `json:"missions"`
	Progress engine.Progress `json:"progress"`
}

func missionItems(s *engine.Session) []MissionItem {
	items := []MissionItem{}
	for _, m := range s.Missions() {
		items = append(items, MissionItem{ID: m.ID, Title: m.Title, Done: m.Done})
	}
	return items
}

func printMissions(w io.Writer, res MissionsResult) {
	fmt.Fprintf(w, "DAY %s\n", res.Day)
	if len(res.Missions) == 0 {
		fmt.Fprintln(w, "  (미션이 없습니다)")
	}
	for _, m := range res.Missions {
		box := "[ ]"
		if m.Done {
			box = "[x]"
		}
		fmt.Fprintf(w, "  %s %d. %s\n", box, m.ID, m.Title)
	}
	fmt.Fprintf(w, "진행률 %d/%d\n", res.Progress.Completed, res.Progress.Total)
}

// NewMissionsCommand creates the missions command.
func NewMissionsCommand(rootOpts *RootOptions) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "missions",
		Short: "List the checklist of a day",
		Long: `List the checklist missions of the current day, or of --day when that
day is open. A locked or expired day is refused with its notice.

Examples:
  retreat missions
  retreat missions --day 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app) error {
				var res MissionsResult
				err := a.do(ctx, "missions", func(_ context.Context, s *engine.Session) error {
					if err := s.Restore(day); err != nil {
						return err
					}
					res = MissionsResult{Day: s.CurrentDay(), Missions: missionItems(s), Progress: s.Progress()}
					return nil
				})
				if err != nil {
					return f.Fail(err)
				}
				return f.Render(res, func(w io.Writer) { printMissions(w, res) })
			})
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "day window ID (default: the day selected for now)")
	return cmd
}

// NewMissionCommand creates the mission command group.
func NewMissionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mission",
		Short: "Change a checklist mission",
	}
	cmd.AddCommand(newMissionToggleCommand(rootOpts))
	return cmd
}

func newMissionToggleCommand(rootOpts *RootOptions) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a mission done, or undo it",
		Long: `Flip a checklist mission between done and not done. Only missions of
the current day (or --day) can be toggled, and only while that day is open.

Example:
  retreat mission toggle 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid mission id %q", args[0]))
			}

			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app) error {
				var res MissionsResult
				err := a.do(ctx, "toggle_mission", func(ctx context.Context, s *engine.Session) error {
					if err := s.Restore(day); err != nil {
						return err
					}
					if _, err := s.ToggleMission(ctx, id); err != nil {
						return err
					}
					res = MissionsResult{Day: s.CurrentDay(), Missions: missionItems(s), Progress: s.Progress()}
					return nil
				})
				if err != nil {
					return f.Fail(err)
				}
				return a.report(f, "", res, func(w io.Writer) { printMissions(w, res) })
			})
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "day window ID (default: the day selected for now)")
	return cmd
}
