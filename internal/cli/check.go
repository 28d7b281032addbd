package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/catalog"
)

// CheckResult is the payload of the check command.
type CheckResult struct {
	DataDir       string   `json:"data_dir"`
	Schedule      string   `json:"schedule"`
	Windows       []string `json:"windows"`
	FormsOpenAt   string   `json:"forms_open_at"`
	Missions      int      `json:"missions"`
	Activities    int      `json:"activities"`
	TimetableDays int      `json:"timetable_days"`
	Groups        int      `json:"groups"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the data directory and schedule",
		Long: `Load the static documents and the schedule the way every other command
does, and report what was found. Documents that are missing or malformed
are used as empty sets at runtime; check reports them as errors.

Exit codes:
  0 - Everything loaded
  1 - One or more documents could not be loaded
  2 - The schedule is invalid

Example:
  retreat check --data ./data --schedule ./schedule.cue`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			f := rootOpts.formatter(cmd)

			cal, err := loadCalendar(cfg)
			if err != nil {
				_ = f.Error(ErrCodeGeneric, err.Error(), nil)
				return &ExitError{Code: ExitCommandError, Message: "invalid schedule", Err: err, Reported: true}
			}

			cat := catalog.Load(cfg.DataDir)
			if len(cat.Problems) > 0 {
				msgs := make([]string, 0, len(cat.Problems))
				for _, p := range cat.Problems {
					msgs = append(msgs, p.Error())
				}
				_ = f.Error(ErrCodeDataLoad, fmt.Sprintf("%d document(s) could not be loaded", len(msgs)), msgs)
				if f.Format != "json" {
					for _, m := range msgs {
						fmt.Fprintf(f.Writer, "  %s\n", m)
					}
				}
				return &ExitError{Code: ExitFailure, Message: ErrCodeDataLoad, Err: cat.Problems[0], Reported: true}
			}

			schedule := cfg.SchedulePath
			if schedule == "" {
				schedule = "(built-in)"
			}
			res := CheckResult{
				DataDir:       cfg.DataDir,
				Schedule:      schedule,
				FormsOpenAt:   cal.Forms.Label(),
				Missions:      len(cat.Missions),
				Activities:    len(cat.Activities),
				TimetableDays: len(cat.Timetable),
				Groups:        len(cat.Groups.Groups),
			}
			for _, w := range cal.Table.Windows() {
				res.Windows = append(res.Windows, w.ID)
			}
			return f.Render(res, func(w io.Writer) {
				fmt.Fprintf(w, "✓ schedule %s: %d windows, forms open %s\n", res.Schedule, len(res.Windows), res.FormsOpenAt)
				fmt.Fprintf(w, "✓ data %s: %d missions, %d activities, %d timetable days, %d groups\n",
					res.DataDir, res.Missions, res.Activities, res.TimetableDays, res.Groups)
			})
		},
	}
}
