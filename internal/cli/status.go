package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/engine"
	"github.com/roach88/retreat/internal/schedule"
)

// DayStatus is one day tab in status output.
type DayStatus struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Status  string `json:"status"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Current bool   `json:"current,omitempty"`
	Notice  string `json:"notice,omitempty"`
}

// FormsStatus describes the testimony/survey gate.
type FormsStatus struct {
	Open      bool   `json:"open"`
	Label     string `json:"label,omitempty"`
	DaysUntil int    `json:"days_until,omitempty"`
	Notice    string `json:"notice,omitempty"`
	Testimony string `json:"testimony"`
}

// StatusResult is the payload of the status command.
type StatusResult struct {
	Now        string          `json:"now"`
	UserName   string          `json:"user_name"`
	CurrentDay string          `json:"current_day"`
	Days       []DayStatus     `json:"days"`
	Missions   engine.Progress `json:"missions"`
	Stamps     engine.Progress `json:"stamps"`
	Forms      FormsStatus     `json:"forms"`
	CanShare   bool            `json:"can_share"`
	Problems   []string        `json:"problems,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show days, progress and forms",
		Long: `Show every day window with its status, mission and stamp progress,
and whether the testimony and survey forms are open.

Examples:
  retreat status
  retreat status --now 2026-01-13T06:59
  retreat status --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				var res StatusResult
				if err := a.view(cmd.Context(), func(s *engine.Session) {
					res = buildStatus(s)
				}); err != nil {
					return err
				}
				for _, p := range a.catalog.Problems {
					res.Problems = append(res.Problems, p.Error())
				}
				return f.Render(res, func(w io.Writer) { printStatus(w, res) })
			})
		},
	}
}

func buildStatus(s *engine.Session) StatusResult {
	res := StatusResult{
		Now:        s.Now().Format(time.RFC3339),
		UserName:   s.UserName(),
		CurrentDay: s.CurrentDay(),
		Missions:   s.Progress(),
		Stamps:     s.StampProgress(),
		CanShare:   s.CanShare(),
	}
	for _, d := range s.Days() {
		ds := DayStatus{
			ID:      d.Window.ID,
			Label:   d.Window.Label,
			Status:  d.Status.String(),
			Start:   d.Window.Start.Format(time.RFC3339),
			End:     d.Window.End.Format(time.RFC3339),
			Current: d.Current,
		}
		switch d.Status {
		case schedule.Locked:
			ds.Notice = schedule.LockedNotice(d.Window)
		case schedule.Expired:
			ds.Notice = schedule.ExpiredNotice(d.Window)
		}
		res.Days = append(res.Days, ds)
	}

	fv := s.Forms()
	mode, _ := s.Testimony()
	res.Forms = FormsStatus{
		Open:      fv.Open,
		Label:     fv.Label,
		DaysUntil: fv.DaysUntil,
		Notice:    fv.Notice,
		Testimony: mode.String(),
	}
	return res
}

func printStatus(w io.Writer, res StatusResult) {
	if res.UserName == "" {
		fmt.Fprintln(w, "이름이 없습니다. 'retreat onboard <이름>'으로 시작하세요.")
	} else {
		fmt.Fprintf(w, "%s님, 환영합니다!\n", res.UserName)
	}
	fmt.Fprintln(w)

	for _, d := range res.Days {
		marker := " "
		if d.Current {
			marker = "▶"
		}
		fmt.Fprintf(w, "%s %-6s %-8s", marker, d.Label, d.Status)
		if d.Notice != "" {
			fmt.Fprintf(w, " %s", d.Notice)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Missions: %d/%d\n", res.Missions.Completed, res.Missions.Total)
	fmt.Fprintf(w, "Stamps:   %d/%d\n", res.Stamps.Completed, res.Stamps.Total)
	if res.Forms.Open {
		fmt.Fprintf(w, "Forms:    open (testimony %s)\n", res.Forms.Testimony)
	} else {
		fmt.Fprintf(w, "Forms:    %s (D-%d)\n", res.Forms.Notice, res.Forms.DaysUntil)
	}
	if res.CanShare {
		fmt.Fprintln(w, "Share:    ready ('retreat share')")
	}
	for _, p := range res.Problems {
		fmt.Fprintf(w, "warning: %s\n", p)
	}
}

// NewOnboardCommand creates the onboard command.
func NewOnboardCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "onboard <name>",
		Short: "Set your name",
		Long: `Store the name shown in greetings and in the share text.

Example:
  retreat onboard 지민`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app) error {
				var name string
				err := a.do(ctx, "onboard", func(ctx context.Context, s *engine.Session) error {
					if err := s.Onboard(ctx, args[0]); err != nil {
						return err
					}
					name = s.UserName()
					return nil
				})
				if err != nil {
					return f.Fail(err)
				}
				return a.report(f, "", map[string]string{"user_name": name}, func(w io.Writer) {
					fmt.Fprintf(w, "%s님, 환영합니다!\n", name)
				})
			})
		},
	}
}
