package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/catalog"
	"github.com/roach88/retreat/internal/engine"
)

// SlotItem is one timetable row.
type SlotItem struct {
	Time  string            `json:"time"`
	Title string            `json:"title"`
	State catalog.SlotState `json:"state"`
}

// TimetableResult is the payload of the timetable command.
type TimetableResult struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Today bool       `json:"today"`
	Tabs  []string   `json:"tabs"`
	Slots []SlotItem `json:"slots"`
}

// NewTimetableCommand creates the timetable command.
func NewTimetableCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "timetable [day-key]",
		Short: "Show the retreat timetable",
		Long: `Show one timetable tab with past, current and upcoming rows. Without a
key, today's tab is shown, or the first tab outside the retreat dates.

Examples:
  retreat timetable
  retreat timetable day2`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}

			f := rootOpts.formatter(cmd)
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				var (
					view engine.TimetableView
					ok   bool
					tabs []string
				)
				if err := a.view(cmd.Context(), func(s *engine.Session) {
					view, ok = s.Timetable(key)
					for _, d := range s.Calendar().TimetableDays {
						tabs = append(tabs, d.Key)
					}
				}); err != nil {
					return err
				}
				if !ok {
					return NewExitError(ExitCommandError, fmt.Sprintf("unknown timetable tab %q (have %s)", key, strings.Join(tabs, ", ")))
				}

				res := TimetableResult{
					Key:   view.Day.Key,
					Label: view.Day.TabLabel(),
					Today: view.Today,
					Tabs:  tabs,
					Slots: []SlotItem{},
				}
				for i, slot := range view.Slots {
					res.Slots = append(res.Slots, SlotItem{Time: slot.Time, Title: slot.Title, State: view.States[i]})
				}
				return f.Render(res, func(w io.Writer) { printTimetable(w, res) })
			})
		},
	}
}

func printTimetable(w io.Writer, res TimetableResult) {
	fmt.Fprintf(w, "%s %s\n", res.Key, res.Label)
	if len(res.Slots) == 0 {
		fmt.Fprintln(w, "  (일정이 없습니다)")
	}
	for _, s := range res.Slots {
		marker := "  "
		switch s.State {
		case catalog.SlotCurrent:
			marker = "▶ "
		case catalog.SlotPast:
			marker = "· "
		}
		fmt.Fprintf(w, "%s%s  %s\n", marker, s.Time, s.Title)
	}
}

// GroupResult is the payload of the group command.
type GroupResult struct {
	Found   bool          `json:"found"`
	Group   string        `json:"group,omitempty"`
	Leader  string        `json:"leader,omitempty"`
	Room    string        `json:"room,omitempty"`
	Members []GroupMember `json:"members,omitempty"`
	Notice  string        `json:"notice,omitempty"`
}

// GroupMember is a roster entry without the phone number.
type GroupMember struct {
	Name string `json:"name"`
	Room string `json:"room,omitempty"`
}

// notFoundNotice is shown when no roster entry matches.
const notFoundNotice = "일치하는 정보가 없습니다. 이름과 전화번호를 확인해주세요."

// NewGroupCommand creates the group command.
func NewGroupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "group <name> <last4>",
		Short: "Find your small group",
		Long: `Look up your small group, leader and room by your name and the last
four digits of your phone number.

Example:
  retreat group 이지민 4321`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				var (
					m      catalog.Match
					found  bool
					lookup error
				)
				if err := a.view(cmd.Context(), func(s *engine.Session) {
					m, found, lookup = s.FindGroup(args[0], args[1])
				}); err != nil {
					return err
				}
				if lookup != nil {
					return f.Fail(lookup)
				}

				if !found {
					res := GroupResult{Notice: notFoundNotice}
					return f.Render(res, func(w io.Writer) { fmt.Fprintln(w, notFoundNotice) })
				}
				res := GroupResult{
					Found:  true,
					Group:  m.Group.Name,
					Leader: m.Group.Leader,
					Room:   m.Member.Room,
				}
				for _, mem := range m.Group.Members {
					res.Members = append(res.Members, GroupMember{Name: mem.Name, Room: mem.Room})
				}
				return f.Render(res, func(w io.Writer) { fmt.Fprint(w, m.String()) })
			})
		},
	}
}
