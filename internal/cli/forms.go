package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/engine"
)

// TestimonyResult is the payload of "testimony show".
type TestimonyResult struct {
	Open   bool   `json:"open"`
	Notice string `json:"notice,omitempty"`
	Mode   string `json:"mode"`
	Text   string `json:"text"`
}

// NewTestimonyCommand creates the testimony command group.
func NewTestimonyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testimony",
		Short: "Write, submit and edit your testimony",
		Long: `The testimony form opens on the last day of the retreat. A draft can be
saved at any time while it is open; submitting replaces the draft. A
submitted testimony can be edited and submitted again.

Text is taken from the arguments, or from stdin when the only argument
is "-".

Examples:
  retreat testimony show
  retreat testimony draft 오늘 받은 은혜를 적어봅니다
  retreat testimony submit - < testimony.txt
  retreat testimony edit 고친 간증문`,
	}

	cmd.AddCommand(newTestimonyShowCommand(rootOpts))
	cmd.AddCommand(newTestimonyWriteCommand(rootOpts, "draft", "Save a draft", func(ctx context.Context, s *engine.Session, text string) (string, error) {
		return s.SaveDraft(ctx, text)
	}))
	cmd.AddCommand(newTestimonyWriteCommand(rootOpts, "submit", "Submit the testimony", func(ctx context.Context, s *engine.Session, text string) (string, error) {
		return s.SubmitTestimony(ctx, text)
	}))
	cmd.AddCommand(newTestimonyWriteCommand(rootOpts, "edit", "Replace the submitted testimony", func(ctx context.Context, s *engine.Session, text string) (string, error) {
		if _, err := s.EditTestimony(); err != nil {
			return "", err
		}
		return s.SubmitTestimony(ctx, text)
	}))
	return cmd
}

func newTestimonyShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show the draft or the submitted testimony",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				var res TestimonyResult
				if err := a.view(cmd.Context(), func(s *engine.Session) {
					fv := s.Forms()
					mode, text := s.Testimony()
					res = TestimonyResult{Open: fv.Open, Notice: fv.Notice, Mode: mode.String(), Text: text}
				}); err != nil {
					return err
				}
				return f.Render(res, func(w io.Writer) {
					if !res.Open {
						fmt.Fprintln(w, res.Notice)
						return
					}
					fmt.Fprintf(w, "[%s]\n", res.Mode)
					if res.Text != "" {
						fmt.Fprintln(w, res.Text)
					}
				})
			})
		},
	}
}

func newTestimonyWriteCommand(rootOpts *RootOptions, use, short string, fn func(ctx context.Context, s *engine.Session, text string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <text>...",
		Short:         short,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read text", err)
			}

			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app) error {
				var notice string
				err := a.do(ctx, "testimony_"+use, func(ctx context.Context, s *engine.Session) error {
					var err error
					notice, err = fn(ctx, s, text)
					return err
				})
				if err != nil {
					return f.Fail(err)
				}
				return a.report(f, notice, nil, nil)
			})
		},
	}
}

// readText joins args, or reads stdin when args is just "-".
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

// NewSurveyCommand creates the survey command.
func NewSurveyCommand(rootOpts *RootOptions) *cobra.Command {
	var in engine.SurveyInput

	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Submit the retreat survey",
		Long: `Submit the survey once the forms are open. Satisfaction (1-5) is
required; the other answers are optional. Every submission is kept.

Example:
  retreat survey --satisfaction 5 --best "조별 모임" --improve "더 긴 자유시간"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app) error {
				var notice string
				err := a.do(ctx, "submit_survey", func(ctx context.Context, s *engine.Session) error {
					var err error
					notice, err = s.SubmitSurvey(ctx, in)
					return err
				})
				if err != nil {
					return f.Fail(err)
				}
				return a.report(f, notice, nil, nil)
			})
		},
	}

	cmd.Flags().IntVar(&in.Satisfaction, "satisfaction", 0, "overall satisfaction, 1-5")
	cmd.Flags().StringVar(&in.Best, "best", "", "what was best")
	cmd.Flags().StringVar(&in.Improve, "improve", "", "what could be better")
	return cmd
}
