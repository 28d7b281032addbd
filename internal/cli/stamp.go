package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/engine"
	"github.com/roach88/retreat/internal/stamp"
)

// maxPhotoBytes bounds the photo file read by "stamp photo".
const maxPhotoBytes = 5 << 20

// StampItem is one stamp activity in command output.
type StampItem struct {
	ID       string   `json:"id"`
	Emoji    string   `json:"emoji"`
	Name     string   `json:"name"`
	Missions []string `json:"missions"`
	Target   string   `json:"target,omitempty"`
	Option   int      `json:"option"`
	Photo    bool     `json:"photo"`
	State    string   `json:"state"`
	Window   string   `json:"window,omitempty"`
	Status   string   `json:"status"`
	Notice   string   `json:"notice,omitempty"`
}

// StampsResult is the payload of "stamp list".
type StampsResult struct {
	Stamps   []StampItem     `json:"stamps"`
	Progress engine.Progress `json:"progress"`
}

func stampItem(v engine.StampView) StampItem {
	item := StampItem{
		ID:       v.Activity.ID,
		Emoji:    v.Activity.Emoji,
		Name:     v.Activity.Name,
		Missions: v.Activity.Missions,
		Option:   stamp.NoOption,
		State:    v.State.String(),
		Window:   v.Window,
		Status:   v.Status.String(),
		Notice:   v.Notice,
	}
	if v.State != stamp.NotStarted {
		item.Target = v.Entry.TargetName
		item.Option = v.Entry.SelectedOptionIndex
		item.Photo = v.Entry.PhotoData != ""
	}
	return item
}

func printStamps(w io.Writer, res StampsResult) {
	for _, it := range res.Stamps {
		fmt.Fprintf(w, "%s %s [%s] %s\n", it.Emoji, it.Name, it.ID, it.State)
		if it.Status != "active" {
			// Closed activities show only their notice.
			fmt.Fprintf(w, "    %s\n", it.Notice)
			continue
		}
		for i, m := range it.Missions {
			mark := " "
			if i == it.Option {
				mark = "*"
			}
			fmt.Fprintf(w, "    %s %d. %s\n", mark, i+1, m)
		}
		if it.Target != "" {
			fmt.Fprintf(w, "    대상: %s", it.Target)
			if it.Photo {
				fmt.Fprint(w, " 📷")
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "완료 %d/%d\n", res.Progress.Completed, res.Progress.Total)
}

// NewStampCommand creates the stamp command group.
func NewStampCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stamp",
		Short: "Work on stamp activities",
		Long: `Each stamp activity is configured with a target person and one of its
missions, optionally gets a photo, and is then completed. A completed
stamp can no longer change.

Examples:
  retreat stamp list
  retreat stamp configure praise 지민 2
  retreat stamp photo praise ./photo.jpg
  retreat stamp complete praise`,
	}

	cmd.AddCommand(newStampListCommand(rootOpts))
	cmd.AddCommand(newStampConfigureCommand(rootOpts))
	cmd.AddCommand(newStampPhotoCommand(rootOpts))
	cmd.AddCommand(newStampUnphotoCommand(rootOpts))
	cmd.AddCommand(newStampCompleteCommand(rootOpts))
	return cmd
}

func newStampListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stamp activities and their state",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				var res StampsResult
				if err := a.view(cmd.Context(), func(s *engine.Session) {
					res = stampsResult(s)
				}); err != nil {
					return err
				}
				return f.Render(res, func(w io.Writer) { printStamps(w, res) })
			})
		},
	}
}

func stampsResult(s *engine.Session) StampsResult {
	res := StampsResult{Stamps: []StampItem{}, Progress: s.StampProgress()}
	for _, v := range s.Stamps() {
		res.Stamps = append(res.Stamps, stampItem(v))
	}
	return res
}

// runStampAction applies one stamp transition and reports the entry.
func runStampAction(cmd *cobra.Command, rootOpts *RootOptions, name, id string, fn func(ctx context.Context, s *engine.Session) (stamp.Entry, error)) error {
	f := rootOpts.formatter(cmd)
	ctx := cmd.Context()
	return withApp(ctx, rootOpts, func(a *app) error {
		var item StampItem
		err := a.do(ctx, name, func(ctx context.Context, s *engine.Session) error {
			if _, err := fn(ctx, s); err != nil {
				return err
			}
			for _, v := range s.Stamps() {
				if v.Activity.ID == id {
					item = stampItem(v)
				}
			}
			return nil
		})
		if err != nil {
			return f.Fail(err)
		}
		return a.report(f, "", item, func(w io.Writer) {
			fmt.Fprintf(w, "%s %s: %s\n", item.Emoji, item.Name, item.State)
		})
	})
}

func newStampConfigureCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "configure <activity> <target> <option>",
		Short: "Choose the target person and mission",
		Long: `Set who the activity is for and which of its missions was chosen.
Options are numbered from 1 as shown by 'stamp list'.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			option, err := strconv.Atoi(args[2])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid option %q", args[2]))
			}
			id, target := args[0], args[1]
			return runStampAction(cmd, rootOpts, "configure_stamp", id, func(ctx context.Context, s *engine.Session) (stamp.Entry, error) {
				return s.ConfigureStamp(ctx, id, target, option-1)
			})
		},
	}
}

func newStampPhotoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "photo <activity> <file>",
		Short:         "Attach a photo to a configured activity",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := photoDataURL(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read photo", err)
			}
			id := args[0]
			return runStampAction(cmd, rootOpts, "attach_photo", id, func(ctx context.Context, s *engine.Session) (stamp.Entry, error) {
				return s.AttachPhoto(ctx, id, data)
			})
		},
	}
}

// photoDataURL reads an image file as a base64 data URL.
func photoDataURL(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxPhotoBytes {
		return "", fmt.Errorf("%s is %d bytes, limit %d", path, info.Size(), maxPhotoBytes)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(raw)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

func newStampUnphotoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "unphoto <activity>",
		Short:         "Remove the photo of an activity",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return runStampAction(cmd, rootOpts, "remove_photo", id, func(ctx context.Context, s *engine.Session) (stamp.Entry, error) {
				return s.RemovePhoto(ctx, id)
			})
		},
	}
}

func newStampCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "complete <activity>",
		Short:         "Complete a configured activity",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return runStampAction(cmd, rootOpts, "complete_stamp", id, func(ctx context.Context, s *engine.Session) (stamp.Entry, error) {
				return s.CompleteStamp(ctx, id)
			})
		},
	}
}
