package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/engine"
	"github.com/roach88/retreat/internal/share"
)

// ShareOptions holds flags for the share command.
type ShareOptions struct {
	*RootOptions
	NoQR        bool   // skip the QR code and go straight to the fallbacks
	NoClipboard bool   // skip the OSC 52 clipboard fallback
	OutDir      string // directory for the file fallback
}

// ShareResult is the payload of the share command.
type ShareResult struct {
	Path     share.Path `json:"path"`
	Notice   string     `json:"notice,omitempty"`
	Location string     `json:"location,omitempty"`
}

// NewShareCommand creates the share command.
func NewShareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "share",
		Short: "Share your retreat summary",
		Long: fmt.Sprintf(`Compose a summary of completed missions, stamps and the testimony and
share it. Sharing is offered once at least %d missions and stamps are done.

The summary is shown as a QR code first. When that is skipped or fails,
it is copied to the terminal clipboard, and then saved as a file.

Examples:
  retreat share
  retreat share --no-qr --out ~/Desktop`, share.MinMissionsToShare),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShare(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoQR, "no-qr", false, "do not show a QR code")
	cmd.Flags().BoolVar(&opts.NoClipboard, "no-clipboard", false, "do not copy to the terminal clipboard")
	cmd.Flags().StringVar(&opts.OutDir, "out", ".", "directory for the saved share file")

	return cmd
}

func runShare(opts *ShareOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	// Escape sequences and QR blocks must not end up inside JSON output.
	term := cmd.OutOrStdout()
	if opts.Format == "json" {
		term = f.GetErrWriter()
	}

	var native share.Sharer
	if !opts.NoQR {
		native = share.QRSharer{W: term}
	}
	var fallbacks []share.Fallback
	if !opts.NoClipboard {
		fallbacks = append(fallbacks, share.ClipboardFallback{W: term})
	}
	fallbacks = append(fallbacks, share.FileFallback{Dir: opts.OutDir})

	ctx := cmd.Context()
	return withApp(ctx, opts.RootOptions, func(a *app) error {
		var out share.Outcome
		err := a.do(ctx, "share", func(ctx context.Context, s *engine.Session) error {
			var err error
			out, err = s.Share(ctx, native, fallbacks)
			return err
		})
		if err != nil {
			return f.Fail(err)
		}

		res := ShareResult{Path: out.Path, Notice: out.Notice, Location: out.Location}
		return a.report(f, out.Notice, res, nil)
	})
}
