package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/retreat/internal/engine"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print window changes as they happen",
		Long: `Start the engine with its periodic tick and print every signal: days
opening and closing, the forms opening. Runs until interrupted.

The tick interval comes from RETREAT_TICK (default 60s). With --now the
clock is pinned and nothing ever changes.

Examples:
  retreat watch
  RETREAT_TICK=5s retreat watch --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, cmd)
		},
	}
}

func runWatch(opts *RootOptions, cmd *cobra.Command) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	printer := &signalPrinter{w: cmd.OutOrStdout(), json: opts.Format == "json"}
	a, err := openApp(ctx, opts.Config, printer)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			slog.Error("error closing app", "error", cerr)
		}
	}()

	// The first tick reports nothing: Load already resolved every status.
	a.engine.Enqueue(engine.TickAction())
	a.engine.StartTicker(opts.Config.Tick)
	defer a.engine.StopTicker()

	slog.Info("watching", "tick", opts.Config.Tick)
	<-ctx.Done()
	return nil
}

// signalPrinter is a Sink that writes each signal as a line.
type signalPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

func (p *signalPrinter) Emit(s engine.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		_ = json.NewEncoder(p.w).Encode(s)
		return
	}
	fmt.Fprintf(p.w, "[%d] %s", s.Seq, s.Kind)
	if s.Window != "" {
		fmt.Fprintf(p.w, " %s", s.Window)
	}
	if s.From != "" || s.To != "" {
		fmt.Fprintf(p.w, " %s→%s", s.From, s.To)
	}
	if s.Notice != "" {
		fmt.Fprintf(p.w, "  %s", s.Notice)
	}
	fmt.Fprintln(p.w)
}
