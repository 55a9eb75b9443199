package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/feedsync/internal/domain"
	"github.com/roach88/feedsync/internal/engine"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Every time.Duration
	// Times stops the watch after this many refreshes. Zero means forever.
	Times int
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the feed periodically",
		Long: `Fetch the feed now and then on a fixed interval, printing it whenever
it differs from the last print. Failed refreshes are reported and retried
on the next tick; a lost session ends the watch.

Example:
  feedsync watch --every 30s
  feedsync watch --every 1m --times 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Every, "every", 30*time.Second, "refresh interval (at least 1s)")
	cmd.Flags().IntVar(&opts.Times, "times", 0, "stop after n refreshes (0 for no limit)")

	return cmd
}

// feedWatcher refreshes the feed and prints it when it changed.
// refresh may be called from the cron goroutine.
type feedWatcher struct {
	engine *engine.Engine
	f      *OutputFormatter
	limit  int

	mu   sync.Mutex
	runs int
	last []byte
	err  error
}

// refresh fetches the feed once. It returns true when the watch should end.
func (w *feedWatcher) refresh(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return true
	}

	res := w.engine.FetchFeed(ctx)
	w.runs++

	switch {
	case res.Err == nil:
		if err := w.printIfChanged(w.engine.Snapshot()); err != nil {
			slog.Error("failed to print feed", "error", err)
		}
	case engine.IsAuthRequired(res.Err), engine.IsStopped(res.Err):
		w.err = outputOpError(w.f, res.Err)
		return true
	default:
		slog.Warn("feed refresh failed", "error", res.Err)
		fmt.Fprintf(w.f.GetErrWriter(), "refresh failed: %s\n", res.Err.Message)
	}

	return w.limit > 0 && w.runs >= w.limit
}

func (w *feedWatcher) printIfChanged(snap *domain.Snapshot) error {
	current, err := domain.MarshalCanonical(snap.CanonicalMap()["feed"])
	if err != nil {
		return err
	}
	if w.last != nil && bytes.Equal(current, w.last) {
		w.f.VerboseLog("feed unchanged (version %d)", snap.Version)
		return nil
	}
	w.last = current

	views := postViews(snap.Feed, snap.Session.UserID)
	if w.f.Format == "json" {
		return w.f.Success(views)
	}
	fmt.Fprintf(w.f.Writer, "--- feed at %s ---\n", time.Now().Format(time.TimeOnly))
	writePosts(w.f.Writer, views, "No posts")
	return nil
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts.RootOptions)
	if opts.Every < time.Second {
		return outputError(f, ErrCodeConfig, fmt.Sprintf("interval %s is shorter than 1s", opts.Every), nil)
	}
	if opts.Times < 0 {
		return outputError(f, ErrCodeConfig, "--times must not be negative", nil)
	}

	a, err := openApp(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	w := &feedWatcher{engine: a.engine, f: f, limit: opts.Times}
	if w.refresh(ctx) {
		return w.err
	}

	c := cron.New()
	_, err = c.AddFunc("@every "+opts.Every.String(), func() {
		if w.refresh(ctx) {
			cancel()
		}
	})
	if err != nil {
		return outputError(f, ErrCodeConfig, "failed to schedule refresh", err)
	}

	slog.Info("watching feed", "every", opts.Every)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
