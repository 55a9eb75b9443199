package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/feedsync/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Key   string // optional - filter to one resource
	Limit int
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Key     string               `json:"key,omitempty"`
	Entries []store.JournalEntry `json:"entries"`
	Stats   TraceStats           `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Requests  int `json:"requests"`
	Pending   int `json:"pending"`
	Applied   int `json:"applied"`
	Discarded int `json:"discarded"`
	Failed    int `json:"failed"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the request journal",
		Long: `Show the journal of requests the engine has made.

Every request is listed with the resource it targeted and how it ended:
applied, discarded (a newer request for the same resource finished first,
or the session ended), failed, or still pending.

Resources are named "session", "feed", "compose", "replies/<post-id>",
"reply-submit/<post-id>" and "reaction/<post-id>".

Examples:
  feedsync trace
  feedsync trace --key feed --limit 20
  feedsync trace --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "filter to one resource key")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "show only the newest n requests (0 for all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts.RootOptions)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return outputError(f, ErrCodeConfig, "failed to load config", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return outputError(f, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	entries, err := st.ReadJournal(context.Background(), opts.Key, opts.Limit)
	if err != nil {
		return outputError(f, ErrCodeStore, "failed to read journal", err)
	}

	result := TraceResult{
		Key:     opts.Key,
		Entries: entries,
		Stats:   traceStats(entries),
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

func traceStats(entries []store.JournalEntry) TraceStats {
	stats := TraceStats{Requests: len(entries)}
	for _, e := range entries {
		switch {
		case e.Completion == nil:
			stats.Pending++
		case !e.Completion.Applied:
			stats.Discarded++
		case e.Completion.Outcome == store.OutcomeFailure:
			stats.Failed++
		default:
			stats.Applied++
		}
	}
	return stats
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	if result.Key != "" {
		fmt.Fprintf(w, "Journal for %s\n", result.Key)
	} else {
		fmt.Fprintln(w, "Journal")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Requests ===")
	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "  (no requests)")
	} else {
		for _, e := range result.Entries {
			formatJournalEntry(w, e, verbose)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Requests:  %d\n", result.Stats.Requests)
	fmt.Fprintf(w, "  Applied:   %d\n", result.Stats.Applied)
	fmt.Fprintf(w, "  Failed:    %d\n", result.Stats.Failed)
	fmt.Fprintf(w, "  Discarded: %d\n", result.Stats.Discarded)
	fmt.Fprintf(w, "  Pending:   %d\n", result.Stats.Pending)

	return nil
}

// formatJournalEntry formats a single journal entry for text output.
func formatJournalEntry(w io.Writer, e store.JournalEntry, verbose bool) {
	fmt.Fprintf(w, "  [%d] %s %s -> %s\n", e.Seq, e.Op, e.Key, entryStatus(e))
	if e.Completion != nil && e.Completion.Message != "" {
		fmt.Fprintf(w, "       Message: %s\n", e.Completion.Message)
	}
	if verbose {
		fmt.Fprintf(w, "       ID: %s (session %d)\n", truncateID(e.RequestID), e.SessionEpoch)
	}
}

// entryStatus returns a human-readable request status.
func entryStatus(e store.JournalEntry) string {
	c := e.Completion
	switch {
	case c == nil:
		return "pending"
	case !c.Applied && c.Outcome == store.OutcomeFailure:
		return "failed, discarded"
	case !c.Applied:
		return "discarded"
	case c.Outcome == store.OutcomeFailure:
		return "failed"
	default:
		return "applied"
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
