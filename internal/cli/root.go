package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is the YAML config file. Empty means the default location.
	Config string
	// Env, DB and APIURL override the loaded configuration when set.
	Env    string
	DB     string
	APIURL string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the feedsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "feedsync",
		Short: "feedsync - community feed client",
		Long: `A command-line client for the community feed.

Every command runs the synchronization engine against the configured
backend: the stored session is restored, the operation is performed and
the confirmed result is printed.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			setupLogging(cmd, opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default: <user config dir>/feedsync/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Env, "env", "", "environment (development|production)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "backend URL for the selected environment")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewFeedCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewRepliesCommand(opts))
	cmd.AddCommand(NewReplyCommand(opts))
	cmd.AddCommand(NewReactCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// setupLogging sends structured logs to stderr. Only warnings are shown
// unless verbose is set.
func setupLogging(cmd *cobra.Command, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
