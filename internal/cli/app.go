package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/feedsync/internal/api"
	"github.com/roach88/feedsync/internal/config"
	"github.com/roach88/feedsync/internal/engine"
	"github.com/roach88/feedsync/internal/store"
)

// app is one running engine with its store, for the duration of a command.
type app struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine

	cancel context.CancelFunc
	done   chan error
}

// loadConfig loads the configuration and applies flag overrides. --env is
// applied before --api-url, so the URL lands in the selected environment.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}

	overridden := false
	if opts.Env != "" {
		cfg.SetEnvironment(opts.Env)
		overridden = true
	}
	if opts.DB != "" {
		cfg.Database = opts.DB
		overridden = true
	}
	if opts.APIURL != "" {
		cfg.SetBaseURL(opts.APIURL)
		overridden = true
	}
	if overridden {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openStore opens the configured database, creating its directory.
func openStore(cfg *config.Config) (*store.Store, error) {
	if dir := filepath.Dir(cfg.Database); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return store.Open(cfg.Database)
}

// openApp starts an engine for a command and restores the stored session.
// The caller must Close the app.
func openApp(cmd *cobra.Command, opts *RootOptions, f *OutputFormatter) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, outputError(f, ErrCodeConfig, "failed to load config", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, outputError(f, ErrCodeStore, "failed to open database", err)
	}

	last, err := st.LastSeq(commandContext(cmd))
	if err != nil {
		st.Close()
		return nil, outputError(f, ErrCodeStore, "failed to read request journal", err)
	}

	client := api.NewClient(cfg.BaseURL(), api.WithTimeout(cfg.API.Timeout))
	eng := engine.New(client, st,
		engine.WithJournal(st),
		engine.WithSequencer(engine.NewClockAt(last)),
	)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	a := &app{
		cfg:    cfg,
		store:  st,
		engine: eng,
		cancel: cancel,
		done:   make(chan error, 1),
	}
	go func() { a.done <- eng.Run(ctx) }()

	f.VerboseLog("environment %s, backend %s, database %s", cfg.Environment, cfg.BaseURL(), cfg.Database)

	if res := eng.RestoreSession(ctx); res.Err != nil {
		slog.Warn("could not restore session", "error", res.Err)
	}
	return a, nil
}

// Close stops the engine and closes the store.
func (a *app) Close() {
	a.cancel()
	<-a.done
	if err := a.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
