// Command campusmatch serves the CampusMatch site and manages its saved
// registration answers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/campusmatch/campusmatch/internal/config"
	"github.com/campusmatch/campusmatch/pkg/logging"
	"github.com/campusmatch/campusmatch/pkg/retry"
	"github.com/campusmatch/campusmatch/pkg/state"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	if err := fang.Execute(context.Background(), newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "campusmatch",
		Short: "College matching site with a multi-step registration wizard",
		Long: `campusmatch serves the CampusMatch landing page and registration wizard.

Answers are saved per browser device after every completed screen, in
memory, in SQLite or in an embedded NATS key-value bucket. Settings come
from flags, CAMPUSMATCH_* environment variables (.env is read too), the
project file ./campusmatch.yml and the global config file, in that order.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default: global config, then ./campusmatch.yml)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.Bool("log-json", false, "Write logs as JSON")
	pf.String("store", state.BackendMemory, "Answer store: memory, sqlite, nats")
	pf.String("db", "campusmatch.db", "SQLite database path")
	pf.String("nats-dir", ".campusmatch/nats", "Embedded NATS data directory")
	pf.String("serializer", "json", "Answer encoding: json, msgpack")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRegisterCmd())
	root.AddCommand(newAnswersCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "campusmatch %s\n", version)
		},
	})
	return root
}

// loadConfig loads and validates the configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := []config.Option{config.WithFlags(cmd.Flags())}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithFile(path))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) logging.Logger {
	return logging.NewSlogLogger(
		logging.WithLevelName(cfg.Log.Level),
		logging.WithJSON(cfg.Log.JSON),
		logging.WithOutput(w),
	)
}

// openRetry covers a database still locked by a stopping process or an
// embedded NATS server slow to come up.
var openRetry = retry.Config{
	Attempts:     4,
	InitialDelay: 250 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2,
	Jitter:       0.2,
}

// openAnswers opens the configured store. The caller closes it.
func openAnswers(ctx context.Context, cfg *config.Config) (state.Store, *state.AnswerStore, error) {
	opts, err := cfg.AnswerStoreOptions()
	if err != nil {
		return nil, nil, err
	}
	store, err := retry.Do(ctx, openRetry, func(ctx context.Context) (state.Store, error) {
		s, err := state.Open(ctx, cfg.StateConfig())
		if errors.Is(err, state.ErrUnknownKind) {
			return nil, retry.Permanent(err)
		}
		return s, err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	return store, state.NewAnswerStore(store, opts...), nil
}
