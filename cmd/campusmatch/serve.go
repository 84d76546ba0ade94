package main

import (
	"github.com/spf13/cobra"

	"github.com/campusmatch/campusmatch/internal/server"
	"github.com/campusmatch/campusmatch/pkg/logging"
	"github.com/campusmatch/campusmatch/pkg/shutdown"
	"github.com/campusmatch/campusmatch/pkg/tracing"
)

const serviceName = "campusmatch"

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site",
		Long: `Serve the landing page, the registration wizard and the live client.

The server stops on SIGINT or SIGTERM: it stops accepting requests, closes
live sessions, then closes the answer store.`,
		RunE: runServe,
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().Bool("dev", false, "Development mode: skip WebSocket origin checks")
	cmd.Flags().String("codec", "json", "Live transport codec: json, msgpack")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	logging.SetDefault(logger)

	ctx := cmd.Context()
	store, answers, err := openAnswers(ctx, cfg)
	if err != nil {
		return err
	}

	hooks := shutdown.NewHandler(&shutdown.Config{
		Timeout: cfg.Server.ShutdownTimeout.Std(),
		Logger:  logger,
	})
	hooks.RegisterCloser("store", shutdown.PriorityStore, store)

	tp := tracing.NewProvider(serviceName, tracing.WithLogger(logger))
	hooks.RegisterFunc("tracing", shutdown.PriorityLast, tp.Shutdown)

	srv, err := server.New(server.Options{
		Config:  cfg,
		Store:   store,
		Answers: answers,
		Logger:  logger,
		Tracer:  tp.Tracer(serviceName),
		Version: version,
	})
	if err != nil {
		_ = hooks.Shutdown()
		return err
	}

	logger.Info("starting",
		logging.String("version", version),
		logging.String("store", cfg.Store.Backend),
		logging.Bool("dev", cfg.Server.Dev),
	)
	if err := srv.Run(ctx, hooks); err != nil {
		if !hooks.IsClosed() {
			_ = hooks.Shutdown()
		}
		return err
	}
	return nil
}
