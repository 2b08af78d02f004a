package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gptbotio/gptbot/config"
	"github.com/gptbotio/gptbot/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runServe(settings)
		},
	}
}

func runServe(settings config.Settings) error {
	bot, store, metrics, logger := buildBot(settings)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The counter trigger in Update never fires in a quiet store, so idle
	// sessions would otherwise persist forever under low traffic.
	if settings.Session.BackgroundSweep {
		sweepStop := make(chan struct{})
		defer close(sweepStop)
		go store.PeriodicCleanup(settings.SweepInterval(), sweepStop)
		logger.Info("background session sweep enabled", "interval", settings.SweepInterval())
	}

	srv := server.New(bot, func(o *server.Options) {
		o.Addr = settings.Addr
		o.Logger = logger
		o.Metrics = metrics
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logger.Info("gptbot started",
		"addr", settings.Addr,
		"model_provider", bot.Model().Info().Provider,
		"session_timeout", settings.SessionTimeout(),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
