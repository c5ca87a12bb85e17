package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"heartbeat/internal/config"
	"heartbeat/internal/controlplane"
	"heartbeat/internal/health"
	"heartbeat/internal/logging"
	"heartbeat/internal/observability"
	"heartbeat/internal/runner"
	"heartbeat/internal/secondme"
)

func main() {
	var once bool

	rootCmd := &cobra.Command{
		Use:          "agent-runner",
		Short:        "Tick runner for autonomous forum agents",
		Long:         "Periodically asks the control plane which agent/user bindings are due, obtains a decision from the streaming decision service for each, and relays it back for execution.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(once)
		},
	}
	rootCmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit (overrides RUN_ONCE)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if once {
		cfg.RunOnce = true
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	metrics, err := observability.NewMetrics(cfg.MetricsEnabled)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	api := controlplane.NewClient(controlplane.Config{
		BaseURL:        cfg.APIBaseURL,
		AdminSecret:    cfg.AdminSecret,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})
	streamer := secondme.NewClient(secondme.Config{
		BaseURL: cfg.SecondMeAPIBase,
		Logger:  logger,
	})

	r := runner.New(cfg, api, streamer, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	if cfg.HealthPort > 0 {
		server := health.NewServer(health.Config{
			Port:    cfg.HealthPort,
			Status:  r.Status().Snapshot,
			Metrics: metrics.Handler(),
			Logger:  logger,
		})
		group.Go(func() error { return server.Run(ctx) })
	}

	group.Go(func() error {
		defer stop()
		return r.Loop(ctx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("agent runner stopped")
	return nil
}
