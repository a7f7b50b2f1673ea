package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svcreg/internal/config"
	"svcreg/internal/domain"
	"svcreg/internal/httpapi"
	"svcreg/internal/registry"
	"svcreg/internal/telemetry"
)

type serveOptions struct {
	configPath string
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	opts := serveOptions{}

	root := &cobra.Command{
		Use:   "svcregd",
		Short: "In-memory service registry with heartbeat-driven liveness",
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to registry config file (optional)")

	root.AddCommand(
		newServeCmd(logger, &opts),
		newValidateCmd(logger, &opts),
	)

	return root
}

func newServeCmd(logger *zap.Logger, opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the registry server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			return serve(ctx, cfg, logger)
		},
	}
}

func newValidateCmd(logger *zap.Logger, opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate registry configuration without serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger.Info("configuration is valid",
				zap.String("listenAddress", cfg.ListenAddress),
				zap.Int("sweepIntervalSeconds", cfg.SweepIntervalSeconds),
				zap.Int("staleAfterSeconds", cfg.StaleAfterSeconds),
			)
			return nil
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	promRegistry := prometheus.NewRegistry()
	metrics := telemetry.NewPrometheusMetrics(promRegistry)

	sweepInterval := time.Duration(cfg.SweepIntervalSeconds) * time.Second
	staleAfter := time.Duration(cfg.StaleAfterSeconds) * time.Second

	health := telemetry.NewHealthTracker()
	sweepBeat := health.Register("staleness-sweep", sweepInterval)

	store := registry.NewStore(registry.StoreOptions{
		Logger:  logger,
		Metrics: metrics,
		OnSweep: func(int) { sweepBeat.Beat() },
	})
	store.StartSweeper(ctx, sweepInterval, staleAfter)
	defer store.StopSweeper()

	if cfg.Observability.MetricsEnabled || cfg.Observability.HealthzEnabled {
		go func() {
			err := telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
				Addr:          cfg.Observability.ListenAddress,
				EnableMetrics: cfg.Observability.MetricsEnabled,
				EnableHealthz: cfg.Observability.HealthzEnabled,
				Health:        health,
				Registry:      promRegistry,
			}, logger)
			if err != nil {
				logger.Error("observability server failed", zap.Error(err))
			}
		}()
	}

	serverOpts := httpapi.ServerOptions{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
	}
	if cfg.RateLimit.Enabled {
		serverOpts.RateLimit = cfg.RateLimit.RPS
		serverOpts.RateBurst = cfg.RateLimit.Burst
	}

	logger.Info("starting registry",
		zap.String("version", domain.Version),
		zap.String("addr", cfg.ListenAddress),
	)
	return httpapi.NewServer(serverOpts).Start(ctx, cfg.ListenAddress)
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
