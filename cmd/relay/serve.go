package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/server"
)

var serveFlags struct {
	listenAddress string
	watch         bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operations server",
	Long: `Run the relay operations server.

The server exposes Prometheus metrics, liveness and readiness probes
(/healthz, /readyz), build information (/version) and the router status
as JSON (/status). A scheduled job refreshes the budget and provider
gauges, and the configuration file is watched for changes: budget limits,
model overrides, token ratios and routing settings are applied without a
restart. SIGHUP forces a reload.

Examples:
  # Start with a config file
  relay serve --config /etc/relay/relay.yaml

  # Override the listen address
  relay serve --listen 0.0.0.0:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", true, "reload the config file when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	a, err := newApp(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			slog.Error("failed to release resources", "error", err)
		}
	}()

	slog.Info("starting relay",
		"version", Version,
		"mode", cfg.Router.Mode,
		"providers", a.registry.GetAvailableNames(),
		"monthly_budget_usd", cfg.Budget.MonthlyUSD,
	)
	for name, err := range a.registry.InitErrors() {
		slog.Warn("provider failed to initialize", "provider", name, "error", err)
	}

	a.registry.StartHealthCheckers(ctx)

	scheduler, err := startStatusJob(ctx, a, cfg.Telemetry.StatusSchedule)
	if err != nil {
		return err
	}
	defer func() { <-scheduler.Stop().Done() }()

	if serveFlags.watch && cfgFile != "" {
		if err := watchConfig(ctx, a, cfgFile); err != nil {
			return err
		}
	}

	opts := server.Options{
		Checker: a.registry.Checker(),
		Version: versionInfo(),
		Status:  func() any { return a.router.Status() },
		Tracer:  a.tracer,
	}
	if cfg.Telemetry.Metrics.IsEnabled() {
		opts.Metrics = a.metrics.Handler()
		opts.MetricsPath = cfg.Telemetry.Metrics.Path
	}

	srv := server.New(cfg.Server, opts)
	return srv.Start(ctx)
}

// startStatusJob schedules refreshStatus on schedule and runs it once
// immediately.
func startStatusJob(ctx context.Context, a *app, schedule string) (*cron.Cron, error) {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() { refreshStatus(ctx, a) }); err != nil {
		return nil, fmt.Errorf("invalid status schedule %q: %w", schedule, err)
	}
	refreshStatus(ctx, a)
	scheduler.Start()
	return scheduler, nil
}

// refreshStatus reads the breaker status, which also rolls the budget
// period over at month boundaries, and refreshes the provider gauges.
func refreshStatus(ctx context.Context, a *app) {
	status := a.breaker.Status()

	a.metrics.SetProviderAvailability(a.registry.Availability())

	probeCtx, cancel := context.WithTimeout(ctx, a.config().Server.HealthCheckTimeout+time.Second)
	defer cancel()
	a.metrics.SetProviderHealth(a.registry.HealthCheckAll(probeCtx))

	slog.Info("budget status",
		"state", status.State.String(),
		"spend_usd", status.Spend,
		"limit_usd", status.Limit,
		"ratio", status.Ratio,
		"requests", status.RequestCount,
	)
}

// watchConfig reloads the configuration when the file changes or SIGHUP
// arrives. Invalid configurations are logged and ignored.
func watchConfig(ctx context.Context, a *app, path string) error {
	watcher, err := config.NewWatcher(path, config.WithLoader(config.LoadConfigWithEnvOverrides))
	if err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}

	apply := func(cfg *config.Config) {
		if err := a.reload(cfg); err != nil {
			slog.Error("failed to apply reloaded config", "error", err)
			return
		}
		slog.Info("configuration reloaded", "path", path)
	}

	go func() {
		defer watcher.Stop()
		if err := watcher.Watch(ctx, apply); err != nil {
			slog.Error("config watcher stopped", "error", err)
		}
	}()

	hup, stopHUP := cli.ReloadSignal()
	go func() {
		defer stopHUP()
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				cfg, err := config.LoadConfigWithEnvOverrides(path)
				if err != nil {
					slog.Error("failed to reload config", "error", err)
					continue
				}
				apply(cfg)
			}
		}
	}()

	return nil
}
