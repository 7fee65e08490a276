package main

import (
	"context"
	"fmt"
	"log/slog"

	"gatecontrol-hq/gatecontrol/pkg/api"
	"gatecontrol-hq/gatecontrol/pkg/cli"
	"gatecontrol-hq/gatecontrol/pkg/config"
	"gatecontrol-hq/gatecontrol/pkg/drift"
	"gatecontrol-hq/gatecontrol/pkg/server"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/health"

	"github.com/spf13/cobra"
)

var serveFlags struct {
	listenAddress string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GateControl HTTP API",
	Long: `Start the HTTP API with the specified configuration.

When drift detection is enabled, published files are re-checked on the
configured cron schedule and, with drift.watch, as soon as they change on disk.

Examples:
  # Start with default config
  gatecontrol serve

  # Start with custom config and listen address
  gatecontrol serve --config /etc/gatecontrol/config.yaml --listen 0.0.0.0:5080

  # Validate config and open the store without serving
  gatecontrol serve --dry-run`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and open the store without serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.MustGetConfig()
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer a.Close()

	if serveFlags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "configuration valid (%s storage, %d environments)\n",
			a.store.Backend(), len(a.store.Environments()))
		return nil
	}

	checker := health.New(cfg.Server.ReadTimeout)
	checker.RegisterCheck("store", health.PingCheck(a.store))
	checker.RegisterCheck("publish_root", health.WritableDirCheck(a.writer.Root()))

	if err := startDrift(ctx, cfg.Drift, a); err != nil {
		return cli.NewCommandError("serve", err)
	}

	handler := api.NewRouter(api.Config{
		Store:        a.store,
		Publisher:    a.publisher,
		Importer:     a.importer,
		Drift:        a.drift,
		Health:       checker,
		Metrics:      a.metrics,
		MetricsPath:  cfg.Telemetry.Metrics.Path,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Version:      Version,
		Commit:       GitCommit,
		BuildTime:    BuildDate,
	})

	slog.Info("gatecontrol starting",
		"version", Version,
		"listen_address", cfg.Server.ListenAddress,
		"storage", a.store.Backend(),
		"publish_root", a.writer.Root(),
		"drift", cfg.Drift.Enabled,
	)

	if err := server.New(&cfg.Server, handler).Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}

// startDrift launches the background drift scheduler and watcher. Both
// stop when ctx is cancelled.
func startDrift(ctx context.Context, cfg config.DriftConfig, a *app) error {
	if !cfg.Enabled {
		return nil
	}

	scheduler := drift.NewScheduler(a.drift, cfg.Schedule)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	if !cfg.Watch {
		return nil
	}
	watcher, err := drift.NewWatcher(a.drift, a.writer.Root(), cfg.Debounce)
	if err != nil {
		scheduler.Stop()
		return fmt.Errorf("failed to start drift watcher: %w", err)
	}
	go func() {
		defer watcher.Stop()
		if err := watcher.Watch(ctx); err != nil {
			slog.Error("drift watcher stopped", "component", "drift", "error", err)
		}
	}()
	return nil
}
