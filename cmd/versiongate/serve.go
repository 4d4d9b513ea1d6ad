package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/api"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/config"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/container"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/deploy"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/dockerfile"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/exec"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/health"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/metrics"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/reconciler"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/source"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/traffic"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/watcher"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the VersionGate engine",
	Long: `Run the VersionGate engine: the deployment pipeline, the REST API,
the boot reconciler, and the container watcher.

Configuration comes from the environment (DATABASE_URL, PROJECTS_ROOT_PATH,
NGINX_CONFIG_PATH, PORT, WATCH_INTERVAL_SECONDS, ...). The engine expects
docker, git, and nginx available on the host it runs on.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %v", err)
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogFormat == "json",
	})
	logger := log.WithComponent("serve")
	metrics.SetVersion(Version)

	store, err := storage.NewBoltStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}
	defer store.Close()
	metrics.RegisterComponent("store", true, "bolt database open")

	runner := exec.NewRunner()
	engine := container.NewEngine(runner)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelBoot()

	// EnsureNetwork doubles as the docker liveness probe: if the daemon is
	// down there is nothing this process can usefully do.
	if err := engine.EnsureNetwork(bootCtx, cfg.DockerNetwork); err != nil {
		metrics.RegisterComponent("docker", false, err.Error())
		return fmt.Errorf("failed to prepare docker network %s: %v", cfg.DockerNetwork, err)
	}
	metrics.RegisterComponent("docker", true, "network "+cfg.DockerNetwork+" ready")

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	switcher := traffic.NewSwitcher(runner, cfg.NginxConfigPath)
	pipeline := deploy.NewOrchestrator(deploy.Config{
		Store:     store,
		Fetcher:   source.NewFetcher(runner, cfg.ProjectsRoot),
		Synth:     dockerfile.NewSynthesizer(),
		Engine:    engine,
		Validator: health.NewValidator(engine, health.DefaultPolicy()),
		Traffic:   switcher,
		Broker:    broker,
		Network:   cfg.DockerNetwork,
	})

	// Repair state left over from a crash before accepting any work
	recon := reconciler.NewReconciler(store, engine, broker)
	report, err := recon.RunOnce(bootCtx)
	if err != nil {
		return fmt.Errorf("failed to reconcile state at boot: %v", err)
	}
	logger.Info().
		Int("deploying_fixed", report.DeployingFixed).
		Int("active_invalidated", report.ActiveInvalidated).
		Msg("Boot reconciliation complete")

	collector := metrics.NewCollector(store)
	collector.Start()
	defer collector.Stop()

	interval := time.Duration(cfg.WatchInterval) * time.Second
	w := watcher.NewWatcher(store, engine, broker, interval)
	w.Start()
	defer w.Stop()

	srv := api.NewServer(api.Config{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		ProjectsRoot: cfg.ProjectsRoot,
		Store:        store,
		Pipeline:     pipeline,
		Engine:       engine,
		Traffic:      switcher,
		Reconciler:   recon,
		Hooks:        webhook.NewDispatcher(store, pipeline),
		Broker:       broker,
	})
	errCh := srv.Start()
	logger.Info().Int("port", cfg.Port).Str("version", Version).Msg("VersionGate is up")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		return fmt.Errorf("API server error: %v", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("API shutdown incomplete")
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}
