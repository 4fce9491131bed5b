// Dashboard API reconciles the consumption and production sources and serves
// the merged data, reports and live reload results.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/api"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/archive"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/config"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/hub"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/meterdb"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/metrics"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pathing"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pipeline"
)

func main() {
	configPath := flag.String("config", pathing.GetConfigPath(), "path to the TOML config")
	flag.Parse()
	os.Exit(run(*configPath))
}

func run(configPath string) int {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	appLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return 1
	}
	interval, err := cfg.ReloadInterval()
	if err != nil {
		appLog.Error("Invalid reload interval", logger.Err(err))
		return 1
	}
	rec := metrics.New()

	opts := []pipeline.Option{
		pipeline.WithArchive(archive.New(cfg.Path(cfg.Sources.ProductionArchive))),
	}
	serverOpts := []api.ServerOption{
		api.WithAddress(cfg.ListenAddr()),
		api.WithAllowOrigins(cfg.API.AllowedOrigins),
	}
	if cfg.Database.Enabled {
		store, err := meterdb.Open(cfg.Path(cfg.Database.Path))
		if err != nil {
			appLog.Error("Failed to open database", logger.Err(err))
			return 1
		}
		defer store.Close()
		opts = append(opts, pipeline.WithStore(store))
		serverOpts = append(serverOpts, api.WithRunHistory(store))
	}
	loader := pipeline.NewLoader(cfg, appLog, rec, opts...)

	h := hub.New(appLog, rec, cfg.API.AllowedOrigins)
	server := api.NewServer(loader, h, rec, appLog, serverOpts...)
	loader.OnLoad(server.Notify)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Serve the loading status while the first load runs
	if err := server.Start(); err != nil {
		appLog.Error("Failed to start server", logger.Err(err))
		return 1
	}
	if _, err := loader.Load(ctx); err != nil {
		appLog.Warn("Initial load failed", logger.Err(err))
	}

	if interval > 0 {
		go reloadLoop(ctx, loader, interval, appLog)
	}

	<-ctx.Done()
	appLog.Info("Shutting down")
	if err := server.Stop(context.Background()); err != nil {
		appLog.Error("Failed to stop server", logger.Err(err))
		return 1
	}
	return 0
}

// reloadLoop reloads on every tick. Unchanged sources are served from cache.
func reloadLoop(ctx context.Context, loader *pipeline.Loader, interval time.Duration, appLog *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := loader.Load(ctx); err != nil {
				appLog.Warn("Periodic reload failed", logger.Err(err))
			}
		}
	}
}
