package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/adb3502/liims-sub002/internal/adapter"
	"github.com/adb3502/liims-sub002/internal/config"
	"github.com/adb3502/liims-sub002/internal/connectivity"
	"github.com/adb3502/liims-sub002/internal/logger"
	"github.com/adb3502/liims-sub002/internal/service"
	"github.com/adb3502/liims-sub002/internal/store"
	"github.com/adb3502/liims-sub002/internal/workers"
	"github.com/adb3502/liims-sub002/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewClientLogger("liims-sync-client")
	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	serverAdapter := adapter.NewHTTPServerAdapter(cfg.Adapter, cfg.App, log)

	localStorage, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	monitor := connectivity.NewProbeMonitor(serverAdapter, cfg.Sync.ProbeInterval, log)
	engine := service.NewSyncEngine(localStorage, serverAdapter, monitor, cfg, log)
	job := service.NewSyncJob(engine, localStorage.Mutations, cfg.Sync.Interval, log)

	unsubscribe := engine.Subscribe(func(p models.SyncProgress) {
		log.Info().
			Str("state", string(p.State)).
			Int("total", p.Total).
			Int("completed", p.Completed).
			Int("failed", p.Failed).
			Int("conflicts", len(p.Conflicts)).
			Msg("sync progress")
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workers.New(log, monitor, job).Run(ctx)

	// background cycle outcomes come in over the job's relay channel
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-job.Completions():
				log.Info().
					Str("state", string(p.State)).
					Int("total", p.Total).
					Int("completed", p.Completed).
					Int("failed", p.Failed).
					Msg("background sync cycle finished")
			}
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	unsubscribe()
	job.Stop()
	monitor.Stop()
	engine.Close()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
