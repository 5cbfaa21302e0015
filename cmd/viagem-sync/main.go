package main

import (
	"context"
	"errors"
	"os"
	"time"

	"viagem/internal/amqp"
	"viagem/internal/backend"
	"viagem/internal/cache"
	"viagem/internal/cli"
	applog "viagem/internal/log"
	"viagem/internal/query"
	"viagem/internal/services"
	"viagem/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(nil, applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(boot.Slog())
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	slogger := logger.Slog()

	slogger.Info("Starting viagem-sync")

	if cfg.AMQPURL == "" {
		slogger.Error("AMQP_URL is required for viagem-sync", applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		slogger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		slogger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	store := cache.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheTTL)

	var (
		mutationLog worker.MutationLog
		mirrorSaver worker.MirrorSaver
	)
	repo := cli.InitSQLite(slogger, cfg)
	if repo != nil {
		defer repo.Close()
		mirror := services.NewMirror(store, repo, logger.WithComponent(applog.ComponentStorage).Slog())
		if _, err := mirror.Restore(context.Background()); err != nil {
			slogger.Warn("Failed to restore cache mirror", "error", err)
		}
		mutationLog, mirrorSaver = repo, mirror
	} else {
		slogger.Warn("SQLite mirror disabled: events are applied without deduplication or persistence")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, slogger)
	if err != nil {
		slogger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	client := query.NewClient(store, logger.WithComponent(applog.ComponentQuery).Slog())
	queries := query.TripQueries{API: result.Backend, StaleTime: cfg.QueryStaleTime}
	syncWorker := worker.NewSyncWorker(client, queries, mutationLog, mirrorSaver, slogger)

	ctx, done := cli.GracefulShutdown(slogger, 30*time.Second, nil)

	// Catch up on anything missed while the worker was down.
	countries := cfg.TripCountries
	if len(countries) == 0 {
		if countries, err = result.Backend.ListCountries(ctx); err != nil {
			slogger.Error("Failed to list trip countries", "error", err)
		}
	}
	if err := syncWorker.StartupSync(ctx, countries); err != nil {
		slogger.Error("Failed startup sync", "error", err)
	}

	go func() {
		err := amqpClient.ConsumeMutations(ctx, syncWorker.HandleMutation)
		if err != nil && !errors.Is(err, context.Canceled) {
			slogger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	if mutationLog != nil {
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := syncWorker.PruneLog(ctx, cfg.MutationLogRetention); err != nil {
						slogger.Error("Mutation log prune failed", "error", err)
					}
				}
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	slogger.Info("Worker shutdown complete")
}
