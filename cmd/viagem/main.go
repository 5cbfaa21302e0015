package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"viagem/internal/amqp"
	"viagem/internal/backend"
	"viagem/internal/cache"
	"viagem/internal/cli"
	apphttp "viagem/internal/http"
	applog "viagem/internal/log"
	"viagem/internal/services"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(nil, applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(boot.Slog())
	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	slogger := logger.Slog()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		slogger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(startCtx, backendCfg)
	if err != nil {
		slogger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	store := cache.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheTTL)

	// Restore the last persisted cache before anything reads it.
	var mirror *services.Mirror
	repo := cli.InitSQLite(slogger, cfg)
	if repo != nil {
		mirror = services.NewMirror(store, repo, logger.WithComponent(applog.ComponentStorage).Slog())
		if _, err := mirror.Restore(startCtx); err != nil {
			slogger.Warn("Failed to restore cache mirror, starting cold", "error", err)
		}
	}

	var (
		publisher  services.Publisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, slogger)
		if err != nil {
			slogger.Warn("Failed to initialize AMQP client, continuing without mutation events", "error", err)
		} else {
			publisher = amqpClient
			slogger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	trip := services.NewTrip(services.Config{
		API:       result.Backend,
		Store:     store,
		Publisher: publisher,
		Origins:   cfg.BudgetOrigins,
		StaleTime: cfg.QueryStaleTime,
		Summary:   services.SummaryOptions{LegacyExpenseOrigin: cfg.LegacyExpenseOrigin},
		Partition: services.PartitionOptions{RenumberOnMigration: cfg.PartitionRenumberOnMigration},
		Logger:    slogger,
	})

	countries := cfg.TripCountries
	if len(countries) == 0 {
		if countries, err = trip.Countries(startCtx); err != nil {
			slogger.Warn("Failed to list trip countries", "error", err)
		}
	}
	if err := trip.Warm(startCtx, countries); err != nil {
		// Requests will fetch on demand.
		slogger.Warn("Cache warm-up failed", "error", err, "countries", countries)
	}
	startCancel()

	srv := apphttp.NewServer(":"+cfg.Port, trip, apphttp.Options{
		Countries: cfg.TripCountries,
		Logger:    logger,
		Ready:     result.Ready,
	})

	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	cacheManager.Register(store)
	cacheManager.StartCleanup(10 * time.Minute)

	mirrorDone := make(chan struct{})
	ctx, done := cli.GracefulShutdown(slogger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slogger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		<-mirrorDone
		if repo != nil {
			if err := repo.Close(); err != nil {
				slogger.Error("Failed to close SQLite repository", "error", err)
			}
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				slogger.Error("Failed to close AMQP client", "error", err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				slogger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	go func() {
		defer close(mirrorDone)
		if mirror != nil {
			mirror.Run(ctx, cfg.MirrorInterval)
		}
	}()

	slogger.Info("Starting viagem server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"mirror", cfg.MirrorEnabled(),
		"events", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slogger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	slogger.Info("Server stopped gracefully")
}
