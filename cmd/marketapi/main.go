package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wastemarket/mobile/internal/cache"
	"wastemarket/mobile/internal/config"
	"wastemarket/mobile/internal/database"
	"wastemarket/mobile/internal/handlers"
	"wastemarket/mobile/internal/jobs"
	"wastemarket/mobile/internal/log"
	"wastemarket/mobile/internal/repository"
	"wastemarket/mobile/internal/server"
	"wastemarket/mobile/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel)

	ctx := context.Background()

	var (
		store  repository.Store
		dbPool *pgxpool.Pool
	)
	switch cfg.Backend.Repository.Driver {
	case "postgres":
		dbPool, err = database.NewPostgresPool(ctx, cfg.Backend.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate postgres")
		}
		store = repository.NewPostgresStore(dbPool)
	case "", "memory":
		store = repository.NewMemoryStore()
		logger.Warn().Msg("using in-memory repository; data is lost on restart")
	default:
		logger.Fatal().Str("driver", cfg.Backend.Repository.Driver).Msg("unknown repository driver")
	}

	var redisClient *redis.Client
	if cfg.Backend.UseRedis {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
	}

	objectStore, err := storage.New(ctx, cfg.Backend.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Deps{
		Store:   store,
		Objects: objectStore,
		DB:      dbPool,
		Cache:   redisClient,
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(store.Sessions, cfg.Backend.Jobs.SessionSweep, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
