package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/doctor-booking-web/internal/appctx"
	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/config"
	"github.com/hackgods/doctor-booking-web/internal/logging"
	redisclient "github.com/hackgods/doctor-booking-web/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, "cache-warmer")
	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("cache-warmer starting up")

	if !cfg.UseRedis() {
		logger.Fatal().Msg("REDIS_URL or REDIS_ADDR is required: the warmer fills the shared doctor cache")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.Redis, "cache-warmer")
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	client := backend.NewClient(cfg.BackendURL, backend.WithTimeout(cfg.RequestTimeout), backend.WithLogger(logger))
	store := appctx.NewCacheStore(redisclient.NewJSONCache(rdb, cfg.DoctorCacheTTL))
	dir := appctx.NewDirectory(client, store, redisclient.NewRedisLocker(rdb, cfg.LockTTL), logger)

	// Run once at startup
	runOnce(rootCtx, dir, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping cache-warmer")
			return
		case <-ticker.C:
			runOnce(rootCtx, dir, logger)
		}
	}
}

func runOnce(ctx context.Context, dir *appctx.Directory, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := dir.RefreshDoctors(runCtx); err != nil {
		logger.Error().Err(err).Msg("refresh run error")
		return
	}

	docs, err := dir.Doctors(runCtx)
	if err != nil {
		logger.Error().Err(err).Msg("reading refreshed cache failed")
		return
	}
	logger.Info().Int("doctors", len(docs)).Dur("took", time.Since(start)).Msg("refresh run complete")
}
