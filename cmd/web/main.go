package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/doctor-booking-web/internal/appctx"
	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/config"
	"github.com/hackgods/doctor-booking-web/internal/db"
	"github.com/hackgods/doctor-booking-web/internal/events"
	"github.com/hackgods/doctor-booking-web/internal/logging"
	"github.com/hackgods/doctor-booking-web/internal/payment"
	redisclient "github.com/hackgods/doctor-booking-web/internal/redis"
	"github.com/hackgods/doctor-booking-web/internal/web"
)

var version = "dev"

// checkoutTTL bounds how long an opened checkout waits for the widget.
const checkoutTTL = 30 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, "web")
	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("backend_url", cfg.BackendURL).
		Str("version", version).
		Msg("web starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(cfg.BackendURL,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithLogger(logger),
	)

	routerCfg := web.RouterConfig{
		API:            client,
		Checkout:       payment.NewRegistry(checkoutTTL),
		Recorder:       events.NewLogRecorder(logger),
		Logger:         logger,
		BackendURL:     cfg.BackendURL,
		CurrencySymbol: cfg.CurrencySymbol,
		RazorpayKeyID:  cfg.RazorpayKeyID,
		CookieSecure:   cfg.CookieSecure,
		SettleDelay:    cfg.CancelSettleDelay,
		Env:            cfg.Env,
		Version:        version,
	}

	var (
		store  appctx.DoctorStore = appctx.NewMemoryStore()
		locker redisclient.Locker = redisclient.NewLocalLocker()
	)

	// Connect Redis
	if cfg.UseRedis() {
		rdb, err := redisclient.NewRedisClient(rootCtx, cfg.Redis, "web")
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		}()
		logger.Info().Msg("connected to Redis")

		store = appctx.NewCacheStore(redisclient.NewJSONCache(rdb, cfg.DoctorCacheTTL))
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
		routerCfg.Checkout = payment.NewRegistry(checkoutTTL,
			payment.WithSharedOrders(redisclient.NewJSONCache(rdb, checkoutTTL)))
		routerCfg.Redis = web.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	// Connect Postgres
	if cfg.UsePostgres() {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, "web")
		cancelPg()
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pgPool.Close()
		logger.Info().Msg("connected to Postgres")

		rec := events.NewPgRecorder(pgPool)
		if err := rec.EnsureSchema(rootCtx); err != nil {
			logger.Fatal().Err(err).Msg("event log schema error")
		}
		routerCfg.Recorder = rec
		routerCfg.Postgres = pgPool
	}

	routerCfg.Directory = appctx.NewDirectory(client, store, locker, logger)

	warmCtx, cancelWarm := context.WithTimeout(rootCtx, cfg.RequestTimeout)
	if err := routerCfg.Directory.RefreshDoctors(warmCtx); err != nil {
		logger.Warn().Err(err).Msg("initial doctor load failed, will retry on demand")
	}
	cancelWarm()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           web.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()

	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down web")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
