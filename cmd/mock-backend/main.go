package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/hackgods/doctor-booking-web/internal/logging"
	"github.com/hackgods/doctor-booking-web/internal/mockapi"
	"github.com/hackgods/doctor-booking-web/internal/web"
)

func main() {
	_ = godotenv.Load()

	logger := logging.New(getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info"), "mock-backend")

	port := getEnv("MOCK_PORT", "4000")
	doctors := getInt("MOCK_DOCTORS", 15)
	seed := getInt("MOCK_SEED", 0)
	token := getEnv("MOCK_TOKEN", "demo-token")

	logger.Info().Int("doctors", doctors).Int("seed", seed).Msg("seeding mock backend")

	srv := mockapi.New(logger)
	srv.Seed(gofakeit.New(uint64(seed)), doctors)
	srv.AddUser(token, "demo-user")

	logger.Info().Str("token", token).Msg("demo user ready, paste the token on /login")

	r := chi.NewRouter()
	r.Use(web.RequestIDMiddleware)
	r.Use(web.LoggingMiddleware(logger))
	r.Use(web.RecoverMiddleware)
	r.Mount("/", srv.Routes())

	httpSrv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", httpSrv.Addr).Msg("mock backend listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	logger.Info().Msg("mock backend stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
