package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Env            string // dev, prod
	HTTPPort       string // default 8080
	BackendURL     string // booking backend base URL
	CurrencySymbol string // shown next to fees
	RazorpayKeyID  string // public checkout key

	PostgresDSN string         // optional, enables the event log
	Redis       *redis.Options // optional, enables the shared doctor cache

	DoctorCacheTTL    time.Duration // how long a cached doctor list is served
	LockTTL           time.Duration // how long the refresh lock lives
	RequestTimeout    time.Duration // per backend call
	CancelSettleDelay time.Duration // pause after a cancellation before refetching
	ShutdownTimeout   time.Duration // graceful shutdown timeout
	WorkerInterval    time.Duration // how often the cache warmer runs

	LogLevel     string
	CookieSecure bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		BackendURL:        strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:4000"), "/"),
		CurrencySymbol:    getEnv("CURRENCY_SYMBOL", "₹"),
		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		DoctorCacheTTL:    getDuration("DOCTOR_CACHE_TTL", 5*time.Minute),
		LockTTL:           getDuration("LOCK_TTL", 5*time.Second),
		RequestTimeout:    getDuration("REQUEST_TIMEOUT", 10*time.Second),
		CancelSettleDelay: getDuration("CANCEL_SETTLE_DELAY", 500*time.Millisecond),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		WorkerInterval:    getDuration("WORKER_INTERVAL", time.Minute),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CookieSecure:      getBool("COOKIE_SECURE", false),
	}

	if _, err := url.ParseRequestURI(cfg.BackendURL); err != nil {
		return Config{}, fmt.Errorf("invalid BACKEND_URL: %w", err)
	}
	if cfg.Env == "prod" && cfg.RazorpayKeyID == "" {
		return Config{}, errors.New("RAZORPAY_KEY_ID is required in prod")
	}

	redisOpts, err := redisOptions()
	if err != nil {
		return Config{}, err
	}
	cfg.Redis = redisOpts

	return cfg, nil
}

// UseRedis reports whether a shared cache is configured. Without it every
// process keeps its own doctor list.
func (c Config) UseRedis() bool { return c.Redis != nil }

func (c Config) UsePostgres() bool { return c.PostgresDSN != "" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		fmt.Fprintf(os.Stderr, "invalid duration for %s=%q, using default %s\n", key, v, def)
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		fmt.Fprintf(os.Stderr, "invalid bool for %s=%q, using default %t\n", key, v, def)
	}
	return def
}

// redisOptions reads REDIS_URL (redis:// or rediss://, optional /db path and
// query options) or else REDIS_ADDR with REDIS_USERNAME, REDIS_PASSWORD and
// REDIS_DB. It returns nil when neither is set.
func redisOptions() (*redis.Options, error) {
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return opts, nil
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil, nil
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	return &redis.Options{
		Addr:     addr,
		Username: os.Getenv("REDIS_USERNAME"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}
