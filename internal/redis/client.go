package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 1
	defaultIOTimeout    = 2 * time.Second
	pingTimeout         = 5 * time.Second
)

// NewRedisClient connects with opts and checks the server answers. opts
// usually come from a REDIS_URL, so TLS and the DB index are whatever the
// URL said; pool and timeout settings left unset there get our defaults.
func NewRedisClient(ctx context.Context, opts *redis.Options, clientName string) (*redis.Client, error) {
	rdb := redis.NewClient(clientOptions(opts, clientName))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	return rdb, nil
}

// clientOptions returns a copy of opts with defaults filled in.
func clientOptions(opts *redis.Options, clientName string) *redis.Options {
	o := *opts
	if o.ClientName == "" {
		o.ClientName = clientName
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = defaultIOTimeout
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = defaultIOTimeout
	}
	if o.PoolSize == 0 {
		o.PoolSize = defaultPoolSize
	}
	if o.MinIdleConns == 0 {
		o.MinIdleConns = defaultMinIdleConns
	}
	return &o
}
