package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores JSON encoded values under plain string keys.
type JSONCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewJSONCache(client *redis.Client, ttl time.Duration) *JSONCache {
	return &JSONCache{client: client, ttl: ttl}
}

// Get decodes the value at key into v. It reports false on a miss.
func (c *JSONCache) Get(ctx context.Context, key string, v any) (bool, error) {
	return c.decode(key, v, c.client.Get(ctx, key))
}

// Take is Get that also deletes the key, so only one caller sees the value.
func (c *JSONCache) Take(ctx context.Context, key string, v any) (bool, error) {
	return c.decode(key, v, c.client.GetDel(ctx, key))
}

func (c *JSONCache) decode(key string, v any, cmd *redis.StringCmd) (bool, error) {
	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *JSONCache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
