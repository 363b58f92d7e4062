// Package cache builds the Redis client shared by the report cache,
// idempotency keys and the Redis pub/sub invalidation listener.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the Redis client.
type Options struct {
	Addr        string
	DB          int
	PingTimeout time.Duration
}

// Connect creates a client and pings it. The client is returned even when the
// ping fails so callers may continue without a cache.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: opts.Addr, DB: opts.DB})
	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("platform/cache: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}
