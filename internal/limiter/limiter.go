// Package limiter bounds the number of CSV imports processed at once.
//
// Local keeps the count in process. Redis shares it between replicas so
// the bound holds for the whole deployment. Both return
// core.ErrTooManyImports when no slot frees up within the wait budget.
package limiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/config"
	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/go-redis/redis/v8"
)

// DefaultMaxConcurrent is the default limit for parallel imports.
const DefaultMaxConcurrent = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// Limiter is an import limiter that can be drained on shutdown.
type Limiter interface {
	core.ImportLimiter

	// ActiveCount returns the imports this process currently holds.
	ActiveCount() int

	// WaitForDrain blocks until ActiveCount reaches zero or ctx ends.
	WaitForDrain(ctx context.Context) error

	Close() error
}

// New returns a Redis limiter when rc.URL is set, otherwise a Local one.
func New(ctx context.Context, uc config.UploadConfig, rc config.RedisConfig) (Limiter, error) {
	if rc.URL == "" {
		return NewLocal(uc.MaxConcurrent, uc.MaxWaitTime), nil
	}

	opts, err := redis.ParseURL(rc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	slog.Info("using shared import limiter", "redis_addr", opts.Addr, "max_concurrent", uc.MaxConcurrent)
	return NewRedis(client, RedisOptions{
		MaxConcurrent: uc.MaxConcurrent,
		MaxWait:       uc.MaxWaitTime,
		KeyPrefix:     rc.KeyPrefix,
		SlotTTL:       rc.SlotTTL,
	}), nil
}

// waitForDrain polls active until it reports zero.
func waitForDrain(ctx context.Context, active func() int) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
