package limiter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/go-redis/redis/v8"
)

const (
	redisKey          = "imports:active"
	redisPollInterval = 200 * time.Millisecond
	releaseTimeout    = 5 * time.Second
)

// acquireScript takes a slot if the shared count is below ARGV[1] and
// returns the new count, or ARGV[1]+1 when the limit is reached.
var acquireScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return current + 1
end
local n = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return n`)

// releaseScript gives a slot back and drops the key once it reaches zero.
var releaseScript = redis.NewScript(`
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
	redis.call('DEL', KEYS[1])
	return 0
end
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
return n`)

// RedisOptions configures a Redis limiter.
type RedisOptions struct {
	MaxConcurrent int
	MaxWait       time.Duration
	KeyPrefix     string

	// SlotTTL expires the shared count if every holder dies without releasing.
	SlotTTL time.Duration

	// Logger receives script failures. Nil uses slog.Default().
	Logger *slog.Logger
}

// Redis bounds imports across every process sharing the same key.
type Redis struct {
	client        *redis.Client
	key           string
	maxConcurrent int
	maxWait       time.Duration
	ttlSeconds    int
	logger        *slog.Logger

	mu     sync.Mutex
	active int
}

// NewRedis creates a shared limiter over client.
func NewRedis(client *redis.Client, opts RedisOptions) *Redis {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWaitTime
	}
	ttl := int(opts.SlotTTL.Seconds())
	if ttl < 1 {
		ttl = 600
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Redis{
		client:        client,
		key:           opts.KeyPrefix + redisKey,
		maxConcurrent: opts.MaxConcurrent,
		maxWait:       opts.MaxWait,
		ttlSeconds:    ttl,
		logger:        opts.Logger,
	}
}

// Acquire polls for a shared slot until one frees up or maxWait passes.
func (l *Redis) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	ticker := time.NewTicker(redisPollInterval)
	defer ticker.Stop()

	for {
		n, err := acquireScript.Run(waitCtx, l.client, []string{l.key}, l.maxConcurrent, l.ttlSeconds).Int()
		if err != nil {
			if waitCtx.Err() == nil {
				return fmt.Errorf("acquire import slot: %w", err)
			}
			l.logger.Warn("acquire import slot failed", "key", l.key, "error", err)
		}
		if err == nil && n <= l.maxConcurrent {
			l.mu.Lock()
			l.active++
			l.mu.Unlock()
			return nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return core.ErrTooManyImports
		case <-ticker.C:
		}
	}
}

// Release gives a slot back. It does not take a context because the
// import's own context may already be done; a failure is only logged and
// the slot then expires with SlotTTL.
func (l *Redis) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.ttlSeconds).Err(); err != nil {
		l.logger.Warn("release import slot failed", "key", l.key, "error", err)
	}
}

// ActiveCount returns the slots held by this process.
func (l *Redis) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// SharedCount returns the slots held across all processes.
func (l *Redis) SharedCount(ctx context.Context) (int, error) {
	n, err := l.client.Get(ctx, l.key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read import slots: %w", err)
	}
	return n, nil
}

// WaitForDrain blocks until this process holds no slots or ctx ends.
func (l *Redis) WaitForDrain(ctx context.Context) error {
	return waitForDrain(ctx, l.ActiveCount)
}

func (l *Redis) Close() error {
	return l.client.Close()
}
