// Package cache holds the shared Redis client and the cache-aside helpers
// used for user rows. Every helper degrades to a no-op without Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"warbler/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// errorCounter feeds failed commands into the warbler_redis_errors_total metric.
// Cache misses (redis.Nil) are not failures.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countError(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countError("pipeline", err)
		return err
	}
}

func countError(command string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrors.WithLabelValues(command).Inc()
	}
}

// ParseAddr accepts either a redis:// URL or a bare host:port.
func ParseAddr(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("empty redis address")
	}
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}

// InitRedis connects to addr and installs the shared client. Warbler runs
// without Redis, so any failure is logged and leaves the client nil.
func InitRedis(addr string) {
	opts, err := ParseAddr(addr)
	if err != nil {
		log.Printf("Redis disabled: %v", err)
		client = nil
		return
	}

	c := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		log.Printf("Redis disabled: ping %s: %v", opts.Addr, err)
		_ = c.Close()
		client = nil
		return
	}

	c.AddHook(errorCounter{})
	SetClient(c)
	log.Printf("Redis connected at %s", opts.Addr)
}

// SetClient replaces the shared client. Tests point it at miniredis.
// Only clients built by InitRedis carry the error-counting hook.
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the shared client, or nil when Redis is disabled.
func GetClient() *redis.Client {
	return client
}
