// Package cache owns the shared Redis client used for rate limiting and
// token revocation. Redis is optional: when unreachable the client is left
// nil and both features degrade (limits fail per policy, revocation is
// skipped) rather than blocking startup.
package cache

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"aimarket/internal/middleware"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// metricsHook feeds command failures into the Prometheus error counter so
// Redis degradation shows up on dashboards even with the nil-client fallback.
type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// InitRedis connects to Redis at the given address, which may be a bare
// host:port or a redis:// URL. A failed connection logs a warning and leaves
// the client nil.
func InitRedis(addr string) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Printf("Redis connection warning: invalid REDIS_URL %q: %v (continuing without Redis)", addr, err)
			client = nil
			return
		}
		opts = parsed
	}

	candidate := redis.NewClient(opts)
	candidate.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := candidate.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without Redis)", err)
		client = nil
		return
	}

	log.Println("Redis connected successfully")
	client = candidate
}

// GetClient returns the shared client, or nil when Redis is unavailable.
func GetClient() *redis.Client {
	return client
}
