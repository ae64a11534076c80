// Package ratelimit limits how often one client may initiate payments,
// with a per-minute and a per-hour window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	WindowMinute = "minute"
	WindowHour   = "hour"
)

var _ application.RateLimiter = (*RedisLimiter)(nil)

// RedisLimiter counts requests in fixed windows shared by every instance.
type RedisLimiter struct {
	client    redis.Cmdable
	perMinute int64
	perHour   int64
	prefix    string
	now       func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, cfg config.RateLimitConfig) *RedisLimiter {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{
		client:    client,
		perMinute: int64(cfg.PerMinute),
		perHour:   int64(cfg.PerHour),
		prefix:    prefix,
		now:       time.Now,
	}
}

// Connect creates a client and verifies the server answers.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(cfg.Options())
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (application.RateDecision, error) {
	now := l.now()
	minuteStart := now.Truncate(time.Minute)
	hourStart := now.Truncate(time.Hour)

	minuteKey := fmt.Sprintf("%s:%s:m:%d", l.prefix, key, minuteStart.Unix())
	hourKey := fmt.Sprintf("%s:%s:h:%d", l.prefix, key, hourStart.Unix())

	pipe := l.client.TxPipeline()
	minuteCount := pipe.Incr(ctx, minuteKey)
	pipe.Expire(ctx, minuteKey, 2*time.Minute)
	hourCount := pipe.Incr(ctx, hourKey)
	pipe.Expire(ctx, hourKey, 2*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		return application.RateDecision{}, fmt.Errorf("rate limit counters: %w", err)
	}

	if l.perMinute > 0 && minuteCount.Val() > l.perMinute {
		return application.RateDecision{
			Window:     WindowMinute,
			RetryAfter: minuteStart.Add(time.Minute).Sub(now),
		}, nil
	}
	if l.perHour > 0 && hourCount.Val() > l.perHour {
		return application.RateDecision{
			Window:     WindowHour,
			RetryAfter: hourStart.Add(time.Hour).Sub(now),
		}, nil
	}

	return application.RateDecision{Allowed: true}, nil
}
