package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/config"
	"golang.org/x/time/rate"
)

var _ application.RateLimiter = (*LocalLimiter)(nil)

const idleEviction = time.Hour

type buckets struct {
	minute   *rate.Limiter
	hour     *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is a per-process token bucket limiter, used when no Redis
// server is configured.
type LocalLimiter struct {
	mu        sync.Mutex
	perMinute int
	perHour   int
	clients   map[string]*buckets
	now       func() time.Time
}

func NewLocalLimiter(cfg config.RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{
		perMinute: cfg.PerMinute,
		perHour:   cfg.PerHour,
		clients:   make(map[string]*buckets),
		now:       time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (application.RateDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.bucketsFor(key, now)

	minute := b.minute.ReserveN(now, 1)
	if wait := minute.DelayFrom(now); !minute.OK() || wait > 0 {
		minute.CancelAt(now)
		return application.RateDecision{Window: WindowMinute, RetryAfter: wait}, nil
	}

	hour := b.hour.ReserveN(now, 1)
	if wait := hour.DelayFrom(now); !hour.OK() || wait > 0 {
		hour.CancelAt(now)
		minute.CancelAt(now)
		return application.RateDecision{Window: WindowHour, RetryAfter: wait}, nil
	}

	return application.RateDecision{Allowed: true}, nil
}

func (l *LocalLimiter) bucketsFor(key string, now time.Time) *buckets {
	b, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= 1024 {
			l.evictIdle(now)
		}
		b = &buckets{
			minute: newLimiter(l.perMinute, time.Minute),
			hour:   newLimiter(l.perHour, time.Hour),
		}
		l.clients[key] = b
	}
	b.lastSeen = now
	return b
}

func (l *LocalLimiter) evictIdle(now time.Time) {
	for k, b := range l.clients {
		if now.Sub(b.lastSeen) > idleEviction {
			delete(l.clients, k)
		}
	}
}

// newLimiter allows n events per window with a burst of n. Zero disables
// the window.
func newLimiter(n int, window time.Duration) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(n)), n)
}
