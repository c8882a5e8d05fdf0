package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key, typically a client IP.
// Buckets idle for longer than the cleanup interval are dropped.
type KeyedLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	visitors map[string]*visitor
	stop     chan struct{}
	once     sync.Once
}

// NewKeyedLimiter allows perMinute requests per key with the given burst.
func NewKeyedLimiter(perMinute, burst int, cleanupInterval time.Duration) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &KeyedLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		visitors: make(map[string]*visitor),
		stop:     make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go l.cleanup(cleanupInterval)
	}
	return l
}

// Allow reports whether one more request for key may proceed now.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()

	return v.limiter.Allow()
}

// Close stops the cleanup goroutine.
func (l *KeyedLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *KeyedLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle(interval)
		case <-l.stop:
			return
		}
	}
}

func (l *KeyedLimiter) evictIdle(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
		}
	}
}

// QuotaLimiter counts events per key in fixed windows stored in the cache,
// so the quota holds across instances sharing a Redis.
type QuotaLimiter struct {
	cache  outbound.CacheRepository
	name   string
	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewQuotaLimiter allows limit events per window for each key. A limit of
// zero or less disables the quota.
func NewQuotaLimiter(cache outbound.CacheRepository, name string, limit int, window time.Duration, logger *zap.Logger) *QuotaLimiter {
	return &QuotaLimiter{
		cache:  cache,
		name:   name,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Allow records one event for key and reports whether it is within quota.
// Cache failures fail open.
func (q *QuotaLimiter) Allow(ctx context.Context, key string) bool {
	if q == nil || q.limit <= 0 {
		return true
	}

	bucket := q.now().Truncate(q.window).Unix()
	count, err := q.cache.Increment(ctx, fmt.Sprintf("quota:%s:%s:%d", q.name, key, bucket), q.window)
	if err != nil {
		q.logger.Warn("Quota check failed, allowing request", zap.String("quota", q.name), zap.Error(err))
		return true
	}
	return count <= int64(q.limit)
}
