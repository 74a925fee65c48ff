package server

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimitConfig tunes the server-wide token bucket and the per-sender limit
// on webhook deliveries. A Redis address makes the webhook counters shared
// across gateway replicas; without it they are kept in process memory.
type RateLimitConfig struct {
	GlobalRPS     float64
	GlobalBurst   int
	WebhookLimit  int
	WebhookWindow time.Duration
	RedisAddr     string
	RedisPassword string
	RedisTimeout  time.Duration
}

type rateLimiter struct {
	global        *tokenBucket
	webhookLimit  int
	webhookWindow time.Duration
	webhookMu     sync.Mutex
	webhookBucket map[string]*ipLimiter
	store         counterStore
}

type ipLimiter struct {
	bucket   *tokenBucket
	lastSeen time.Time
}

type counterStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	rl := &rateLimiter{
		webhookLimit:  cfg.WebhookLimit,
		webhookWindow: cfg.WebhookWindow,
		webhookBucket: make(map[string]*ipLimiter),
	}
	if cfg.GlobalRPS > 0 {
		burst := cfg.GlobalBurst
		if burst <= 0 {
			burst = int(cfg.GlobalRPS)
			if burst < 1 {
				burst = 1
			}
		}
		rl.global = newTokenBucket(cfg.GlobalRPS, burst)
	}
	if rl.webhookLimit < 0 {
		rl.webhookLimit = 0
	}
	if rl.webhookWindow <= 0 {
		rl.webhookWindow = time.Minute
	}
	if cfg.RedisAddr != "" && rl.webhookLimit > 0 {
		timeout := cfg.RedisTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		rl.store = newRedisStore(cfg.RedisAddr, cfg.RedisPassword, timeout)
	}
	return rl
}

func (r *rateLimiter) AllowRequest() bool {
	if r == nil || r.global == nil {
		return true
	}
	return r.global.Allow()
}

func (r *rateLimiter) AllowWebhook(ctx context.Context, key string) (bool, time.Duration, error) {
	if r == nil || r.webhookLimit <= 0 {
		return true, 0, nil
	}
	if r.store != nil {
		return r.store.Allow(ctx, fmt.Sprintf("reelgate:webhook:%s", key), r.webhookLimit, r.webhookWindow)
	}
	if key == "" {
		key = "unknown"
	}
	r.webhookMu.Lock()
	bucket, exists := r.webhookBucket[key]
	if !exists {
		rate := float64(r.webhookLimit) / r.webhookWindow.Seconds()
		if rate <= 0 {
			rate = 1 / r.webhookWindow.Seconds()
		}
		bucket = &ipLimiter{bucket: newTokenBucket(rate, r.webhookLimit)}
		r.webhookBucket[key] = bucket
	}
	bucket.lastSeen = time.Now()
	r.cleanupLocked()
	r.webhookMu.Unlock()

	if bucket.bucket.Allow() {
		return true, 0, nil
	}
	return false, time.Second, nil
}

func (r *rateLimiter) cleanupLocked() {
	if len(r.webhookBucket) == 0 {
		return
	}
	cutoff := time.Now().Add(-2 * r.webhookWindow)
	for key, bucket := range r.webhookBucket {
		if bucket.lastSeen.Before(cutoff) {
			delete(r.webhookBucket, key)
		}
	}
}

type tokenBucket struct {
	mu        sync.Mutex
	rate      float64
	capacity  float64
	tokens    float64
	lastCheck time.Time
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	now := time.Now()
	return &tokenBucket{
		rate:      rate,
		capacity:  float64(burst),
		tokens:    float64(burst),
		lastCheck: now,
	}
}

func (tb *tokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := time.Now()
	elapsed := now.Sub(tb.lastCheck).Seconds()
	tb.lastCheck = now
	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	if tb.tokens < 1 {
		return false
	}
	tb.tokens -= 1
	return true
}
