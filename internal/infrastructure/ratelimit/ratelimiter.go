// Package ratelimit enforces per-caller request budgets over a sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retailhub/retailhub/internal/shared/config"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Rule is one request budget: at most Max requests per Window for each
// subject under KeyPrefix.
type Rule struct {
	KeyPrefix string
	Window    time.Duration
	Max       int
}

// Key returns the compound bucket key for subject.
func (r Rule) Key(subject string) string {
	return r.KeyPrefix + ":" + subject
}

// Result is the outcome of a single Check.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is set on denial: the time until the oldest counted request
	// leaves the window.
	RetryAfter time.Duration
}

// Limiter checks and records requests against a Rule.
type Limiter interface {
	Check(ctx context.Context, rule Rule, subject string) (Result, error)
}

var (
	_ Limiter = (*MemoryLimiter)(nil)
	_ Limiter = (*RedisLimiter)(nil)
)

// New builds the limiter selected by cfg.Backend. client may be nil for the
// memory backend.
func New(cfg config.RateLimitConfig, client *redis.Client, log logger.Interface) (Limiter, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryLimiter(log, WithMaxKeys(cfg.MaxKeys)), nil
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("rate limit backend %q requires a redis client", cfg.Backend)
		}
		return NewRedisLimiter(client), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}
}
