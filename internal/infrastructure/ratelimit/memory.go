package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/retailhub/retailhub/internal/shared/goroutine"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

type bucket struct {
	mu     sync.Mutex
	hits   []time.Time
	window time.Duration
	// lastSeen is unix nanos of the last check, read without mu by eviction.
	lastSeen atomic.Int64
}

// trim drops hits strictly older than now-window. A hit exactly on the
// boundary is still counted.
func (b *bucket) trim(now time.Time, window time.Duration) {
	boundary := now.Add(-window)
	i := 0
	for i < len(b.hits) && b.hits[i].Before(boundary) {
		i++
	}
	if i > 0 {
		b.hits = append(b.hits[:0], b.hits[i:]...)
	}
}

// MemoryLimiter is a single-process sliding-window limiter. Checks on one key
// are serialized; different keys proceed in parallel.
type MemoryLimiter struct {
	clock   clock.Clock
	maxKeys int
	logger  logger.Interface

	mu      sync.Mutex
	buckets map[string]*bucket
}

type MemoryOption func(*MemoryLimiter)

// WithClock replaces the wall clock. Tests pass clock.NewMock().
func WithClock(c clock.Clock) MemoryOption {
	return func(l *MemoryLimiter) {
		l.clock = c
	}
}

// WithMaxKeys caps the number of live buckets. When full, the bucket with the
// oldest activity is evicted to make room. Zero means unbounded.
func WithMaxKeys(n int) MemoryOption {
	return func(l *MemoryLimiter) {
		l.maxKeys = n
	}
}

func NewMemoryLimiter(log logger.Interface, opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		clock:   clock.New(),
		logger:  log,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records a request for subject under rule unless the window is full.
// A rule with Max <= 0 is unlimited.
func (l *MemoryLimiter) Check(_ context.Context, rule Rule, subject string) (Result, error) {
	if rule.Max <= 0 {
		return Result{Allowed: true}, nil
	}

	now := l.clock.Now()
	b := l.bucketFor(rule.Key(subject), now)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.window = rule.Window
	b.trim(now, rule.Window)

	if len(b.hits) >= rule.Max {
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: rule.Window - now.Sub(b.hits[0]),
		}, nil
	}

	b.hits = append(b.hits, now)
	return Result{Allowed: true, Remaining: rule.Max - len(b.hits)}, nil
}

func (l *MemoryLimiter) bucketFor(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if l.maxKeys > 0 && len(l.buckets) >= l.maxKeys {
			l.evictOldestLocked()
		}
		b = &bucket{}
		l.buckets[key] = b
	}
	b.lastSeen.Store(now.UnixNano())
	return b
}

func (l *MemoryLimiter) evictOldestLocked() {
	var (
		oldestKey string
		oldest    int64
	)
	for k, b := range l.buckets {
		if seen := b.lastSeen.Load(); oldestKey == "" || seen < oldest {
			oldestKey, oldest = k, seen
		}
	}
	if oldestKey != "" {
		delete(l.buckets, oldestKey)
		l.logger.Debugw("rate limit bucket evicted", "key", oldestKey)
	}
}

// Count returns the number of requests currently recorded under key.
func (l *MemoryLimiter) Count(key string) int {
	l.mu.Lock()
	b, ok := l.buckets[key]
	l.mu.Unlock()
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.hits)
}

// Len returns the number of live buckets.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep drops buckets whose every recorded request has left the window and
// returns how many were removed.
func (l *MemoryLimiter) Sweep() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		b.mu.Lock()
		b.trim(now, b.window)
		idle := len(b.hits) == 0
		b.mu.Unlock()
		if idle {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps every interval until ctx is done.
func (l *MemoryLimiter) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := l.clock.Ticker(interval)
	goroutine.SafeGo(l.logger, "ratelimit-janitor", func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.Sweep(); n > 0 {
					l.logger.Debugw("rate limit buckets swept", "removed", n, "remaining", l.Len())
				}
			}
		}
	})
}
