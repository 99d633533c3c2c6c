package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims, counts and conditionally records in one round
// trip so concurrent processes cannot over-admit.
//
// KEYS[1] bucket, ARGV: now ms, window ms, max, member.
// Returns {allowed, count, oldest ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', '(' .. (now - window))
local count = redis.call('ZCARD', key)
if count >= max then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, count, tonumber(oldest[2])}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window + 1000)
return {1, count + 1, 0}
`)

// RedisLimiter shares buckets across processes through Redis sorted sets.
type RedisLimiter struct {
	client *redis.Client
	clock  clock.Clock
	prefix string
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		clock:  clock.New(),
		prefix: "ratelimit:",
	}
}

func (l *RedisLimiter) Check(ctx context.Context, rule Rule, subject string) (Result, error) {
	if rule.Max <= 0 {
		return Result{Allowed: true}, nil
	}

	now := l.clock.Now().UnixMilli()
	window := rule.Window.Milliseconds()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, l.client, []string{l.key(rule, subject)},
		now, window, rule.Max, member).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(res) != 3 {
		return Result{}, fmt.Errorf("unexpected rate limit script reply: %v", res)
	}

	if res[0] == 0 {
		return Result{
			Allowed:    false,
			RetryAfter: time.Duration(window-(now-res[2])) * time.Millisecond,
		}, nil
	}
	return Result{Allowed: true, Remaining: rule.Max - int(res[1])}, nil
}

// Count returns the number of requests recorded under the compound key.
func (l *RedisLimiter) Count(ctx context.Context, key string) (int64, error) {
	n, err := l.client.ZCard(ctx, l.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", key, err)
	}
	return n, nil
}

// Reset clears every bucket of subject under rule.
func (l *RedisLimiter) Reset(ctx context.Context, rule Rule, subject string) error {
	if err := l.client.Del(ctx, l.key(rule, subject)).Err(); err != nil {
		return fmt.Errorf("failed to reset %s: %w", rule.Key(subject), err)
	}
	return nil
}

func (l *RedisLimiter) key(rule Rule, subject string) string {
	return l.prefix + rule.Key(subject)
}
