// Package ratelimit implements per-key request throttling over a trailing
// time window, backed by a Redis sorted set of event timestamps. The
// prune-count-record sequence runs as one Lua script so two concurrent
// callers can never both be admitted past the cap.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	apierrors "github.com/KirkDiggler/combat-api/internal/errors"
	"github.com/KirkDiggler/combat-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/combat-api/internal/redis"
)

//go:generate mockgen -destination=mock/mock_limiter.go -package=ratelimitmock github.com/KirkDiggler/combat-api/internal/ratelimit Limiter

const defaultKeyPrefix = "ratelimit:"

// checkScript prunes expired events, counts survivors, and records the new
// event only when under the cap. Time comes from the caller, not the store,
// so every instance and every test shares one clock.
//
// KEYS[1] = window key
// ARGV[1] = now (unix ms), ARGV[2] = window ms, ARGV[3] = max, ARGV[4] = member
// Returns {allowed, total_in_window, oldest_score}.
var checkScript = redis.NewScript(`
local window_start = tonumber(ARGV[1]) - tonumber(ARGV[2])
redis.call("zremrangebyscore", KEYS[1], "-inf", window_start)
local count = redis.call("zcard", KEYS[1])
local allowed = 0
if count < tonumber(ARGV[3]) then
	redis.call("zadd", KEYS[1], ARGV[1], ARGV[4])
	redis.call("pexpire", KEYS[1], ARGV[2])
	allowed = 1
	count = count + 1
end
local oldest = redis.call("zrange", KEYS[1], 0, 0, "WITHSCORES")
local oldest_score = "0"
if oldest[2] then
	oldest_score = oldest[2]
end
return {allowed, count, oldest_score}
`)

// peekScript is the same computation without recording
var peekScript = redis.NewScript(`
local window_start = tonumber(ARGV[1]) - tonumber(ARGV[2])
redis.call("zremrangebyscore", KEYS[1], "-inf", window_start)
local count = redis.call("zcard", KEYS[1])
local oldest = redis.call("zrange", KEYS[1], 0, 0, "WITHSCORES")
local oldest_score = "0"
if oldest[2] then
	oldest_score = oldest[2]
end
return {count, oldest_score}
`)

// Decision is the outcome of one rate-limit check
type Decision struct {
	// Allowed reports whether the event was admitted (and, for
	// CheckAndRecord, recorded)
	Allowed bool
	// Remaining is how many more events the window accepts
	Remaining int
	// ResetTime is when the limit next frees a slot: the oldest surviving
	// event plus the window length
	ResetTime time.Time
	// TotalInWindow counts surviving events, including this one if admitted
	TotalInWindow int
}

// Limiter throttles events per key over a sliding window
type Limiter interface {
	// CheckAndRecord admits and records the event if the window has room
	CheckAndRecord(ctx context.Context, key string, window time.Duration, maxRequests int) (*Decision, error)

	// Peek runs the same computation without recording an event
	Peek(ctx context.Context, key string, window time.Duration, maxRequests int) (*Decision, error)

	// Reset clears all recorded events for a key
	Reset(ctx context.Context, key string) error
}

// Config holds the dependencies for the limiter
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock

	// KeyPrefix namespaces limiter keys; distinct rate domains layer their
	// own prefixes on top of it
	KeyPrefix string
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := apierrors.NewValidationBuilder()

	if c.Client == nil {
		vb.RequiredField("Client")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}

	return vb.Build()
}

type limiter struct {
	client    redisclient.Client
	clock     clock.Clock
	keyPrefix string
}

// New creates a sliding-window limiter backed by the given Redis client
func New(cfg *Config) (Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apierrors.Wrap(err, "invalid config")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	return &limiter{
		client:    cfg.Client,
		clock:     cfg.Clock,
		keyPrefix: prefix,
	}, nil
}

var _ Limiter = (*limiter)(nil)

// CheckAndRecord admits and records the event if the window has room
func (l *limiter) CheckAndRecord(ctx context.Context, key string, window time.Duration, maxRequests int) (*Decision, error) {
	if err := validateArgs(key, window, maxRequests); err != nil {
		return nil, err
	}

	now := l.clock.Now()
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.New().String()[:8])

	res, err := checkScript.Run(ctx, l.client,
		[]string{l.buildKey(key)},
		now.UnixMilli(), window.Milliseconds(), maxRequests, member,
	).Slice()
	if err != nil {
		return nil, apierrors.WrapWithCode(err, apierrors.CodeUnavailable, "rate-limit store unreachable")
	}
	if len(res) != 3 {
		return nil, apierrors.Internalf("rate-limit script returned %d values, want 3", len(res))
	}

	allowed := toInt64(res[0]) == 1
	total := int(toInt64(res[1]))
	oldest := toInt64(res[2])

	return l.buildDecision(allowed, total, oldest, maxRequests, window, now), nil
}

// Peek runs the same computation without recording an event
func (l *limiter) Peek(ctx context.Context, key string, window time.Duration, maxRequests int) (*Decision, error) {
	if err := validateArgs(key, window, maxRequests); err != nil {
		return nil, err
	}

	now := l.clock.Now()

	res, err := peekScript.Run(ctx, l.client,
		[]string{l.buildKey(key)},
		now.UnixMilli(), window.Milliseconds(), maxRequests,
	).Slice()
	if err != nil {
		return nil, apierrors.WrapWithCode(err, apierrors.CodeUnavailable, "rate-limit store unreachable")
	}
	if len(res) != 2 {
		return nil, apierrors.Internalf("rate-limit script returned %d values, want 2", len(res))
	}

	total := int(toInt64(res[0]))
	oldest := toInt64(res[1])

	return l.buildDecision(total < maxRequests, total, oldest, maxRequests, window, now), nil
}

// Reset clears all recorded events for a key
func (l *limiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return apierrors.InvalidArgument("key cannot be empty")
	}

	if err := l.client.Del(ctx, l.buildKey(key)).Err(); err != nil {
		return apierrors.WrapWithCode(err, apierrors.CodeUnavailable, "rate-limit store unreachable")
	}
	return nil
}

func (l *limiter) buildDecision(allowed bool, total int, oldestMilli int64, maxRequests int, window time.Duration, now time.Time) *Decision {
	remaining := maxRequests - total
	if !allowed || remaining < 0 {
		remaining = 0
	}

	resetTime := now
	if oldestMilli > 0 {
		resetTime = time.UnixMilli(oldestMilli).Add(window)
	}

	return &Decision{
		Allowed:       allowed,
		Remaining:     remaining,
		ResetTime:     resetTime,
		TotalInWindow: total,
	}
}

func (l *limiter) buildKey(key string) string {
	return l.keyPrefix + key
}

func validateArgs(key string, window time.Duration, maxRequests int) error {
	vb := apierrors.NewValidationBuilder()

	if key == "" {
		vb.RequiredField("key")
	}
	if window <= 0 {
		vb.PositiveField("window")
	}
	if maxRequests <= 0 {
		vb.PositiveField("maxRequests")
	}

	return vb.Build()
}

// toInt64 handles the mixed integer/bulk-string replies Lua scripts produce
func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
