// Package lock implements cross-instance mutual exclusion over a named
// resource, backed by Redis conditional writes with expiry. Release and
// extension are token-checked server-side so a holder whose TTL lapsed can
// never clean up a lock acquired by someone else.
package lock

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	apierrors "github.com/KirkDiggler/combat-api/internal/errors"
	"github.com/KirkDiggler/combat-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/combat-api/internal/redis"
)

//go:generate mockgen -destination=mock/mock_service.go -package=lockmock github.com/KirkDiggler/combat-api/internal/lock Service

// ErrNotAcquired is returned when every acquisition attempt failed. The
// caller decides whether to reject the request or queue it.
var ErrNotAcquired = errors.New("lock: not acquired")

// IsNotAcquired reports whether err means the lock could not be taken
func IsNotAcquired(err error) bool {
	return errors.Is(err, ErrNotAcquired)
}

const (
	defaultTTL       = 10 * time.Second
	defaultRetries   = 3
	defaultBaseDelay = 50 * time.Millisecond
	defaultKeyPrefix = "lock:"
)

// releaseScript deletes the key only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// extendScript adds to the remaining TTL only if the caller still owns the key.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	local ttl = redis.call("pttl", KEYS[1])
	if ttl < 0 then
		ttl = 0
	end
	return redis.call("pexpire", KEYS[1], ttl + tonumber(ARGV[2]))
end
return 0
`)

// Lock is a held acquisition. The token is fresh per attempt and is the only
// proof of ownership.
type Lock struct {
	Resource  string
	Token     string
	ExpiresAt time.Time
}

// Service provides distributed mutual exclusion
type Service interface {
	// Acquire takes the lock on a resource, retrying with exponential
	// backoff. Returns ErrNotAcquired once the retry budget is exhausted.
	Acquire(ctx context.Context, resource string) (*Lock, error)

	// Release frees a held lock. Returns false when the lock was no longer
	// owned (expired and possibly re-acquired by someone else).
	Release(ctx context.Context, l *Lock) (bool, error)

	// Extend adds time to a held lock's TTL. Returns false when the lock
	// was no longer owned.
	Extend(ctx context.Context, l *Lock, additional time.Duration) (bool, error)

	// WithLock runs fn while holding the resource lock, releasing it on
	// every exit path including panics.
	WithLock(ctx context.Context, resource string, fn func(ctx context.Context) error) error
}

// Config holds the dependencies and tuning for the lock service
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock

	// TTL is how long an acquisition holds without extension
	TTL time.Duration
	// Retries is how many times Acquire re-attempts after the first failure
	Retries int
	// BaseDelay seeds the exponential backoff between attempts
	BaseDelay time.Duration
	// KeyPrefix namespaces lock keys in the shared store
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
	if c.TTL < 0 {
		vb.Field("TTL", "must not be negative")
	}
	if c.Retries < 0 {
		vb.Field("Retries", "must not be negative")
	}

	return vb.Build()
}

type service struct {
	client    redisclient.Client
	clock     clock.Clock
	ttl       time.Duration
	retries   int
	baseDelay time.Duration
	keyPrefix string
}

// New creates a lock service backed by the given Redis client
func New(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apierrors.Wrap(err, "invalid config")
	}

	s := &service{
		client:    cfg.Client,
		clock:     cfg.Clock,
		ttl:       cfg.TTL,
		retries:   cfg.Retries,
		baseDelay: cfg.BaseDelay,
		keyPrefix: cfg.KeyPrefix,
	}
	if s.ttl == 0 {
		s.ttl = defaultTTL
	}
	if s.retries == 0 {
		s.retries = defaultRetries
	}
	if s.baseDelay == 0 {
		s.baseDelay = defaultBaseDelay
	}
	if s.keyPrefix == "" {
		s.keyPrefix = defaultKeyPrefix
	}

	return s, nil
}

var _ Service = (*service)(nil)

// Acquire takes the lock or returns ErrNotAcquired. Store errors fail
// closed: a lock we cannot confirm is a lock we do not hold.
func (s *service) Acquire(ctx context.Context, resource string) (*Lock, error) {
	key := s.buildKey(resource)
	token := uuid.New().String()

	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			delay := s.baseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, apierrors.WrapWithCode(ctx.Err(), apierrors.CodeDeadlineExceeded, "lock acquisition cancelled")
			case <-time.After(delay):
			}
		}

		ok, err := s.client.SetNX(ctx, key, token, s.ttl).Result()
		if err != nil {
			return nil, apierrors.WrapWithCode(err, apierrors.CodeUnavailable, "lock store unreachable")
		}
		if ok {
			return &Lock{
				Resource:  resource,
				Token:     token,
				ExpiresAt: s.clock.Now().Add(s.ttl),
			}, nil
		}
	}

	return nil, ErrNotAcquired
}

// Release frees the lock if and only if the token still matches
func (s *service) Release(ctx context.Context, l *Lock) (bool, error) {
	if l == nil {
		return false, apierrors.InvalidArgument("lock is required")
	}

	n, err := releaseScript.Run(ctx, s.client, []string{s.buildKey(l.Resource)}, l.Token).Int()
	if err != nil {
		return false, apierrors.WrapWithCode(err, apierrors.CodeUnavailable, "lock store unreachable")
	}

	return n == 1, nil
}

// Extend adds time to the lock's TTL if and only if the token still matches
func (s *service) Extend(ctx context.Context, l *Lock, additional time.Duration) (bool, error) {
	if l == nil {
		return false, apierrors.InvalidArgument("lock is required")
	}
	if additional <= 0 {
		return false, apierrors.InvalidArgument("additional TTL must be positive")
	}

	n, err := extendScript.Run(ctx, s.client, []string{s.buildKey(l.Resource)}, l.Token, additional.Milliseconds()).Int()
	if err != nil {
		return false, apierrors.WrapWithCode(err, apierrors.CodeUnavailable, "lock store unreachable")
	}
	if n != 1 {
		return false, nil
	}

	l.ExpiresAt = l.ExpiresAt.Add(additional)
	return true, nil
}

// WithLock acquires the resource lock, runs fn, and releases on every exit
// path. ErrNotAcquired propagates unchanged so callers can map it to their
// own taxonomy.
func (s *service) WithLock(ctx context.Context, resource string, fn func(ctx context.Context) error) error {
	l, err := s.Acquire(ctx, resource)
	if err != nil {
		return err
	}

	defer func() {
		released, releaseErr := s.Release(ctx, l)
		if releaseErr != nil {
			slog.Error("failed to release lock",
				"resource", resource,
				"error", releaseErr,
			)
			return
		}
		if !released {
			slog.Warn("lock expired before release",
				"resource", resource,
			)
		}
	}()

	return fn(ctx)
}

// buildKey normalizes the resource name into a store key
func (s *service) buildKey(resource string) string {
	return s.keyPrefix + strings.ToLower(strings.TrimSpace(resource))
}
