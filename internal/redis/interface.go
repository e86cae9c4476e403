// Package redis wraps the go-redis client so repositories, the lock service,
// and the rate limiter depend on a narrow interface rather than a concrete
// client type.
package redis

import (
	"github.com/redis/go-redis/v9"
)

// Client wraps redis.UniversalClient so stores can be backed by a single
// instance, a sentinel deployment, or miniredis in tests.
type Client interface {
	redis.UniversalClient
}

// Pipeliner wraps redis.Pipeliner for atomic multi-key writes
type Pipeliner interface {
	redis.Pipeliner
}
