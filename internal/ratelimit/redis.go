package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a fixed window counter shared through Redis, so every replica
// enforces the same budget per key.
type RedisStore struct {
	rdb    redis.Cmdable
	limit  Limit
	prefix string
}

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisStore(rdb redis.Cmdable, limit Limit, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		limit:  limit,
		prefix: "ratelimit:me",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Take implements Store. The first hit in a window creates the counter and
// sets its expiry; later hits only increment it.
func (s *RedisStore) Take(ctx context.Context, key string) (Decision, error) {
	k := s.prefix + ":" + key

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, s.limit.Period)
	pttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit redis: %w", err)
	}

	count := int(incr.Val())
	ttl := pttl.Val()
	if ttl < 0 {
		ttl = s.limit.Period
	}

	dec := Decision{
		Allowed:    count <= s.limit.Count,
		Limit:      s.limit,
		Remaining:  max(0, s.limit.Count-count),
		ResetAfter: ttl,
	}
	return dec, nil
}
