// Package ratelimit decides whether a client may make another request.
//
// Stores know nothing about HTTP; they only return a Decision for a key.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

const (
	StrategyFixedWindow = "fixed-window"
	StrategyTokenBucket = "token-bucket"
)

// Decision is the result of taking one request from a key's budget.
type Decision struct {
	Allowed   bool
	Limit     Limit
	Remaining int
	// ResetAfter is how long until the budget is replenished enough to admit
	// another request.
	ResetAfter time.Duration
}

// Store takes one request from the budget of key.
// Implementations must be safe for concurrent use.
type Store interface {
	Take(ctx context.Context, key string) (Decision, error)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*TokenBucketStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// NewStore builds the store selected by strategy and storageURI
// ("memory://" or "redis://..."). The returned close function releases
// background work and connections.
func NewStore(ctx context.Context, limit Limit, strategy, storageURI string) (Store, func() error, error) {
	scheme, _, _ := strings.Cut(storageURI, "://")

	switch strings.ToLower(scheme) {
	case "memory", "":
		switch strategy {
		case StrategyTokenBucket:
			s := NewTokenBucketStore(limit)
			janitorCtx, cancel := context.WithCancel(ctx)
			s.StartJanitor(janitorCtx)
			return s, func() error { cancel(); return nil }, nil
		case StrategyFixedWindow, "":
			s := NewMemoryStore(limit)
			janitorCtx, cancel := context.WithCancel(ctx)
			s.StartJanitor(janitorCtx)
			return s, func() error { cancel(); return nil }, nil
		default:
			return nil, nil, fmt.Errorf("unknown rate limit strategy %q", strategy)
		}

	case "redis", "rediss":
		if strategy == StrategyTokenBucket {
			return nil, nil, fmt.Errorf("rate limit strategy %q is not supported with redis storage", strategy)
		}
		opts, err := redis.ParseURL(storageURI)
		if err != nil {
			return nil, nil, fmt.Errorf("parse rate limit storage uri: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("instrument redis tracing: %w", err)
		}
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("instrument redis metrics: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect rate limit redis: %w", err)
		}
		return NewRedisStore(rdb, limit), rdb.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported rate limit storage %q", storageURI)
	}
}
