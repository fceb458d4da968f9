package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucketStore keeps one x/time/rate limiter per key. The bucket holds
// Limit.Count tokens and refills at Count per Period, so bursts up to Count
// are admitted and the steady state matches the configured rate.
type TokenBucketStore struct {
	mu      sync.Mutex
	entries map[string]*bucketEntry
	limit   Limit
	every   rate.Limit
	now     func() time.Time

	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type TokenBucketOption func(*TokenBucketStore)

func WithIdleTTL(d time.Duration) TokenBucketOption {
	return func(s *TokenBucketStore) { s.idleTTL = d }
}

func WithBucketClock(now func() time.Time) TokenBucketOption {
	return func(s *TokenBucketStore) { s.now = now }
}

func NewTokenBucketStore(limit Limit, opts ...TokenBucketOption) *TokenBucketStore {
	s := &TokenBucketStore{
		entries:      make(map[string]*bucketEntry),
		limit:        limit,
		every:        rate.Every(limit.Period / time.Duration(limit.Count)),
		now:          time.Now,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Take implements Store.
func (s *TokenBucketStore) Take(_ context.Context, key string) (Decision, error) {
	now := s.now()
	lim := s.get(key, now)

	dec := Decision{Limit: s.limit}
	dec.Allowed = lim.AllowN(now, 1)

	tokens := lim.TokensAt(now)
	dec.Remaining = int(math.Max(0, math.Floor(tokens)))
	if tokens < 1 {
		dec.ResetAfter = time.Duration((1 - tokens) / float64(s.every) * float64(time.Second))
	}
	return dec, nil
}

func (s *TokenBucketStore) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.every, s.limit.Count)
	s.entries[key] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup drops limiters not used within the idle TTL.
func (s *TokenBucketStore) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

func (s *TokenBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor removes idle keys periodically until ctx is cancelled.
func (s *TokenBucketStore) StartJanitor(ctx context.Context) {
	startJanitor(ctx, s.cleanupEvery, s.Cleanup)
}
