package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a per-key fixed window counter held in process memory.
// Counters are not shared between replicas and are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	limit   Limit
	windows map[string]*window
	now     func() time.Time

	cleanupEvery time.Duration
}

type window struct {
	start time.Time
	count int
}

type MemoryOption func(*MemoryStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func WithCleanupEvery(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.cleanupEvery = d }
}

func NewMemoryStore(limit Limit, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		limit:        limit,
		windows:      make(map[string]*window),
		now:          time.Now,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, key string) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= s.limit.Period {
		w = &window{start: now}
		s.windows[key] = w
	}

	dec := Decision{
		Limit:      s.limit,
		ResetAfter: w.start.Add(s.limit.Period).Sub(now),
	}
	if w.count < s.limit.Count {
		w.count++
		dec.Allowed = true
	}
	dec.Remaining = s.limit.Count - w.count
	return dec, nil
}

// Cleanup drops windows that have already expired.
func (s *MemoryStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, w := range s.windows {
		if now.Sub(w.start) >= s.limit.Period {
			delete(s.windows, k)
		}
	}
}

// Len reports how many keys are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// StartJanitor removes expired windows periodically until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context) {
	startJanitor(ctx, s.cleanupEvery, s.Cleanup)
}

func startJanitor(ctx context.Context, every time.Duration, cleanup func()) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				cleanup()
			}
		}
	}()
}
