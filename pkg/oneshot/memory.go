package oneshot

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// MemoryStore is an in-process Store with per-entry TTL.
type MemoryStore[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval sets how often expired entries are purged. Zero disables the purge loop.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.cleanupInterval = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *memoryConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryStore returns a MemoryStore whose entries live for ttl.
// A non-positive ttl keeps entries until taken.
func NewMemoryStore[V any](ttl time.Duration, opts ...MemoryOption) *MemoryStore[V] {
	cfg := memoryConfig{cleanupInterval: time.Minute, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &MemoryStore[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     cfg.now,
		done:    make(chan struct{}),
	}
	if ttl > 0 && cfg.cleanupInterval > 0 {
		s.ticker = time.NewTicker(cfg.cleanupInterval)
		go s.cleanupLoop()
	}
	return s
}

// Put stores value under key, replacing any previous value and resetting its TTL.
func (s *MemoryStore[V]) Put(_ context.Context, key string, value V) error {
	if key == "" {
		return ErrEmptyKey
	}
	e := entry[V]{value: value}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Take returns and removes the value under key.
func (s *MemoryStore[V]) Take(_ context.Context, key string) (V, error) {
	var zero V
	if key == "" {
		return zero, ErrEmptyKey
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	if !ok || s.expired(e, s.now()) {
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Get returns the value under key without removing it.
func (s *MemoryStore[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	if key == "" {
		return zero, ErrEmptyKey
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()

	if !ok || s.expired(e, s.now()) {
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Purge removes expired entries and reports how many were dropped.
func (s *MemoryStore[V]) Purge() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries, expired ones included until purged.
func (s *MemoryStore[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the purge loop.
func (s *MemoryStore[V]) Close() error {
	s.once.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
	})
	return nil
}

func (s *MemoryStore[V]) expired(e entry[V], now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (s *MemoryStore[V]) cleanupLoop() {
	for {
		select {
		case <-s.ticker.C:
			s.Purge()
		case <-s.done:
			return
		}
	}
}
