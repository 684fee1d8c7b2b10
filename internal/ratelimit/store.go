package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store is an atomic counter with expiry.
type Store interface {
	// Increment adds one to key and returns the new count. The first increment
	// of a window sets the key to expire after window.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// TTL returns the remaining lifetime of key, or zero if it does not exist.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// incrementScript runs INCR and the conditional PEXPIRE in one round trip so
// two concurrent first requests cannot both observe a pre-increment count.
// A key found without an expiry (written outside the limiter) is given one.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 or redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	return incrementScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64()
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// -2 means missing, -1 means no expiry.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

// MemoryStore is a process-local Store for tests and single-instance
// development setups.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store reading time from now, or time.Now when nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	store := &MemoryStore{
		counters: make(map[string]*memoryCounter),
		now:      now,
		stopCh:   make(chan struct{}),
	}

	go store.cleanup()

	return store
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = &memoryCounter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok {
		return 0, nil
	}
	ttl := c.expiresAt.Sub(s.now())
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, c := range s.counters {
				if !now.Before(c.expiresAt) {
					delete(s.counters, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
