package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medslot/pkg/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockStore struct {
	incrementFunc func(ctx context.Context, key string, window time.Duration) (int64, error)
	ttlFunc       func(ctx context.Context, key string) (time.Duration, error)
}

func (m *mockStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	return m.incrementFunc(ctx, key, window)
}

func (m *mockStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	if m.ttlFunc != nil {
		return m.ttlFunc(ctx, key)
	}
	return 0, nil
}

func newTestLimiter(t *testing.T, failOpen bool) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2030, time.January, 7, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(clock.Now)
	t.Cleanup(store.Stop)
	return NewLimiter(store, logger.Discard(), failOpen), clock
}

func TestCheck_WindowBoundary(t *testing.T) {
	limiter, clock := newTestLimiter(t, true)
	cfg := Config{Prefix: "booking", MaxRequests: 3, Window: 60 * time.Second}
	ctx := context.Background()

	for i, wantRemaining := range []int64{2, 1, 0} {
		res := limiter.Check(ctx, "patient-1", cfg)
		if !res.Allowed {
			t.Fatalf("call %d should be allowed", i+1)
		}
		if res.Remaining != wantRemaining {
			t.Errorf("call %d remaining = %d, want %d", i+1, res.Remaining, wantRemaining)
		}
		if res.Limit != 3 {
			t.Errorf("call %d limit = %d, want 3", i+1, res.Limit)
		}
	}

	clock.Advance(30 * time.Second)
	res := limiter.Check(ctx, "patient-1", cfg)
	if res.Allowed {
		t.Fatal("4th call within the window should be rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", res.Remaining)
	}
	if res.ResetInSeconds != 30 {
		t.Errorf("reset_in_seconds = %d, want 30", res.ResetInSeconds)
	}

	clock.Advance(31 * time.Second)
	res = limiter.Check(ctx, "patient-1", cfg)
	if !res.Allowed {
		t.Fatal("call after the window elapsed should be allowed")
	}
	if res.Remaining != 2 {
		t.Errorf("remaining after reset = %d, want 2", res.Remaining)
	}
}

func TestCheck_IdentifiersAndPrefixesAreIsolated(t *testing.T) {
	limiter, _ := newTestLimiter(t, true)
	ctx := context.Background()
	cfg := Config{Prefix: "otp", MaxRequests: 1, Window: time.Minute}

	if !limiter.Check(ctx, "a", cfg).Allowed {
		t.Fatal("first call for a should be allowed")
	}
	if limiter.Check(ctx, "a", cfg).Allowed {
		t.Fatal("second call for a should be rejected")
	}
	if !limiter.Check(ctx, "b", cfg).Allowed {
		t.Error("b has its own counter")
	}

	other := Config{Prefix: "password_reset", MaxRequests: 1, Window: time.Minute}
	if !limiter.Check(ctx, "a", other).Allowed {
		t.Error("a different prefix has its own counter")
	}
}

func TestCheck_ZeroQuotaAdmitsNothing(t *testing.T) {
	limiter, _ := newTestLimiter(t, true)
	res := limiter.Check(context.Background(), "x", Config{Prefix: "locked", MaxRequests: 0, Window: time.Minute})
	if res.Allowed {
		t.Error("zero quota should reject")
	}
}

func TestCheck_StoreFailure(t *testing.T) {
	store := &mockStore{
		incrementFunc: func(ctx context.Context, key string, window time.Duration) (int64, error) {
			return 0, errors.New("connection refused")
		},
	}
	cfg := Config{Prefix: "booking", MaxRequests: 5, Window: time.Minute}

	open := NewLimiter(store, logger.Discard(), true).Check(context.Background(), "p", cfg)
	if !open.Allowed {
		t.Error("fail-open limiter should admit when the store is down")
	}
	if open.ResetInSeconds != 60 {
		t.Errorf("reset_in_seconds = %d, want 60", open.ResetInSeconds)
	}

	closed := NewLimiter(store, logger.Discard(), false).Check(context.Background(), "p", cfg)
	if closed.Allowed {
		t.Error("fail-closed limiter should reject when the store is down")
	}
}

func TestCheck_TTLFailureFallsBackToWindow(t *testing.T) {
	store := &mockStore{
		incrementFunc: func(ctx context.Context, key string, window time.Duration) (int64, error) {
			if key != "ratelimit:booking:p" {
				t.Errorf("unexpected key %q", key)
			}
			return 1, nil
		},
		ttlFunc: func(ctx context.Context, key string) (time.Duration, error) {
			return 0, errors.New("timeout")
		},
	}

	res := NewLimiter(store, logger.Discard(), true).Check(context.Background(), "p", Booking)
	if !res.Allowed || res.Remaining != 9 || res.ResetInSeconds != 60 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestCheck_ConcurrentCallsNeverOveradmit(t *testing.T) {
	limiter, _ := newTestLimiter(t, true)
	cfg := Config{Prefix: "booking", MaxRequests: 10, Window: time.Minute}

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Check(context.Background(), "burst", cfg).Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 10 {
		t.Errorf("admitted %d requests, want 10", admitted)
	}
}

func TestKey(t *testing.T) {
	if got := Key(OTP, "+15550100"); got != "ratelimit:otp:+15550100" {
		t.Errorf("Key() = %q", got)
	}
	if got := Key(Config{}, "x"); got != "ratelimit:default:x" {
		t.Errorf("Key() = %q", got)
	}
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		name   string
		max    int64
		window time.Duration
	}{
		{"booking", 10, time.Minute},
		{"reschedule", 10, time.Minute},
		{"otp", 5, 5 * time.Minute},
		{"password_reset", 3, time.Hour},
	}

	for _, tt := range tests {
		p, ok := Profiles[tt.name]
		if !ok {
			t.Errorf("missing profile %s", tt.name)
			continue
		}
		if p.MaxRequests != tt.max || p.Window != tt.window {
			t.Errorf("profile %s = %+v", tt.name, p)
		}
	}
}
