// Package ratelimit implements a fixed-window request counter over an
// injectable Store.
//
// The window resets sharply at its boundary instead of rolling, so a client
// can send up to twice MaxRequests across two adjacent windows. That is
// acceptable for abuse prevention.
package ratelimit

import (
	"context"
	"math"
	"time"

	"medslot/pkg/logger"
)

const keyPrefix = "ratelimit"

type Config struct {
	Prefix      string
	MaxRequests int64
	Window      time.Duration
}

type Result struct {
	Allowed        bool  `json:"allowed"`
	Remaining      int64 `json:"remaining"`
	ResetInSeconds int64 `json:"reset_in_seconds"`
	Limit          int64 `json:"limit"`
}

type Limiter struct {
	store    Store
	log      *logger.Logger
	failOpen bool
}

// NewLimiter creates a limiter. With failOpen, requests are admitted when the
// store cannot be reached.
func NewLimiter(store Store, log *logger.Logger, failOpen bool) *Limiter {
	return &Limiter{
		store:    store,
		log:      log,
		failOpen: failOpen,
	}
}

// Key returns the counter key for an identifier under cfg.
func Key(cfg Config, identifier string) string {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "default"
	}
	return keyPrefix + ":" + prefix + ":" + identifier
}

// Check counts one request for identifier and reports whether it fits in the
// current window. A non-positive MaxRequests admits nothing.
func (l *Limiter) Check(ctx context.Context, identifier string, cfg Config) Result {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	key := Key(cfg, identifier)

	count, err := l.store.Increment(ctx, key, window)
	if err != nil {
		l.log.Error("Rate limit store unavailable",
			"key", key,
			"fail_open", l.failOpen,
			"error", err,
		)
		return Result{
			Allowed:        l.failOpen,
			Remaining:      max(cfg.MaxRequests, 0),
			ResetInSeconds: seconds(window),
			Limit:          cfg.MaxRequests,
		}
	}

	reset := window
	if ttl, err := l.store.TTL(ctx, key); err != nil {
		l.log.Warn("Failed to read rate limit ttl", "key", key, "error", err)
	} else if ttl > 0 {
		reset = ttl
	}

	result := Result{
		Allowed:        count <= cfg.MaxRequests,
		Remaining:      max(cfg.MaxRequests-count, 0),
		ResetInSeconds: seconds(reset),
		Limit:          cfg.MaxRequests,
	}
	if !result.Allowed {
		l.log.Warn("Rate limit exceeded",
			"key", key,
			"count", count,
			"limit", cfg.MaxRequests,
			"reset_in_seconds", result.ResetInSeconds,
		)
	}
	return result
}

func seconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}
