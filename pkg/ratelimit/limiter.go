// Package ratelimit implements the fixed-window admission counter shared by
// the public form endpoints.
//
// Counters live in a Store. With the default MemoryStore every instance
// keeps its own view, so a deployment running N replicas admits up to
// N×MaxRequests per window for one client. RedisStore shares one quota
// across replicas.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scopes keep endpoint quotas in independent key spaces.
const (
	ScopeContact     = "contact"
	ScopeNewsletter  = "newsletter"
	ScopeSecurityLog = "security-log"
)

// Config is the quota for one scope. MaxRequests <= 0 disables limiting.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Decision is the outcome of one admission attempt.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the wait until the window resets, never below one second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait < time.Second {
		return time.Second
	}
	return wait
}

type Limiter struct {
	store Store
	now   func() time.Time
	log   *zap.Logger

	// mu makes the read-modify-write on an entry a critical section for
	// stores that are not Admitters
	mu sync.Mutex
}

type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store: store,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key joins scope and identifier into the store key.
func Key(scope, identifier string) string {
	return scope + ":" + identifier
}

// Admit counts one request for identifier under scope.
//
// The first request of a window, or the first after now > ResetAt, opens a
// new window with count 1. Inside a window the request is rejected once the
// count has reached MaxRequests; rejected requests do not extend the window.
func (l *Limiter) Admit(ctx context.Context, identifier, scope string, cfg Config) (Decision, error) {
	if cfg.MaxRequests <= 0 {
		return Decision{Allowed: true}, nil
	}
	key := Key(scope, identifier)

	if a, ok := l.store.(Admitter); ok {
		entry, allowed, err := a.AdmitEntry(ctx, key, l.now(), cfg)
		if err != nil {
			return Decision{}, fmt.Errorf("ratelimit: admit %s: %w", key, err)
		}
		remaining := cfg.MaxRequests - entry.Count
		if remaining < 0 || !allowed {
			remaining = 0
		}
		return Decision{
			Allowed:   allowed,
			Limit:     cfg.MaxRequests,
			Remaining: remaining,
			ResetAt:   entry.ResetAt,
		}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: get %s: %w", key, err)
	}

	if !ok || now.After(entry.ResetAt) {
		entry = Entry{Count: 1, ResetAt: now.Add(cfg.Window)}
		if err := l.store.Set(ctx, key, entry); err != nil {
			return Decision{}, fmt.Errorf("ratelimit: set %s: %w", key, err)
		}
		return Decision{
			Allowed:   true,
			Limit:     cfg.MaxRequests,
			Remaining: cfg.MaxRequests - 1,
			ResetAt:   entry.ResetAt,
		}, nil
	}

	if entry.Count >= cfg.MaxRequests {
		return Decision{
			Allowed:   false,
			Limit:     cfg.MaxRequests,
			Remaining: 0,
			ResetAt:   entry.ResetAt,
		}, nil
	}

	entry.Count++
	if err := l.store.Set(ctx, key, entry); err != nil {
		return Decision{}, fmt.Errorf("ratelimit: set %s: %w", key, err)
	}
	return Decision{
		Allowed:   true,
		Limit:     cfg.MaxRequests,
		Remaining: cfg.MaxRequests - entry.Count,
		ResetAt:   entry.ResetAt,
	}, nil
}

// Sweep drops entries whose window has elapsed.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Sweep(ctx, l.now())
}

// StartSweeper sweeps every interval until ctx is done.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := l.Sweep(ctx)
				if err != nil {
					l.log.Warn("rate limit sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					l.log.Debug("rate limit sweep", zap.Int("removed", removed))
				}
			}
		}
	}()
}
