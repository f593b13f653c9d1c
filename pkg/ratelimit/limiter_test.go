package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
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

func TestAdmitFixedWindowScenario(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	l := New(store, WithClock(clock.Now))
	cfg := Config{MaxRequests: 5, Window: 900000 * time.Millisecond}
	ctx := context.Background()
	windowStart := clock.Now()

	for i := 0; i < 5; i++ {
		d, err := l.Admit(ctx, "1.2.3.4", ScopeContact, cfg)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 5-(i+1), d.Remaining)
		clock.Advance(time.Second)
	}

	d, err := l.Admit(ctx, "1.2.3.4", ScopeContact, cfg)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, windowStart.Add(900000*time.Millisecond), d.ResetAt)
}

func TestAdmitNextWindowIsAdmitted(t *testing.T) {
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))
	cfg := Config{MaxRequests: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Admit(ctx, "id", ScopeNewsletter, cfg)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, err := l.Admit(ctx, "id", ScopeNewsletter, cfg)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// exactly at resetAt the old window still applies
	clock.Advance(time.Minute)
	d, err = l.Admit(ctx, "id", ScopeNewsletter, cfg)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	clock.Advance(time.Millisecond)
	d, err = l.Admit(ctx, "id", ScopeNewsletter, cfg)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), d.ResetAt)
}

func TestAdmitScopesAreIndependent(t *testing.T) {
	l := New(NewMemoryStore())
	cfg := Config{MaxRequests: 1, Window: time.Hour}
	ctx := context.Background()

	d, err := l.Admit(ctx, "1.2.3.4", ScopeContact, cfg)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = l.Admit(ctx, "1.2.3.4", ScopeContact, cfg)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = l.Admit(ctx, "1.2.3.4", ScopeNewsletter, cfg)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "newsletter quota must not be consumed by contact requests")

	d, err = l.Admit(ctx, "5.6.7.8", ScopeContact, cfg)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestAdmitConcurrentLastSlot(t *testing.T) {
	l := New(NewMemoryStore())
	cfg := Config{MaxRequests: 2, Window: time.Hour}
	ctx := context.Background()

	d, err := l.Admit(ctx, "racer", ScopeContact, cfg)
	require.NoError(t, err)
	require.Equal(t, 1, d.Remaining)

	var allowed, rejected int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			d, err := l.Admit(ctx, "racer", ScopeContact, cfg)
			if err != nil {
				return
			}
			if d.Allowed {
				atomic.AddInt32(&allowed, 1)
			} else {
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), allowed)
	assert.Equal(t, int32(1), rejected)
}

func TestAdmitManyConcurrentNeverExceedsQuota(t *testing.T) {
	l := New(NewMemoryStore())
	cfg := Config{MaxRequests: 10, Window: time.Hour}
	ctx := context.Background()

	var allowed int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d, err := l.Admit(ctx, "burst", ScopeSecurityLog, cfg); err == nil && d.Allowed {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), allowed)
}

func TestAdmitDisabledWhenMaxIsZero(t *testing.T) {
	l := New(NewMemoryStore())
	for i := 0; i < 10; i++ {
		d, err := l.Admit(context.Background(), "x", ScopeContact, Config{})
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestSweepKeepsLiveWindows(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	l := New(store, WithClock(clock.Now))
	ctx := context.Background()

	_, err := l.Admit(ctx, "short", ScopeContact, Config{MaxRequests: 5, Window: time.Minute})
	require.NoError(t, err)
	_, err = l.Admit(ctx, "long", ScopeContact, Config{MaxRequests: 5, Window: time.Hour})
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	clock.Advance(time.Minute)
	removed, err := l.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "entry at exactly resetAt is still live")

	clock.Advance(time.Second)
	removed, err = l.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, ok, _ := store.Get(ctx, Key(ScopeContact, "long"))
	assert.True(t, ok)
}

func TestStartSweeperStopsWithContext(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "stale", Entry{Count: 1, ResetAt: time.Now().Add(-time.Hour)}))

	l := New(store)
	ctx, cancel := context.WithCancel(context.Background())
	l.StartSweeper(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestDecisionRetryAfter(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 90*time.Second, Decision{ResetAt: now.Add(90 * time.Second)}.RetryAfter(now))
	assert.Equal(t, time.Second, Decision{ResetAt: now}.RetryAfter(now))
}
