package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shenikar/surakshita/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func newTestLimiter() (*Limiter, *fakeClock, *MemoryCounter) {
	clock := &fakeClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	counter := NewMemoryCounter(clock.Now)
	limiter := NewLimiter(counter, map[Class]config.Quota{
		ClassSOS:      {Limit: 1, Window: time.Minute},
		ClassLogin:    {Limit: 5, Window: time.Minute},
		ClassRegister: {Limit: 3, Window: time.Hour},
	})
	return limiter, clock, counter
}

func TestLimiter_SOSSecondCallWithinWindowRejected(t *testing.T) {
	limiter, clock, _ := newTestLimiter()
	ctx := context.Background()

	first, err := limiter.Allow(ctx, ClassSOS, "user:1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 0, first.Remaining)

	clock.Advance(30 * time.Second)
	second, err := limiter.Allow(ctx, ClassSOS, "user:1")
	require.NoError(t, err)
	assert.False(t, second.Allowed)
	assert.Equal(t, 30*time.Second, second.RetryAfter)

	clock.Advance(30 * time.Second)
	third, err := limiter.Allow(ctx, ClassSOS, "user:1")
	require.NoError(t, err)
	assert.True(t, third.Allowed)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter, _, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, ClassRegister, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := limiter.Allow(ctx, ClassRegister, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	other, err := limiter.Allow(ctx, ClassRegister, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	login, err := limiter.Allow(ctx, ClassLogin, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, login.Allowed)
	assert.Equal(t, 4, login.Remaining)
}

func TestLimiter_ConcurrentClientsAdmitExactlyLimit(t *testing.T) {
	limiter, _, _ := newTestLimiter()
	ctx := context.Background()

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Allow(ctx, ClassLogin, "10.0.0.9")
			if err == nil && d.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(5), allowed)
}

func TestLimiter_UnknownClassFailsClosed(t *testing.T) {
	limiter, _, _ := newTestLimiter()

	_, err := limiter.Allow(context.Background(), ClassOperatorLogin, "10.0.0.1")
	assert.Error(t, err)
}

type brokenCounter struct{}

func (brokenCounter) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("redis: connection refused")
}

func TestLimiter_CounterErrorIsReturned(t *testing.T) {
	limiter := NewLimiter(brokenCounter{}, map[Class]config.Quota{ClassSOS: {Limit: 1, Window: time.Minute}})

	d, err := limiter.Allow(context.Background(), ClassSOS, "user:1")
	assert.Error(t, err)
	assert.False(t, d.Allowed)
}

func TestMemoryCounter_CleansExpiredWindows(t *testing.T) {
	limiter, clock, counter := newTestLimiter()
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, ClassSOS, "user:1")
	_, _ = limiter.Allow(ctx, ClassSOS, "user:2")
	assert.Equal(t, 2, counter.Len())

	clock.Advance(2 * time.Minute)
	_, _ = limiter.Allow(ctx, ClassSOS, "user:3")
	assert.Equal(t, 1, counter.Len())
}

func TestThrottle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	th := NewThrottle(1, 2, time.Minute, clock.Now)

	assert.True(t, th.Allow("a"))
	assert.True(t, th.Allow("a"))
	assert.False(t, th.Allow("a"))
	assert.True(t, th.Allow("b"))

	clock.Advance(time.Second)
	assert.True(t, th.Allow("a"))
	assert.False(t, th.Allow("a"))
}
