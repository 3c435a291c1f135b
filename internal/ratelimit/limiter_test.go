package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time            { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(max int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	l := New(max, window)
	l.now = clock.now
	return l, clock
}

func TestLimiter_AllowAndDeny(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow().Allowed, "request %d", i+1)
	}

	d := l.Allow()
	assert.False(t, d.Allowed)
	assert.Equal(t, 20*time.Second, d.Wait)

	clock.advance(20 * time.Second)
	assert.True(t, l.Allow().Allowed)
	assert.False(t, l.Allow().Allowed)
}

func TestLimiter_DeniedCallsDoNotConsume(t *testing.T) {
	l, clock := newTestLimiter(1, 10*time.Second)
	require.True(t, l.Allow().Allowed)

	for i := 0; i < 5; i++ {
		assert.False(t, l.Allow().Allowed)
	}
	clock.advance(10 * time.Second)
	assert.True(t, l.Allow().Allowed)
}

func TestLimiter_Status(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)

	s := l.Status()
	assert.Equal(t, 3, s.Remaining)
	assert.Equal(t, 3, s.Max)
	assert.Equal(t, 0, s.Made)
	assert.Equal(t, time.Duration(0), s.ResetIn)
	assert.Equal(t, 60.0, s.WindowSeconds)

	l.Allow()
	l.Allow()
	s = l.Status()
	assert.Equal(t, 1, s.Remaining)
	assert.Equal(t, 2, s.Made)
	assert.Equal(t, 40*time.Second, s.ResetIn)

	clock.advance(61 * time.Second)
	s = l.Status()
	assert.Equal(t, 3, s.Remaining)
	assert.Equal(t, 0, s.Made)
}

func TestLimiter_Concurrent(t *testing.T) {
	l := FromConfig(config.RateLimitConfig{MaxRequests: 5, Window: time.Hour})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow().Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}
