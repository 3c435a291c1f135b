// Package ratelimit gates how often the AI provider is called.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Abhijeetjrock/db-analyzer1/internal/config"
)

// Decision is the answer to one Allow call
type Decision struct {
	Allowed bool
	Wait    time.Duration
}

// Status is a snapshot of the limiter for display
type Status struct {
	Remaining int           `json:"remaining_requests"`
	Max       int           `json:"max_requests"`
	Window    time.Duration `json:"-"`
	ResetIn   time.Duration `json:"-"`
	Made      int           `json:"requests_made"`

	WindowSeconds  float64 `json:"time_window"`
	ResetInSeconds float64 `json:"reset_in_seconds"`
}

// Limiter allows max requests per window as a token bucket that refills
// one request every window/max
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	max     int
	window  time.Duration
	calls   []time.Time
	now     func() time.Time
}

func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Every(window/time.Duration(max)), max),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// FromConfig builds a limiter from the rate_limit section
func FromConfig(cfg config.RateLimitConfig) *Limiter {
	return New(cfg.MaxRequests, cfg.Window)
}

// Allow consumes a request slot if one is free. When denied, Wait is how
// long until the next slot opens.
func (l *Limiter) Allow() Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	r := l.limiter.ReserveN(now, 1)
	if !r.OK() {
		return Decision{Allowed: false, Wait: l.window}
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, Wait: delay}
	}

	l.prune(now)
	l.calls = append(l.calls, now)
	return Decision{Allowed: true}
}

// Status reports the free slots and the calls made in the current window
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	tokens := l.limiter.TokensAt(now)
	remaining := int(math.Floor(tokens))
	if remaining < 0 {
		remaining = 0
	}
	if remaining > l.max {
		remaining = l.max
	}

	var resetIn time.Duration
	if missing := float64(l.max) - tokens; missing > 0 {
		resetIn = time.Duration(missing * float64(l.window) / float64(l.max))
	}

	return Status{
		Remaining:      remaining,
		Max:            l.max,
		Window:         l.window,
		ResetIn:        resetIn,
		Made:           len(l.calls),
		WindowSeconds:  l.window.Seconds(),
		ResetInSeconds: math.Round(resetIn.Seconds()*10) / 10,
	}
}

func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	keep := l.calls[:0]
	for _, t := range l.calls {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	l.calls = keep
}
