package admission

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrInvalidClientKey is returned for empty client identifiers. Callers are
// expected to fail open on it.
var ErrInvalidClientKey = errors.New("invalid client key")

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	Window time.Duration
	Max    int
	// MaxClients bounds the number of tracked clients; the least recently
	// seen client is forgotten first. Zero means unbounded.
	MaxClients int
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // zero when allowed
}

type rateEntry struct {
	count       int
	windowStart time.Time
}

// RateLimiter counts requests per client in fixed windows that start at each
// client's first request after the previous window expired.
type RateLimiter struct {
	window time.Duration
	max    int
	clock  clockwork.Clock

	mu      sync.Mutex
	entries *lruCache
}

// NewRateLimiter creates a limiter. A nil clock uses real time.
func NewRateLimiter(cfg RateLimitConfig, clock clockwork.Clock) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{
		window:  cfg.Window,
		max:     cfg.Max,
		clock:   clock,
		entries: newLRUCache(cfg.MaxClients),
	}
}

// Allow records a request from clientKey and reports whether it is within
// the limit. The counter is incremented even when the request is rejected.
func (l *RateLimiter) Allow(clientKey string) (Decision, error) {
	if strings.TrimSpace(clientKey) == "" {
		return Decision{}, ErrInvalidClientKey
	}

	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries.get(clientKey)
	if !ok || now.After(e.windowStart.Add(l.window)) {
		e = &rateEntry{windowStart: now}
		l.entries.put(clientKey, e)
	}
	e.count++

	resetAt := e.windowStart.Add(l.window)
	d := Decision{
		Allowed:   e.count <= l.max,
		Limit:     l.max,
		Remaining: max(0, l.max-e.count),
		ResetAt:   resetAt,
	}
	if !d.Allowed {
		d.RetryAfter = max(0, resetAt.Sub(now))
	}
	return d, nil
}

// Len reports how many clients are tracked.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries.len()
}

// Sweep forgets clients whose window has expired and returns how many were removed.
func (l *RateLimiter) Sweep() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.entries.removeIf(func(e *rateEntry) bool {
		return now.After(e.windowStart.Add(l.window))
	})
}

// Run sweeps expired clients every interval until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration, onSweep func(removed, remaining int)) {
	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			removed := l.Sweep()
			if onSweep != nil {
				onSweep(removed, l.Len())
			}
		}
	}
}
