package admission

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLimiter(max, maxClients int) (*RateLimiter, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(epoch)
	l := NewRateLimiter(RateLimitConfig{Window: time.Hour, Max: max, MaxClients: maxClients}, clock)
	return l, clock
}

func TestRateLimiter_AllowsUpToMax(t *testing.T) {
	l, _ := newTestLimiter(3, 0)

	for i := 1; i <= 3; i++ {
		d, err := l.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 3-i, d.Remaining)
		assert.Equal(t, epoch.Add(time.Hour), d.ResetAt)
		assert.Zero(t, d.RetryAfter)
	}

	d, err := l.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Hour, d.RetryAfter)
}

func TestRateLimiter_RejectedRequestsStillCount(t *testing.T) {
	l, clock := newTestLimiter(1, 0)

	_, _ = l.Allow("a")
	_, _ = l.Allow("a")
	clock.Advance(30 * time.Minute)
	d, _ := l.Allow("a")

	assert.False(t, d.Allowed)
	assert.Equal(t, 30*time.Minute, d.RetryAfter)
	assert.Equal(t, epoch.Add(time.Hour), d.ResetAt, "rejections must not move the window")
}

func TestRateLimiter_WindowResetsAfterExpiry(t *testing.T) {
	l, clock := newTestLimiter(1, 0)

	d, _ := l.Allow("a")
	require.True(t, d.Allowed)
	d, _ = l.Allow("a")
	require.False(t, d.Allowed)

	// Exactly at the boundary the old window still applies.
	clock.Advance(time.Hour)
	d, _ = l.Allow("a")
	assert.False(t, d.Allowed)

	clock.Advance(time.Nanosecond)
	d, _ = l.Allow("a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, clock.Now().Add(time.Hour), d.ResetAt)
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 0)

	d, _ := l.Allow("a")
	assert.True(t, d.Allowed)
	d, _ = l.Allow("b")
	assert.True(t, d.Allowed)
	d, _ = l.Allow("a")
	assert.False(t, d.Allowed)
}

func TestRateLimiter_EmptyKey(t *testing.T) {
	l, _ := newTestLimiter(1, 0)

	_, err := l.Allow("  ")
	require.ErrorIs(t, err, ErrInvalidClientKey)
	assert.Equal(t, 0, l.Len())
}

func TestRateLimiter_MaxClientsEvictsLeastRecent(t *testing.T) {
	l, _ := newTestLimiter(1, 2)

	_, _ = l.Allow("a")
	_, _ = l.Allow("b")
	_, _ = l.Allow("a") // a is now most recent
	_, _ = l.Allow("c") // evicts b

	assert.Equal(t, 2, l.Len())

	d, _ := l.Allow("b")
	assert.True(t, d.Allowed, "evicted client starts a fresh window")
	d, _ = l.Allow("a")
	assert.False(t, d.Allowed, "retained client keeps its count")
}

func TestRateLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(5, 0)

	_, _ = l.Allow("old")
	clock.Advance(40 * time.Minute)
	_, _ = l.Allow("new")
	clock.Advance(21 * time.Minute)

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())

	d, _ := l.Allow("new")
	assert.Equal(t, 3, d.Remaining)
}

func TestRateLimiter_RunSweepsOnTicker(t *testing.T) {
	l, clock := newTestLimiter(5, 0)
	_, _ = l.Allow("a")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	swept := make(chan [2]int, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run(ctx, 10*time.Minute, func(removed, remaining int) {
			swept <- [2]int{removed, remaining}
		})
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	clock.Advance(61 * time.Minute)

	select {
	case got := <-swept:
		assert.Equal(t, [2]int{1, 0}, got)
	case <-time.After(time.Second):
		t.Fatal("sweep did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
