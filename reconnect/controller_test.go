package reconnect

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextDelayGrowsGeometricallyWithinJitterBounds(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.JitterMin, cfg.JitterMax = 1, 1 // deterministic: no jitter
	c := New(cfg)

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	for i, w := range want {
		got := c.NextDelay()
		assert.Equal(t, w, got, "attempt %d", i+1)
	}
}

func TestNextDelayClampsAtMaxDelay(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.JitterMin, cfg.JitterMax = 1, 1
	cfg.MaxDelay = 500 * time.Millisecond
	c := New(cfg)

	for i := 0; i < 10; i++ {
		c.NextDelay()
	}
	assert.LessOrEqual(t, c.NextDelay(), cfg.MaxDelay)
}

func TestNextDelayStaysWithinJitterRange(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	c := New(cfg)
	d := c.NextDelay() // attempt 1: base = InitialDelay
	lo := time.Duration(float64(cfg.InitialDelay) * cfg.JitterMin)
	hi := time.Duration(float64(cfg.InitialDelay) * cfg.JitterMax)
	assert.GreaterOrEqual(t, d, lo)
	assert.LessOrEqual(t, d, hi)
}

func TestResetBackoffRestartsSequence(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.JitterMin, cfg.JitterMax = 1, 1
	c := New(cfg)
	c.NextDelay()
	c.NextDelay()
	c.ResetBackoff()
	assert.Equal(t, cfg.InitialDelay, c.NextDelay())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Failures = 3
	cfg.Cooldown = time.Hour // stays open for the duration of this test
	c := New(cfg)

	failing := errors.New("connect refused")
	for i := 0; i < 3; i++ {
		err := c.Attempt(func() error { return failing })
		require.ErrorIs(t, err, failing)
	}
	assert.Equal(t, Open, c.State())

	err := c.Attempt(func() error { return nil })
	assert.Error(t, err, "breaker should reject attempts while Open")
}

func TestBreakerClosesAfterSuccessfulHalfOpenProbe(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Failures = 1
	cfg.Cooldown = 10 * time.Millisecond
	c := New(cfg)

	require.Error(t, c.Attempt(func() error { return errors.New("boom") }))
	require.Equal(t, Open, c.State())

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Attempt(func() error { return nil }))
	assert.Equal(t, Closed, c.State())
}

func TestCooldownDoublesAfterFailedHalfOpenProbe(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Failures = 1
	cfg.Cooldown = 10 * time.Millisecond
	cfg.MaxCooldown = time.Second
	c := New(cfg)

	require.Error(t, c.Attempt(func() error { return errors.New("boom") }))
	require.Equal(t, Open, c.State())
	firstCooldown := c.cooldown

	time.Sleep(20 * time.Millisecond)
	require.Error(t, c.Attempt(func() error { return errors.New("still broken") }))
	require.Equal(t, Open, c.State())

	assert.Greater(t, c.cooldown, firstCooldown)
	assert.LessOrEqual(t, c.cooldown, cfg.MaxCooldown)
}

func TestExhaustedReportsAfterMaxConsecutiveOpens(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Failures = 1
	cfg.Cooldown = 5 * time.Millisecond
	cfg.MaxConsecutiveOpens = 2
	c := New(cfg)

	assert.False(t, c.Exhausted())

	require.Error(t, c.Attempt(func() error { return errors.New("fail 1") }))
	assert.False(t, c.Exhausted())

	time.Sleep(10 * time.Millisecond)
	require.Error(t, c.Attempt(func() error { return errors.New("fail 2") }))
	assert.True(t, c.Exhausted())
}
