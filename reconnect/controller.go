// Package reconnect drives reconnect backoff timing and a circuit breaker
// that blocks reconnection attempts after repeated consecutive failure.
package reconnect

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config tunes backoff delay growth and circuit breaker thresholds.
type Config struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterMin    float64
	JitterMax    float64

	// Failures is the consecutive-failure count that trips the breaker open.
	Failures uint32
	// Cooldown is how long the breaker stays Open before probing Half-Open.
	Cooldown time.Duration
	// MaxCooldown bounds how far Cooldown grows after a failed probe.
	MaxCooldown time.Duration
	// MaxConsecutiveOpens, if non-zero, is the number of times the breaker
	// may re-open before Exhausted reports true, signaling the caller
	// should give up and transition to a terminal failed state.
	MaxConsecutiveOpens int
}

// DefaultConfig returns the documented server-facing defaults.
func DefaultConfig() Config {
	return Config{
		InitialDelay:        100 * time.Millisecond,
		MaxDelay:            30 * time.Second,
		Multiplier:          2,
		JitterMin:           0.8,
		JitterMax:           1.2,
		Failures:            5,
		Cooldown:            30 * time.Second,
		MaxCooldown:         5 * time.Minute,
		MaxConsecutiveOpens: 0,
	}
}

// BreakerState mirrors gobreaker's three states without leaking the
// dependency's type into callers.
type BreakerState int

// Breaker states.
const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Controller owns both halves of reconnection policy: the backoff delay
// sequence, and a circuit breaker gating whether an attempt is allowed at
// all. The two are deliberately independent — the breaker can be Open while
// a caller still computes (and ignores) a backoff delay.
type Controller struct {
	cfg Config

	mu          sync.Mutex
	attempt     int
	cooldown    time.Duration
	opens       int
	wasHalfOpen bool
	breaker     *gobreaker.CircuitBreaker[struct{}]
}

// New builds a Controller from cfg.
func New(cfg Config) *Controller {
	c := &Controller{cfg: cfg, cooldown: cfg.Cooldown}
	c.breaker = c.newBreaker(cfg.Cooldown)
	return c
}

func (c *Controller) newBreaker(timeout time.Duration) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "reconnect",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.cfg.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.onStateChange(to)
		},
	})
}

// onStateChange grows the cooldown (and rebuilds the breaker to use it)
// whenever a Half-Open probe fails back to Open; a fresh Closed→Open trip
// keeps the base cooldown.
func (c *Controller) onStateChange(to gobreaker.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch to {
	case gobreaker.StateHalfOpen:
		c.wasHalfOpen = true
	case gobreaker.StateOpen:
		c.opens++
		if c.wasHalfOpen {
			c.cooldown = minDuration(c.cooldown*2, c.cfg.MaxCooldown)
			c.breaker = c.newBreaker(c.cooldown)
		}
		c.wasHalfOpen = false
	case gobreaker.StateClosed:
		c.cooldown = c.cfg.Cooldown
		c.attempt = 0
		c.opens = 0
		c.wasHalfOpen = false
	}
}

func (c *Controller) currentBreaker() *gobreaker.CircuitBreaker[struct{}] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.breaker
}

// Attempt runs connect through the circuit breaker. It returns
// gobreaker.ErrOpenState (unwrapped to the caller) if the breaker is
// currently Open and not yet due for a Half-Open probe.
func (c *Controller) Attempt(connect func() error) error {
	_, err := c.currentBreaker().Execute(func() (struct{}, error) {
		return struct{}{}, connect()
	})
	return err
}

// State reports the breaker's current state.
func (c *Controller) State() BreakerState {
	switch c.currentBreaker().State() {
	case gobreaker.StateOpen:
		return Open
	case gobreaker.StateHalfOpen:
		return HalfOpen
	default:
		return Closed
	}
}

// Exhausted reports whether the breaker has reopened MaxConsecutiveOpens
// times, per Config — the session's cue to stop retrying and go Failed.
func (c *Controller) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.MaxConsecutiveOpens > 0 && c.opens >= c.cfg.MaxConsecutiveOpens
}

// NextDelay returns the backoff delay for the next connect attempt and
// advances the internal attempt counter. delay(n) = min(max, initial *
// multiplier^(n-1)) with multiplicative jitter in [JitterMin, JitterMax].
func (c *Controller) NextDelay() time.Duration {
	c.mu.Lock()
	c.attempt++
	n := c.attempt
	c.mu.Unlock()
	return c.delayFor(n)
}

func (c *Controller) delayFor(n int) time.Duration {
	base := float64(c.cfg.InitialDelay) * math.Pow(c.cfg.Multiplier, float64(n-1))
	if max := float64(c.cfg.MaxDelay); base > max {
		base = max
	}
	jitter := c.cfg.JitterMin + rand.Float64()*(c.cfg.JitterMax-c.cfg.JitterMin)
	d := time.Duration(base * jitter)
	if d > c.cfg.MaxDelay {
		d = c.cfg.MaxDelay
	}
	return d
}

// ResetBackoff zeroes the attempt counter, called on a successful connect.
func (c *Controller) ResetBackoff() {
	c.mu.Lock()
	c.attempt = 0
	c.mu.Unlock()
}

// Attempts reports the current attempt counter, for diagnostics/events.
func (c *Controller) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
