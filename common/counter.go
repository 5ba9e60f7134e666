package common

import "sync/atomic"

// Counter is a small atomic monotonic counter, handy for minting unique
// test fixtures.
type Counter struct {
	n int64
}

// IncrementAndGet atomically increments the counter and returns the new value.
func (c *Counter) IncrementAndGet() int64 {
	return atomic.AddInt64(&c.n, 1)
}

// Get returns the current value without mutating it.
func (c *Counter) Get() int64 {
	return atomic.LoadInt64(&c.n)
}
