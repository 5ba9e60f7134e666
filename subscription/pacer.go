package subscription

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Pacer queues outbound subscribe/unsubscribe requests in declaration order
// and releases them at the server's documented rate: refill 1/sec, burst 5.
type Pacer struct {
	limiter *rate.Limiter

	mu    sync.Mutex
	queue []Request
}

// DefaultRefillPerSecond and DefaultBurst match the documented server limit.
const (
	DefaultRefillPerSecond = 1
	DefaultBurst           = 5
)

// NewPacer builds a Pacer with the given refill rate and burst size.
func NewPacer(refillPerSecond float64, burst int) *Pacer {
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(refillPerSecond), burst)}
}

// NewDefaultPacer builds a Pacer using the documented server defaults.
func NewDefaultPacer() *Pacer {
	return NewPacer(DefaultRefillPerSecond, DefaultBurst)
}

// Submit enqueues req behind any already-queued requests.
func (p *Pacer) Submit(req Request) {
	p.mu.Lock()
	p.queue = append(p.queue, req)
	p.mu.Unlock()
}

// Next blocks until the token bucket admits the head-of-queue request, then
// pops and returns it. It returns ok=false immediately, without consuming a
// token, if the queue was empty — callers should poll again once more
// requests are Submitted. A non-nil error means ctx was canceled while
// waiting for a token.
func (p *Pacer) Next(ctx context.Context) (req Request, ok bool, err error) {
	p.mu.Lock()
	empty := len(p.queue) == 0
	p.mu.Unlock()
	if empty {
		return Request{}, false, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return Request{}, false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return Request{}, false, nil
	}
	req = p.queue[0]
	p.queue = p.queue[1:]
	return req, true, nil
}

// Reset discards everything queued. The session calls it on every successful
// connect, just before replaying the registry, so the replayed set goes out
// without stale duplicates.
func (p *Pacer) Reset() {
	p.mu.Lock()
	p.queue = p.queue[:0]
	p.mu.Unlock()
}

// Len reports how many requests are currently queued.
func (p *Pacer) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
