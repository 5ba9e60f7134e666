package event

import (
	"context"
	"sync"

	"github.com/hitakshiA/havklo/common"
)

// DefaultCapacity is the dispatcher's queue bound when the caller doesn't
// override it.
const DefaultCapacity = 1024

// Dispatcher fans out events to a single consumer through a bounded queue.
// When Emit would exceed capacity, the oldest queued event is dropped and
// folded into a pending Lagged notice delivered ahead of the next real
// event — market data is preferred fresh over complete.
type Dispatcher struct {
	mu           sync.Mutex
	queue        []Event
	capacity     int
	pendingDrops int
	closed       bool
	wake         chan struct{}
}

// NewDispatcher builds a Dispatcher bounded at capacity, which must be > 0.
func NewDispatcher(capacity int) *Dispatcher {
	if capacity <= 0 {
		panic("event: capacity must be greater than 0")
	}
	return &Dispatcher{
		capacity: capacity,
		wake:     make(chan struct{}, 1),
	}
}

func (d *Dispatcher) notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Emit enqueues ev, applying drop-oldest overflow policy. It never blocks.
func (d *Dispatcher) Emit(ev Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if len(d.queue) >= d.capacity {
		d.queue = d.queue[1:]
		d.pendingDrops++
	}
	d.queue = append(d.queue, ev)
	d.mu.Unlock()
	d.notify()
}

// errClosed marks a Next call against a drained, closed dispatcher.
var errClosed = &closedError{}

type closedError struct{}

func (*closedError) Error() string { return "event: dispatcher closed" }

func (d *Dispatcher) tryNext() (ev Event, ok bool, closed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pendingDrops > 0 {
		n := d.pendingDrops
		d.pendingDrops = 0
		return Lagged{DroppedN: n}, true, false
	}
	if len(d.queue) > 0 {
		ev := d.queue[0]
		d.queue = d.queue[1:]
		return ev, true, false
	}
	return nil, false, d.closed
}

// Next blocks until an event (including a synthesized Lagged notice) is
// available, ctx is canceled, or the dispatcher is Closed with nothing left
// to deliver.
func (d *Dispatcher) Next(ctx context.Context) (Event, error) {
	for {
		ev, ok, closed := d.tryNext()
		if ok {
			return ev, nil
		}
		if closed {
			return nil, common.Tag(common.KindChannelClosed, errClosed)
		}
		select {
		case <-d.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close marks the dispatcher closed. Already-queued events can still be
// drained via Next; once empty, Next returns a ChannelClosed-tagged error.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.notify()
}

// Len reports the number of events currently queued (excluding any pending
// Lagged notice, which is synthesized lazily on read).
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
