// Package l3 implements the order-level (L3) orderbook: per-order FIFO
// queues at each price, O(1) order lookup, queue-position queries, and an
// L2-compatible aggregated view for cross-validation against the checksum
// engine.
package l3

import (
	"github.com/hitakshiA/havklo/orderbook"
	"github.com/hitakshiA/havklo/quote"
)

// Order is a single resting order at one price.
type Order struct {
	OrderID   string
	Side      orderbook.Side
	Price     quote.Decimal
	Qty       quote.Decimal
	Timestamp int64 // monotonic per side; arrival order governs FIFO, not this
}

// QueuePosition describes an order's place in its price's FIFO queue.
type QueuePosition struct {
	Position       int // 0-indexed slot
	OrdersAhead    int // == Position
	QtyAhead       quote.Decimal
	FillProbability float64 // own_qty / (own_qty + qty_ahead); an estimator, not a guarantee
}

type orderLocation struct {
	side     orderbook.Side
	priceKey string
}

type bucket struct {
	price quote.Decimal
	queue []string // FIFO of order IDs
}

func priceKey(p quote.Decimal) string { return p.String() }
