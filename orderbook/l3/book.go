package l3

import (
	"sort"

	"github.com/hitakshiA/havklo/checksum"
	"github.com/hitakshiA/havklo/common"
	"github.com/hitakshiA/havklo/orderbook"
	"github.com/hitakshiA/havklo/quote"
)

type side struct {
	buckets map[string]*bucket
}

func newSide() *side { return &side{buckets: make(map[string]*bucket)} }

// Book is the order-level replica for a single symbol.
type Book struct {
	symbol    string
	depth     quote.Depth
	precision quote.PrecisionTable

	sides  [2]*side // indexed by orderbook.Bid / orderbook.Ask
	orders map[string]*Order
	index  map[string]orderLocation

	state orderbook.State
}

// New builds an empty L3 book for symbol at depth.
func New(symbol string, depth quote.Depth, precision quote.PrecisionTable) (*Book, error) {
	if err := depth.Validate(); err != nil {
		return nil, err
	}
	return &Book{
		symbol:    symbol,
		depth:     depth,
		precision: precision,
		sides:     [2]*side{orderbook.Bid: newSide(), orderbook.Ask: newSide()},
		orders:    make(map[string]*Order),
		index:     make(map[string]orderLocation),
		state:     orderbook.Synced,
	}, nil
}

// Symbol returns the book's trading pair.
func (b *Book) Symbol() string { return b.symbol }

// State reports the book's consistency state.
func (b *Book) State() orderbook.State { return b.state }

// Add appends order_id to the FIFO at (side, price), creating the price
// bucket if absent. It fails if order_id is already present.
func (b *Book) Add(o Order) error {
	if _, exists := b.orders[o.OrderID]; exists {
		return common.ErrOrderExists
	}
	key := priceKey(o.Price)
	s := b.sides[o.Side]
	bk, ok := s.buckets[key]
	if !ok {
		bk = &bucket{price: o.Price}
		s.buckets[key] = bk
	}
	bk.queue = append(bk.queue, o.OrderID)

	stored := o
	b.orders[o.OrderID] = &stored
	b.index[o.OrderID] = orderLocation{side: o.Side, priceKey: key}
	return nil
}

// Modify reduces an order's quantity in place, preserving its queue
// position. A new_qty of zero is treated as a delete. A new_qty greater than
// the current quantity is a protocol violation: the book is marked Desynced
// and an error is returned so the caller can emit a warning event.
func (b *Book) Modify(orderID string, newQty quote.Decimal) error {
	loc, ok := b.index[orderID]
	if !ok {
		return common.ErrOrderNotFound
	}
	if newQty.IsZero() {
		return b.Delete(orderID)
	}
	order := b.orders[orderID]
	if newQty.GreaterThan(order.Qty) {
		b.state = orderbook.Desynced
		return common.ErrQtyIncrease
	}
	order.Qty = newQty
	_ = loc
	return nil
}

// Delete removes order_id from its FIFO and index. If its bucket becomes
// empty, the bucket itself is removed.
func (b *Book) Delete(orderID string) error {
	loc, ok := b.index[orderID]
	if !ok {
		return common.ErrOrderNotFound
	}
	s := b.sides[loc.side]
	bk := s.buckets[loc.priceKey]
	if bk != nil {
		for i, id := range bk.queue {
			if id == orderID {
				bk.queue = append(bk.queue[:i], bk.queue[i+1:]...)
				break
			}
		}
		if len(bk.queue) == 0 {
			delete(s.buckets, loc.priceKey)
		}
	}
	delete(b.orders, orderID)
	delete(b.index, orderID)
	return nil
}

// QueuePosition reports orderID's 0-indexed slot within its price's FIFO,
// the quantity resting ahead of it, and a simple fill-probability estimator.
func (b *Book) QueuePosition(orderID string) (QueuePosition, bool) {
	loc, ok := b.index[orderID]
	if !ok {
		return QueuePosition{}, false
	}
	bk := b.sides[loc.side].buckets[loc.priceKey]
	if bk == nil {
		b.rebuildIndex()
		return QueuePosition{}, false
	}
	pos := -1
	qtyAhead := quote.Decimal{}
	for i, id := range bk.queue {
		if id == orderID {
			pos = i
			break
		}
		qtyAhead = qtyAhead.Add(b.orders[id].Qty)
	}
	if pos < 0 {
		b.rebuildIndex()
		return QueuePosition{}, false
	}
	own := b.orders[orderID].Qty
	denom := own.Add(qtyAhead)
	fillProb := 0.0
	if !denom.IsZero() {
		fillProb, _ = own.Div(denom).Float64()
	}
	return QueuePosition{
		Position:        pos,
		OrdersAhead:     pos,
		QtyAhead:        qtyAhead,
		FillProbability: fillProb,
	}, true
}

// AggregatedBids produces an L2 view summing quantity per price, descending,
// truncated to depth — for checksum cross-validation against the L2 book.
func (b *Book) AggregatedBids() []quote.Level {
	return b.aggregate(orderbook.Bid, func(a, c quote.Decimal) bool { return a.GreaterThan(c) })
}

// AggregatedAsks produces the ascending ask-side L2 view.
func (b *Book) AggregatedAsks() []quote.Level {
	return b.aggregate(orderbook.Ask, func(a, c quote.Decimal) bool { return a.LessThan(c) })
}

func (b *Book) aggregate(s orderbook.Side, less func(a, c quote.Decimal) bool) []quote.Level {
	buckets := b.sides[s].buckets
	levels := make([]quote.Level, 0, len(buckets))
	for _, bk := range buckets {
		total := quote.Decimal{}
		for _, id := range bk.queue {
			total = total.Add(b.orders[id].Qty)
		}
		levels = append(levels, quote.NewLevel(bk.price, total))
	}
	sort.Slice(levels, func(i, j int) bool { return less(levels[i].Price, levels[j].Price) })
	if b.depth.Int() > 0 && len(levels) > b.depth.Int() {
		levels = levels[:b.depth.Int()]
	}
	return levels
}

// Checksum computes the same CRC32 the L2 engine uses, over this book's
// aggregated top-10 view, so the two replicas can be cross-validated.
func (b *Book) Checksum() uint32 {
	asks := b.AggregatedAsks()
	bids := b.AggregatedBids()
	if len(asks) > 10 {
		asks = asks[:10]
	}
	if len(bids) > 10 {
		bids = bids[:10]
	}
	return checksum.Compute(checksum.Input{
		Asks:          asks,
		Bids:          bids,
		Symbol:        b.symbol,
		PrecisionFrom: b.precision,
	})
}

// rebuildIndex reconstructs the order_id index from the FIFO queues, which
// are always authoritative: if the index ever disagrees with a queue, the
// queue wins.
func (b *Book) rebuildIndex() {
	fresh := make(map[string]orderLocation, len(b.index))
	for sideIdx, s := range b.sides {
		for key, bk := range s.buckets {
			for _, id := range bk.queue {
				fresh[id] = orderLocation{side: orderbook.Side(sideIdx), priceKey: key}
			}
		}
	}
	b.index = fresh
}
