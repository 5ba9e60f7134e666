// Package orderbook implements the Level-2 aggregated orderbook replica:
// ordered price-levels per side and checksum-validated snapshot/update
// application.
package orderbook

import (
	"github.com/shopspring/decimal"

	"github.com/hitakshiA/havklo/checksum"
	"github.com/hitakshiA/havklo/common"
	"github.com/hitakshiA/havklo/quote"
)

var two = decimal.NewFromInt(2)

// State is the orderbook's lifecycle/consistency state.
type State int

// States.
const (
	Uninitialized State = iota
	Synced
	Desynced
)

func (s State) String() string {
	switch s {
	case Synced:
		return "synced"
	case Desynced:
		return "desynced"
	default:
		return "uninitialized"
	}
}

// maxPreSnapshotBuffer bounds how many updates may be queued while awaiting
// a snapshot before the book gives up and desyncs.
const maxPreSnapshotBuffer = 16

// Update is a single inbound delta batch for one symbol.
type Update struct {
	Symbol   string
	Bids     []quote.Level
	Asks     []quote.Level
	Checksum uint32
	Sequence uint64
}

// Snapshot is a full replacement of both sides for one symbol.
type Snapshot struct {
	Symbol   string
	Bids     []quote.Level
	Asks     []quote.Level
	Checksum uint32
}

// BookSnapshot is an immutable clone of an Orderbook's current state, safe to
// hand off across goroutines (e.g. to the event dispatcher).
type BookSnapshot struct {
	Symbol   string
	Bids     []quote.Level
	Asks     []quote.Level
	Checksum uint32
	Sequence uint64
	State    State
}

// Orderbook is the L2 replica for a single symbol.
type Orderbook struct {
	symbol    string
	depth     quote.Depth
	precision quote.PrecisionTable

	bids *sideBook
	asks *sideBook

	checksum uint32
	sequence uint64
	state    State

	pending []Update // updates buffered before the first snapshot arrives
}

// New builds an empty, Uninitialized orderbook for symbol at depth.
func New(symbol string, depth quote.Depth, precision quote.PrecisionTable) (*Orderbook, error) {
	if err := depth.Validate(); err != nil {
		return nil, err
	}
	return &Orderbook{
		symbol:    symbol,
		depth:     depth,
		precision: precision,
		bids:      newSideBook(Bid),
		asks:      newSideBook(Ask),
		state:     Uninitialized,
	}, nil
}

// Symbol returns the book's trading pair.
func (ob *Orderbook) Symbol() string { return ob.symbol }

// State returns the book's current consistency state.
func (ob *Orderbook) State() State { return ob.state }

// Sequence returns the last applied update's sequence number, if any.
func (ob *Orderbook) Sequence() uint64 { return ob.sequence }

// Checksum returns the last server-advertised checksum this book matched.
func (ob *Orderbook) Checksum() uint32 { return ob.checksum }

// BestBid returns the highest bid, if the side is non-empty.
func (ob *Orderbook) BestBid() (quote.Level, bool) { return ob.bids.best() }

// BestAsk returns the lowest ask, if the side is non-empty.
func (ob *Orderbook) BestAsk() (quote.Level, bool) { return ob.asks.best() }

// Spread returns best_ask - best_bid, or false if either side is empty.
func (ob *Orderbook) Spread() (quote.Decimal, bool) {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return quote.Decimal{}, false
	}
	return ask.Price.Sub(bid.Price), true
}

// MidPrice returns (best_bid + best_ask) / 2, or false if either side is empty.
func (ob *Orderbook) MidPrice() (quote.Decimal, bool) {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return quote.Decimal{}, false
	}
	return bid.Price.Add(ask.Price).Div(two), true
}

// Snapshot returns a deep copy of the book's current state.
func (ob *Orderbook) Snapshot() BookSnapshot {
	return BookSnapshot{
		Symbol:   ob.symbol,
		Bids:     ob.bids.top(-1),
		Asks:     ob.asks.top(-1),
		Checksum: ob.checksum,
		Sequence: ob.sequence,
		State:    ob.state,
	}
}

// ApplySnapshot replaces both sides entirely and validates the result
// against the server-advertised checksum. On mismatch, the book is left
// empty and Desynced — a snapshot that arrives already inconsistent is
// handled the same way as an update that fails validation.
func (ob *Orderbook) ApplySnapshot(s Snapshot) (*Mismatch, error) {
	if s.Symbol != ob.symbol {
		return nil, common.ErrUnknownSymbol
	}
	ob.bids.replace(s.Bids)
	ob.asks.replace(s.Asks)
	ob.bids.truncate(ob.depth.Int())
	ob.asks.truncate(ob.depth.Int())

	computed := ob.computeChecksum()
	if computed != s.Checksum || !ob.invariantsHold() {
		mismatch := &Mismatch{Symbol: ob.symbol, Expected: s.Checksum, Computed: computed}
		ob.reset()
		ob.state = Desynced
		return mismatch, nil
	}

	ob.checksum = s.Checksum
	ob.sequence = 0
	ob.state = Synced
	replay := ob.pending
	ob.pending = nil
	for _, u := range replay {
		if _, err := ob.ApplyUpdate(u); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// Mismatch describes a checksum validation failure.
type Mismatch struct {
	Symbol   string
	Expected uint32
	Computed uint32
}

// ApplyUpdate applies a delta batch atomically: either every delta is
// applied, depth-truncation and checksum verification succeed, or the book
// reverts entirely to its pre-update state and is marked Desynced.
func (ob *Orderbook) ApplyUpdate(u Update) (*Mismatch, error) {
	if u.Symbol != ob.symbol {
		return nil, common.ErrUnknownSymbol
	}
	if ob.state == Uninitialized {
		if len(ob.pending) >= maxPreSnapshotBuffer {
			ob.state = Desynced
			return nil, common.ErrBufferExhausted
		}
		ob.pending = append(ob.pending, u)
		return nil, nil
	}

	preBids := ob.bids.clone()
	preAsks := ob.asks.clone()
	preChecksum := ob.checksum
	preSequence := ob.sequence

	bidsChanged := ob.bids.applyDeltas(u.Bids)
	asksChanged := ob.asks.applyDeltas(u.Asks)
	if bidsChanged {
		ob.bids.truncate(ob.depth.Int())
	}
	if asksChanged {
		ob.asks.truncate(ob.depth.Int())
	}

	computed := ob.computeChecksum()
	if computed != u.Checksum || !ob.invariantsHold() {
		ob.bids = preBids
		ob.asks = preAsks
		ob.checksum = preChecksum
		ob.sequence = preSequence
		ob.state = Desynced
		return &Mismatch{Symbol: ob.symbol, Expected: u.Checksum, Computed: computed}, nil
	}

	ob.checksum = u.Checksum
	if u.Sequence > 0 {
		ob.sequence = u.Sequence
	} else {
		ob.sequence++
	}
	return nil, nil
}

// computeChecksum runs the checksum engine over the current top-10 levels.
func (ob *Orderbook) computeChecksum() uint32 {
	return checksum.Compute(checksum.Input{
		Asks:          ob.asks.top(10),
		Bids:          ob.bids.top(10),
		Symbol:        ob.symbol,
		PrecisionFrom: ob.precision,
	})
}

// invariantsHold checks strict per-side ordering, depth bounds, and that the
// book is not crossed.
func (ob *Orderbook) invariantsHold() bool {
	if !ob.bids.isStrictlyOrdered() || !ob.asks.isStrictlyOrdered() {
		return false
	}
	if ob.bids.len() > ob.depth.Int() || ob.asks.len() > ob.depth.Int() {
		return false
	}
	bestBid, okBid := ob.bids.best()
	bestAsk, okAsk := ob.asks.best()
	if okBid && okAsk && !bestAsk.Price.GreaterThan(bestBid.Price) {
		return false
	}
	return true
}

// reset discards all book state. Used on checksum mismatch recovery: a book
// known to be inconsistent keeps nothing.
func (ob *Orderbook) reset() {
	ob.bids = newSideBook(Bid)
	ob.asks = newSideBook(Ask)
	ob.checksum = 0
	ob.sequence = 0
	ob.pending = nil
}
