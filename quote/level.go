// Package quote defines the price-level primitive shared by the L2 and L3
// orderbooks, plus the book-depth enum used for both subscription and
// checksum truncation.
package quote

import (
	"github.com/shopspring/decimal"

	"github.com/hitakshiA/havklo/common"
)

// Decimal re-exports shopspring/decimal's type so callers outside this
// package never need a direct import just to name the type.
type Decimal = decimal.Decimal

// Level is a single price/quantity pair. A Level with Qty == 0 is a
// tombstone: it signals removal of that price and must never appear in a
// materialized book.
type Level struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// NewLevel builds a Level from decimal.Decimal values.
func NewLevel(price, qty decimal.Decimal) Level {
	return Level{Price: price, Qty: qty}
}

// IsTombstone reports whether this level signals removal.
func (l Level) IsTombstone() bool { return l.Qty.IsZero() }

// Depth is the number of price levels retained per side and used as input to
// the checksum. Only the enumerated values are valid.
type Depth int

// Valid depth values.
const (
	Depth10   Depth = 10
	Depth25   Depth = 25
	Depth100  Depth = 100
	Depth500  Depth = 500
	Depth1000 Depth = 1000
)

// Validate reports an error unless d is one of the enumerated depths.
func (d Depth) Validate() error {
	switch d {
	case Depth10, Depth25, Depth100, Depth500, Depth1000:
		return nil
	default:
		return common.Tagf(common.KindInvalidParameter, "invalid depth %d", int(d))
	}
}

// Int returns the depth as a plain int, for slicing.
func (d Depth) Int() int { return int(d) }

// Precision controls how a pair's price and quantity are formatted into the
// checksum's canonical string. Pairs absent from a caller-supplied override
// table use DefaultPricePrecision/DefaultQtyPrecision.
const (
	DefaultPricePrecision = 8
	DefaultQtyPrecision   = 8
)

// PrecisionTable resolves per-symbol precision overrides, falling back to the
// package defaults when a symbol has none configured.
type PrecisionTable struct {
	Price map[string]int32
	Qty   map[string]int32
}

// PriceFor returns the configured price precision for sym, or the default.
func (t PrecisionTable) PriceFor(sym string) int32 {
	if t.Price != nil {
		if p, ok := t.Price[sym]; ok {
			return p
		}
	}
	return DefaultPricePrecision
}

// QtyFor returns the configured quantity precision for sym, or the default.
func (t PrecisionTable) QtyFor(sym string) int32 {
	if t.Qty != nil {
		if q, ok := t.Qty[sym]; ok {
			return q
		}
	}
	return DefaultQtyPrecision
}
