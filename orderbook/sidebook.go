package orderbook

import (
	"sort"

	"github.com/hitakshiA/havklo/quote"
)

// Side identifies which side of the book a price-level belongs to.
type Side int

// Sides.
const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// sideBook is an ordered sequence of price-levels for one side: bids
// descending by price, asks ascending by price. Depth never exceeds 1000, so
// a sorted slice with linear insertion is fine.
type sideBook struct {
	side   Side
	levels []quote.Level
}

func newSideBook(side Side) *sideBook {
	return &sideBook{side: side}
}

func (sb *sideBook) less(a, b quote.Level) bool {
	if sb.side == Bid {
		return a.Price.GreaterThan(b.Price)
	}
	return a.Price.LessThan(b.Price)
}

// applyDeltas upserts/removes levels in place, last-one-wins for duplicate
// prices within the same batch. It reports whether any level was inserted,
// removed, or had its quantity changed.
func (sb *sideBook) applyDeltas(deltas []quote.Level) bool {
	changed := false
	// Deltas are applied in arrival order, each an upsert-or-remove keyed by
	// price; a later delta for the same price naturally overrides an earlier
	// one within the same batch, giving "last one wins" for free.
	for _, d := range deltas {
		idx := sb.indexOf(d.Price)
		switch {
		case d.IsTombstone():
			if idx >= 0 {
				sb.levels = append(sb.levels[:idx], sb.levels[idx+1:]...)
				changed = true
			}
		case idx >= 0:
			if !sb.levels[idx].Qty.Equal(d.Qty) {
				sb.levels[idx].Qty = d.Qty
				changed = true
			}
		default:
			sb.levels = append(sb.levels, d)
			changed = true
		}
	}
	if changed {
		sb.sort()
	}
	return changed
}

// replace discards the current side entirely and installs levels fresh
// (used by ApplySnapshot). Zero-qty levels are dropped.
func (sb *sideBook) replace(levels []quote.Level) {
	sb.levels = sb.levels[:0]
	for _, lvl := range levels {
		if lvl.IsTombstone() {
			continue
		}
		if idx := sb.indexOf(lvl.Price); idx >= 0 {
			sb.levels[idx] = lvl // last one wins
			continue
		}
		sb.levels = append(sb.levels, lvl)
	}
	sb.sort()
}

func (sb *sideBook) sort() {
	sort.Slice(sb.levels, func(i, j int) bool { return sb.less(sb.levels[i], sb.levels[j]) })
}

func (sb *sideBook) truncate(depth int) {
	if depth > 0 && len(sb.levels) > depth {
		sb.levels = sb.levels[:depth]
	}
}

func (sb *sideBook) indexOf(price quote.Decimal) int {
	for i, lvl := range sb.levels {
		if lvl.Price.Equal(price) {
			return i
		}
	}
	return -1
}

func (sb *sideBook) best() (quote.Level, bool) {
	if len(sb.levels) == 0 {
		return quote.Level{}, false
	}
	return sb.levels[0], true
}

func (sb *sideBook) top(n int) []quote.Level {
	if n <= 0 || n > len(sb.levels) {
		n = len(sb.levels)
	}
	out := make([]quote.Level, n)
	copy(out, sb.levels[:n])
	return out
}

func (sb *sideBook) clone() *sideBook {
	out := &sideBook{side: sb.side, levels: make([]quote.Level, len(sb.levels))}
	copy(out.levels, sb.levels)
	return out
}

func (sb *sideBook) len() int { return len(sb.levels) }

// isStrictlyOrdered verifies the no-duplicate-prices and strict-ordering
// invariant for this side.
func (sb *sideBook) isStrictlyOrdered() bool {
	for i := 1; i < len(sb.levels); i++ {
		if !sb.less(sb.levels[i-1], sb.levels[i]) {
			return false
		}
	}
	return true
}
