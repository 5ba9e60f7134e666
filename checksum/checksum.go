// Package checksum computes the server-defined CRC32 fingerprint over the
// top-N levels of a Kraken orderbook, bit-identical to the value the
// exchange publishes with every snapshot and update.
package checksum

import (
	"hash/crc32"
	"strings"

	"github.com/hitakshiA/havklo/quote"
)

// Input carries already-truncated, correctly-ordered top-N levels: asks
// ascending by price, bids descending by price. Compute does not re-sort or
// truncate; that is the orderbook's responsibility.
type Input struct {
	Asks          []quote.Level
	Bids          []quote.Level
	Symbol        string
	PricePrec     int32
	QtyPrec       int32
	PrecisionFrom quote.PrecisionTable
}

// Compute builds the canonical string for in and returns its CRC32 (ISO
// 3309 / IEEE 802.3, polynomial 0xEDB88320, reflected, init/final 0xFFFFFFFF —
// exactly stdlib crc32.IEEE) fingerprint.
func Compute(in Input) uint32 {
	pricePrec := in.PricePrec
	qtyPrec := in.QtyPrec
	if pricePrec == 0 && qtyPrec == 0 && in.Symbol != "" {
		pricePrec = in.PrecisionFrom.PriceFor(in.Symbol)
		qtyPrec = in.PrecisionFrom.QtyFor(in.Symbol)
	}
	if pricePrec == 0 {
		pricePrec = quote.DefaultPricePrecision
	}
	if qtyPrec == 0 {
		qtyPrec = quote.DefaultQtyPrecision
	}

	var b strings.Builder
	for _, lvl := range in.Asks {
		writeLevel(&b, lvl, pricePrec, qtyPrec)
	}
	for _, lvl := range in.Bids {
		writeLevel(&b, lvl, pricePrec, qtyPrec)
	}
	return crc32.ChecksumIEEE([]byte(b.String()))
}

// writeLevel appends the canonical digit run for one level: price and qty
// each formatted to their configured precision, decimal point removed, and
// any leading zeros stripped.
func writeLevel(b *strings.Builder, lvl quote.Level, pricePrec, qtyPrec int32) {
	b.WriteString(stripLeadingZeros(stripPoint(lvl.Price.StringFixed(pricePrec))))
	b.WriteString(stripLeadingZeros(stripPoint(lvl.Qty.StringFixed(qtyPrec))))
}

func stripPoint(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i] + s[i+1:]
	}
	return s
}

func stripLeadingZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}

// CanonicalString exposes the canonical pre-CRC string, primarily for tests
// and diagnostics (e.g. logging a mismatch's mismatched input).
func CanonicalString(in Input) string {
	pricePrec := in.PricePrec
	qtyPrec := in.QtyPrec
	if pricePrec == 0 && qtyPrec == 0 && in.Symbol != "" {
		pricePrec = in.PrecisionFrom.PriceFor(in.Symbol)
		qtyPrec = in.PrecisionFrom.QtyFor(in.Symbol)
	}
	if pricePrec == 0 {
		pricePrec = quote.DefaultPricePrecision
	}
	if qtyPrec == 0 {
		qtyPrec = quote.DefaultQtyPrecision
	}
	var b strings.Builder
	for _, lvl := range in.Asks {
		writeLevel(&b, lvl, pricePrec, qtyPrec)
	}
	for _, lvl := range in.Bids {
		writeLevel(&b, lvl, pricePrec, qtyPrec)
	}
	return b.String()
}
