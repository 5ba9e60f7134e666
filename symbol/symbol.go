// Package symbol implements Kraken's "BASE/QUOTE" trading pair symbol format.
package symbol

import (
	"strings"

	"github.com/hitakshiA/havklo/common"
)

// Well-known symbols, for callers that don't want to spell out the common
// pairs.
const (
	BTCUSD  = "BTC/USD"
	ETHUSD  = "ETH/USD"
	SOLUSD  = "SOL/USD"
	XRPUSD  = "XRP/USD"
	DOGEUSD = "DOGE/USD"
)

// Symbol is a validated "BASE/QUOTE" trading pair.
type Symbol struct {
	raw string
}

// Parse validates s as a "BASE/QUOTE" symbol. It rejects a missing slash,
// multiple slashes, or an empty base/quote half; letter case is not checked.
func Parse(s string) (Symbol, error) {
	if !strings.Contains(s, "/") {
		return Symbol{}, common.Tagf(common.KindInvalidParameter, "symbol %q missing '/'", s)
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Symbol{}, common.Tagf(common.KindInvalidParameter, "symbol %q has more than one '/'", s)
	}
	if parts[0] == "" || parts[1] == "" {
		return Symbol{}, common.Tagf(common.KindInvalidParameter, "symbol %q has an empty base or quote", s)
	}
	return Symbol{raw: s}, nil
}

// MustParse parses s and panics on error; for use with compile-time constants.
func MustParse(s string) Symbol {
	sym, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return sym
}

// String returns the symbol in "BASE/QUOTE" form.
func (s Symbol) String() string { return s.raw }

// Base returns the base currency, e.g. "BTC" from "BTC/USD".
func (s Symbol) Base() string {
	i := strings.IndexByte(s.raw, '/')
	if i < 0 {
		return ""
	}
	return s.raw[:i]
}

// Quote returns the quote currency, e.g. "USD" from "BTC/USD".
func (s Symbol) Quote() string {
	i := strings.IndexByte(s.raw, '/')
	if i < 0 {
		return ""
	}
	return s.raw[i+1:]
}

// IsZero reports whether s is the zero value (never successfully parsed).
func (s Symbol) IsZero() bool { return s.raw == "" }

// MarshalText implements encoding.TextMarshaler for transparent JSON encoding.
func (s Symbol) MarshalText() ([]byte, error) { return []byte(s.raw), nil }

// UnmarshalText implements encoding.TextUnmarshaler, validating on decode.
func (s *Symbol) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
