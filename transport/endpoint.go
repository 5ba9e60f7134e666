// Package transport dials and maintains the underlying WebSocket connection,
// independent of the wire codec and session state machine built on top of it.
package transport

// Endpoint identifies one of the exchange's WebSocket API surfaces.
type Endpoint int

const (
	Public Endpoint = iota
	Private
	PublicBeta
	PrivateBeta
	Level3
)

// URL returns the dial target for e.
func (e Endpoint) URL() string {
	switch e {
	case Public:
		return "wss://ws.kraken.com/v2"
	case Private:
		return "wss://ws-auth.kraken.com/v2"
	case PublicBeta:
		return "wss://beta-ws.kraken.com/v2"
	case PrivateBeta:
		return "wss://beta-ws-auth.kraken.com/v2"
	case Level3:
		return "wss://ws-l3.kraken.com/v2"
	default:
		return ""
	}
}

// RequiresAuth reports whether connecting to e requires a signed token.
func (e Endpoint) RequiresAuth() bool {
	switch e {
	case Private, PrivateBeta, Level3:
		return true
	default:
		return false
	}
}

func (e Endpoint) String() string {
	switch e {
	case Public:
		return "public"
	case Private:
		return "private"
	case PublicBeta:
		return "public_beta"
	case PrivateBeta:
		return "private_beta"
	case Level3:
		return "level3"
	default:
		return "unknown"
	}
}
