package session

import (
	"time"

	"github.com/hitakshiA/havklo/log"
	"github.com/hitakshiA/havklo/quote"
	"github.com/hitakshiA/havklo/reconnect"
	"github.com/hitakshiA/havklo/transport"
)

// Option adjusts a Config before New applies it. Options compose left to
// right over whatever base Config the caller passed in:
//
//	sess := session.New(session.DefaultConfig(),
//		session.WithEndpoint(transport.Level3),
//		session.WithDepth(quote.Depth100),
//	)
type Option func(*Config)

// WithEndpoint selects which of the exchange's API surfaces to dial.
func WithEndpoint(e transport.Endpoint) Option {
	return func(c *Config) { c.Endpoint = e }
}

// WithDepth sets the book depth subscribed and used in checksum validation.
func WithDepth(d quote.Depth) Option {
	return func(c *Config) { c.Depth = d }
}

// WithPrecision installs per-pair price/qty precision overrides for checksum
// formatting.
func WithPrecision(t quote.PrecisionTable) Option {
	return func(c *Config) { c.Precision = t }
}

// WithReconnect replaces the reconnect backoff and breaker configuration.
func WithReconnect(cfg reconnect.Config) Option {
	return func(c *Config) { c.Reconnect = cfg }
}

// WithConnectTimeout bounds each transport dial attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Config) { c.ConnectTimeout = d }
}

// WithHeartbeatWindow sets how long the session tolerates silence before
// treating the connection as dead.
func WithHeartbeatWindow(d time.Duration) Option {
	return func(c *Config) { c.HeartbeatWindow = d }
}

// WithAckTimeout sets how long a subscribe request may wait unconfirmed
// before it is re-sent once.
func WithAckTimeout(d time.Duration) Option {
	return func(c *Config) { c.AckTimeout = d }
}

// WithDispatchBuffer sets the event queue's capacity.
func WithDispatchBuffer(n int) Option {
	return func(c *Config) { c.DispatchBuffer = n }
}

// WithLogger routes the session's structured log output.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
