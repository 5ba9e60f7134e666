// Package wire decodes and encodes the JSON frames exchanged with the
// server: typed inbound frames (snapshot, update, heartbeat, status,
// subscription acks, errors, and their L3 analogues), and outbound
// subscribe/unsubscribe/ping requests.
package wire

import (
	"github.com/hitakshiA/havklo/quote"
)

// Kind tags a decoded Frame's concrete type, for fast switch dispatch
// without a type assertion.
type Kind string

// Frame kinds.
const (
	KindSnapshot         Kind = "snapshot"
	KindUpdate           Kind = "update"
	KindHeartbeat        Kind = "heartbeat"
	KindStatus           Kind = "status"
	KindSubscriptionAck  Kind = "subscription_ack"
	KindSubscriptionNack Kind = "subscription_nack"
	KindUnsubscribeAck   Kind = "unsubscribe_ack"
	KindError            Kind = "error"
	KindPong             Kind = "pong"
	KindL3Snapshot       Kind = "l3_snapshot"
	KindL3Update         Kind = "l3_update"
)

// Frame is any decoded inbound message.
type Frame interface {
	Kind() Kind
}

// Snapshot is a full L2 book replacement for one symbol.
type Snapshot struct {
	Symbol   string
	Bids     []quote.Level
	Asks     []quote.Level
	Checksum uint32
}

// Kind implements Frame.
func (Snapshot) Kind() Kind { return KindSnapshot }

// Update is an L2 delta batch for one symbol.
type Update struct {
	Symbol   string
	Bids     []quote.Level
	Asks     []quote.Level
	Checksum uint32
	Sequence uint64
}

// Kind implements Frame.
func (Update) Kind() Kind { return KindUpdate }

// Heartbeat carries no data; its arrival alone resets the watchdog.
type Heartbeat struct{}

// Kind implements Frame.
func (Heartbeat) Kind() Kind { return KindHeartbeat }

// Status is a server system-status announcement.
type Status struct {
	System  string
	Version string
}

// Kind implements Frame.
func (Status) Kind() Kind { return KindStatus }

// SubscriptionAck confirms a subscribe request.
type SubscriptionAck struct {
	Channel string
	Symbols []string
}

// Kind implements Frame.
func (SubscriptionAck) Kind() Kind { return KindSubscriptionAck }

// UnsubscribeAck confirms an unsubscribe request.
type UnsubscribeAck struct {
	Channel string
	Symbols []string
}

// Kind implements Frame.
func (UnsubscribeAck) Kind() Kind { return KindUnsubscribeAck }

// SubscriptionNack rejects a subscribe/unsubscribe request.
type SubscriptionNack struct {
	Channel string
	Reason  string
}

// Kind implements Frame.
func (SubscriptionNack) Kind() Kind { return KindSubscriptionNack }

// ErrorFrame is a server-reported error not tied to a specific subscription.
type ErrorFrame struct {
	Code    string
	Message string
}

// Kind implements Frame.
func (ErrorFrame) Kind() Kind { return KindError }

// Pong answers an outbound Ping.
type Pong struct{}

// Kind implements Frame.
func (Pong) Kind() Kind { return KindPong }

// L3Event is a single order-level event carried inside an L3Update.
type L3Event struct {
	OrderID string
	Kind    L3EventKind
	Side    string
	Price   quote.Decimal
	Qty     quote.Decimal
}

// L3EventKind discriminates an L3Event's operation.
type L3EventKind string

// L3 event kinds.
const (
	L3Add    L3EventKind = "add"
	L3Modify L3EventKind = "modify"
	L3Delete L3EventKind = "delete"
)

// L3Snapshot is a full L3 book replacement for one symbol.
type L3Snapshot struct {
	Symbol string
	Orders []L3Event
}

// Kind implements Frame.
func (L3Snapshot) Kind() Kind { return KindL3Snapshot }

// L3Update is a batch of order-level events for one symbol.
type L3Update struct {
	Symbol string
	Events []L3Event
}

// Kind implements Frame.
func (L3Update) Kind() Kind { return KindL3Update }
