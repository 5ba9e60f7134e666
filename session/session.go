// Package session owns the top-level connection state machine: it wires
// transport, wire, the L2/L3 books, the subscription registry, and the
// reconnect controller into a single goroutine that owns every book (no
// locking needed on the hot decode path) and publishes everything through an
// event.Dispatcher.
package session

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/hitakshiA/havklo/common"
	"github.com/hitakshiA/havklo/event"
	"github.com/hitakshiA/havklo/log"
	"github.com/hitakshiA/havklo/orderbook"
	"github.com/hitakshiA/havklo/orderbook/l3"
	"github.com/hitakshiA/havklo/quote"
	"github.com/hitakshiA/havklo/reconnect"
	"github.com/hitakshiA/havklo/subscription"
	"github.com/hitakshiA/havklo/transport"
	"github.com/hitakshiA/havklo/wire"
)

// State is the session's top-level connection state.
type State int

// States, per the connection lifecycle: a fresh session starts
// Disconnected, moves through Connecting to Connected, falls back to
// Reconnecting on any transport loss, and reaches Failed either when a dial
// is rejected for invalid credentials or once the reconnect controller's
// breaker is Exhausted.
const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
	Failed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Timing defaults for the connection watchdog and subscribe/ack cycle.
const (
	DefaultConnectTimeout  = 10 * time.Second
	DefaultHeartbeatWindow = 15 * time.Second
	DefaultAckTimeout      = 5 * time.Second
)

// Config configures a Session before Start is called.
type Config struct {
	Endpoint        transport.Endpoint
	Headers         http.Header
	Depth           quote.Depth
	Precision       quote.PrecisionTable
	ConnectTimeout  time.Duration
	HeartbeatWindow time.Duration
	AckTimeout      time.Duration
	Reconnect       reconnect.Config
	DispatchBuffer  int
	Logger          *log.Logger
}

// DefaultConfig returns sensible defaults for every tunable Config field.
func DefaultConfig() Config {
	return Config{
		Endpoint:        transport.Public,
		Depth:           quote.Depth10,
		ConnectTimeout:  DefaultConnectTimeout,
		HeartbeatWindow: DefaultHeartbeatWindow,
		AckTimeout:      DefaultAckTimeout,
		Reconnect:       reconnect.DefaultConfig(),
		DispatchBuffer:  event.DefaultCapacity,
		Logger:          log.Discard,
	}
}

type command struct {
	kind commandKind
	req  subscription.Request
	done chan error
}

type commandKind int

const (
	cmdUnsubscribe commandKind = iota
	cmdShutdown
)

// Session is the engine's top-level handle: one goroutine owns the
// connection, every book, and the subscription registry; all other access
// goes through the command inbox or the event dispatcher.
type Session struct {
	cfg Config
	log *log.Logger

	dispatcher *event.Dispatcher
	registry   *subscription.Registry
	pacer      *subscription.Pacer
	reconn     *reconnect.Controller

	mu          sync.RWMutex
	state       State
	books       map[string]*orderbook.Orderbook
	books3      map[string]*l3.Book
	pendingAcks map[subscription.Key]*ackWait

	conn   *transport.Conn
	inbox  chan command
	cancel context.CancelFunc
	done   chan struct{}

	// dialURL overrides cfg.Endpoint.URL() when set, for tests that dial a
	// local server instead of a real exchange host.
	dialURL string
}

// ackWait tracks one outstanding subscribe request awaiting server
// confirmation, for the resend-once-then-give-up policy.
type ackWait struct {
	req    subscription.Request
	sentAt time.Time
	resent bool
}

// New builds a Session from cfg, with any opts applied on top, ready for
// Start.
func New(cfg Config, opts ...Option) *Session {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = event.DefaultCapacity
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.HeartbeatWindow <= 0 {
		cfg.HeartbeatWindow = DefaultHeartbeatWindow
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	return &Session{
		cfg:         cfg,
		log:         cfg.Logger.Sub("session"),
		dispatcher:  event.NewDispatcher(cfg.DispatchBuffer),
		registry:    subscription.New(),
		pacer:       subscription.NewDefaultPacer(),
		reconn:      reconnect.New(cfg.Reconnect),
		state:       Disconnected,
		books:       make(map[string]*orderbook.Orderbook),
		books3:      make(map[string]*l3.Book),
		pendingAcks: make(map[subscription.Key]*ackWait),
		inbox:       make(chan command, 64),
	}
}

// Events returns the dispatcher consumers read from.
func (s *Session) Events() *event.Dispatcher { return s.dispatcher }

// State reports the session's current connection state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Orderbook returns the L2 replica for symbol, if one has been created by a
// prior subscription.
func (s *Session) Orderbook(symbol string) (*orderbook.Orderbook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ob, ok := s.books[symbol]
	return ob, ok
}

// L3Book returns the order-level replica for symbol, if one exists.
func (s *Session) L3Book(symbol string) (*l3.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ob, ok := s.books3[symbol]
	return ob, ok
}

func (s *Session) bookFor(symbol string) *orderbook.Orderbook {
	s.mu.Lock()
	defer s.mu.Unlock()
	ob, ok := s.books[symbol]
	if !ok {
		ob, _ = orderbook.New(symbol, s.cfg.Depth, s.cfg.Precision)
		s.books[symbol] = ob
	}
	return ob
}

func (s *Session) l3BookFor(symbol string) *l3.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books3[symbol]
	if !ok {
		b, _ = l3.New(symbol, s.cfg.Depth, s.cfg.Precision)
		s.books3[symbol] = b
	}
	return b
}

// Start dials the transport and runs the session's single-goroutine loop
// until ctx is canceled, Shutdown is called, or the session reaches Failed.
// It returns once the loop has exited.
func (s *Session) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	defer close(s.done)

	s.run(loopCtx)
	return nil
}

// Shutdown requests an orderly stop and blocks until the run loop exits.
// Canceling the run loop's context is what actually unwinds it; the
// command is a best-effort nudge in case a serve loop is parked waiting on
// its inbox with nothing else to select on.
func (s *Session) Shutdown() {
	select {
	case s.inbox <- command{kind: cmdShutdown}:
	default:
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

// Subscribe declares req and queues it for the pacer; it is replayed
// automatically on every future reconnect until Unsubscribe is called.
func (s *Session) Subscribe(req subscription.Request) {
	if _, added := s.registry.Declare(req); added {
		s.ensureBooks(req)
		s.pacer.Submit(req)
	}
}

// ensureBooks creates empty replicas for req's symbols so data frames that
// race ahead of the snapshot have somewhere to buffer. Frames for symbols
// that were never subscribed are dropped with a warning instead.
func (s *Session) ensureBooks(req subscription.Request) {
	switch req.Channel {
	case "book":
		for _, sym := range req.Symbols {
			s.bookFor(sym)
		}
	case "level3":
		for _, sym := range req.Symbols {
			s.l3BookFor(sym)
		}
	}
}

// Unsubscribe removes req from the registry so it is no longer replayed, and
// posts an unsubscribe command to the inbox. The serve loop writes the frame;
// while offline the command waits in the inbox until the next connection, and
// it is dropped if the inbox is full.
func (s *Session) Unsubscribe(req subscription.Request) {
	key := subscription.KeyOf(req)
	s.registry.Undeclare(key)
	select {
	case s.inbox <- command{kind: cmdUnsubscribe, req: req}:
	default:
	}
}

func (s *Session) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return
		default:
		}

		s.clearSymbolState()
		s.setState(Connecting)
		if err := s.connectOnce(ctx); err != nil {
			if kind, ok := common.KindOf(err); ok && kind == common.KindInvalidCredential {
				s.fail(err)
				return
			}
			if s.reconn.Exhausted() {
				s.fail(err)
				return
			}
			s.setState(Reconnecting)
			delay := s.reconn.NextDelay()
			s.dispatcher.Emit(event.Reconnecting{Attempt: s.reconn.Attempts(), Delay: delay})
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				s.teardown()
				return
			}
		}

		s.reconn.ResetBackoff()
		// Replay the declared intent set ahead of anything else outbound;
		// the pacer is cleared first so stale queue entries from the previous
		// connection can't jump ahead of (or duplicate) the replayed set.
		s.pacer.Reset()
		restored := s.registry.Replay()
		for _, req := range restored {
			s.pacer.Submit(req)
		}
		s.dispatcher.Emit(event.SubscriptionsRestored{Count: len(restored)})

		stopped := s.serve(ctx)
		if stopped {
			s.teardown()
			return
		}
		s.setState(Reconnecting)
		delay := s.reconn.NextDelay()
		s.dispatcher.Emit(event.Reconnecting{Attempt: s.reconn.Attempts(), Delay: delay})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			s.teardown()
			return
		}
	}
}

// fail transitions the session to its terminal Failed state: auth failures
// bypass backoff entirely, and an exhausted breaker means retrying further is
// pointless. The dispatcher is closed so consumers unblock.
func (s *Session) fail(err error) {
	s.log.Error("session failed", "error", err)
	s.dispatcher.Emit(event.ReconnectFailed{Error: err.Error()})
	s.setState(Failed)
	s.dispatcher.Close()
}

// clearSymbolState resets every per-symbol replica ahead of a fresh connect
// attempt; the subscription registry survives and drives re-sync.
func (s *Session) clearSymbolState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sym := range s.books {
		ob, _ := orderbook.New(sym, s.cfg.Depth, s.cfg.Precision)
		s.books[sym] = ob
	}
	for sym := range s.books3 {
		b, _ := l3.New(sym, s.cfg.Depth, s.cfg.Precision)
		s.books3[sym] = b
	}
}

func (s *Session) connectOnce(ctx context.Context) error {
	return s.reconn.Attempt(func() error {
		dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()
		url := s.cfg.Endpoint.URL()
		if s.dialURL != "" {
			url = s.dialURL
		}
		conn, err := transport.Dial(dialCtx, url, s.cfg.Headers)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.conn = conn
		s.pendingAcks = make(map[subscription.Key]*ackWait)
		s.mu.Unlock()
		s.setState(Connected)
		connID := ""
		if id, err := uuid.NewV4(); err == nil {
			connID = id.String()
		}
		s.dispatcher.Emit(event.Connected{ConnectionID: connID})
		return nil
	})
}

// serve drives the read loop and pacer until the connection drops or ctx is
// canceled. It returns true if the caller should stop the whole session
// (shutdown requested), false if it should move to Reconnecting.
func (s *Session) serve(ctx context.Context) bool {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	connCtx, stopWriter := context.WithCancel(ctx)
	defer stopWriter()

	reads := make(chan []byte, 32)
	readErr := make(chan error, 1)
	go func() {
		for {
			// Hard backstop: the watchdog below closes the connection after
			// one silent heartbeat window, but a wedged transport must not
			// park this goroutine forever either.
			_ = conn.SetReadDeadline(time.Now().Add(2 * s.cfg.HeartbeatWindow))
			msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			reads <- msg
		}
	}()
	go s.drainPacer(connCtx, conn)

	watchdog := time.NewTimer(s.cfg.HeartbeatWindow)
	defer watchdog.Stop()

	pinger := time.NewTicker(s.cfg.HeartbeatWindow / 2)
	defer pinger.Stop()

	ackCheck := time.NewTicker(s.cfg.AckTimeout)
	defer ackCheck.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return true

		case err := <-readErr:
			s.dispatcher.Emit(event.Disconnected{Reason: event.ReasonNetworkError, Detail: err.Error()})
			return false

		case <-watchdog.C:
			s.dispatcher.Emit(event.Disconnected{Reason: event.ReasonTimeout, Detail: "heartbeat window exceeded"})
			_ = conn.Close()
			return false

		case raw := <-reads:
			watchdog.Reset(s.cfg.HeartbeatWindow)
			s.handleFrame(raw)

		case cmd := <-s.inbox:
			if s.handleCommand(cmd, conn) {
				return true
			}

		case <-pinger.C:
			_ = conn.Ping()

		case <-ackCheck.C:
			s.resendTimedOutAcks(conn)
		}
	}
}

// wireParams renders req's params for the wire. Declared params pass through
// with numeric and boolean values restored from their string form; book-style
// channels additionally get the configured depth and an explicit snapshot
// request unless the caller overrode them.
func (s *Session) wireParams(req subscription.Request) map[string]any {
	params := make(map[string]any, len(req.Params)+2)
	for k, v := range req.Params {
		if n, err := strconv.Atoi(v); err == nil {
			params[k] = n
		} else if b, err := strconv.ParseBool(v); err == nil {
			params[k] = b
		} else {
			params[k] = v
		}
	}
	if req.Channel == "book" || req.Channel == "level3" {
		if _, ok := params["depth"]; !ok {
			params["depth"] = s.cfg.Depth.Int()
		}
		if _, ok := params["snapshot"]; !ok {
			params["snapshot"] = true
		}
	}
	return params
}

// noteSent records that a subscribe request was just written, starting its
// ack-wait clock.
func (s *Session) noteSent(req subscription.Request) {
	s.mu.Lock()
	s.pendingAcks[subscription.KeyOf(req)] = &ackWait{req: req, sentAt: time.Now()}
	s.mu.Unlock()
}

// noteAcked clears key's ack-wait entry, if any.
func (s *Session) noteAcked(key subscription.Key) {
	s.mu.Lock()
	delete(s.pendingAcks, key)
	s.mu.Unlock()
}

// noteAckedByChannel clears every pending ack-wait for channel. A nack
// frame doesn't echo back the symbol list, so rejection is treated as
// covering the whole channel rather than matched to one exact request key.
func (s *Session) noteAckedByChannel(channel string) {
	s.mu.Lock()
	for key, w := range s.pendingAcks {
		if w.req.Channel == channel {
			delete(s.pendingAcks, key)
		}
	}
	s.mu.Unlock()
}

// resendTimedOutAcks re-sends any subscribe request that has waited longer
// than AckTimeout without a confirmation, once; a second timeout without an
// ack is left for the caller to notice via Status/Rejected events rather
// than retried forever.
func (s *Session) resendTimedOutAcks(conn *transport.Conn) {
	s.mu.Lock()
	var toResend []subscription.Request
	now := time.Now()
	for _, w := range s.pendingAcks {
		if w.resent || now.Sub(w.sentAt) < s.cfg.AckTimeout {
			continue
		}
		w.resent = true
		w.sentAt = now
		toResend = append(toResend, w.req)
	}
	s.mu.Unlock()

	for _, req := range toResend {
		raw, err := wire.EncodeSubscribe(wire.SubscribeRequest{
			Channel: req.Channel,
			Symbols: req.Symbols,
			Params:  s.wireParams(req),
		})
		if err != nil {
			continue
		}
		_ = conn.WriteMessage(raw)
	}
}

func (s *Session) handleCommand(cmd command, conn *transport.Conn) (shutdown bool) {
	switch cmd.kind {
	case cmdShutdown:
		_ = conn.Close()
		if cmd.done != nil {
			cmd.done <- nil
		}
		return true
	case cmdUnsubscribe:
		params := s.wireParams(cmd.req)
		delete(params, "snapshot") // only meaningful when subscribing
		raw, err := wire.EncodeUnsubscribe(wire.SubscribeRequest{
			Channel: cmd.req.Channel,
			Symbols: cmd.req.Symbols,
			Params:  params,
		})
		if err == nil {
			_ = conn.WriteMessage(raw)
		}
	}
	return false
}

// drainPacer runs for the lifetime of one connection, writing paced
// subscribe requests as the token bucket admits them. An empty queue is
// polled on a short interval since Pacer.Next doesn't block on emptiness.
func (s *Session) drainPacer(ctx context.Context, conn *transport.Conn) {
	const pollInterval = 50 * time.Millisecond
	for {
		req, ok, err := s.pacer.Next(ctx)
		if err != nil {
			return
		}
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
			continue
		}
		raw, err := wire.EncodeSubscribe(wire.SubscribeRequest{
			Channel: req.Channel,
			Symbols: req.Symbols,
			Params:  s.wireParams(req),
		})
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(raw); err != nil {
			return
		}
		s.noteSent(req)
	}
}

func (s *Session) handleFrame(raw []byte) {
	frames, err := wire.DecodeAll(raw)
	if err != nil {
		s.dispatcher.Emit(event.DecodeWarning{Reason: err.Error()})
		s.log.Warn("frame decode failed", "error", err)
		return
	}
	for _, f := range frames {
		s.dispatchFrame(f)
	}
}

func (s *Session) dispatchFrame(f wire.Frame) {
	switch v := f.(type) {
	case wire.Heartbeat:
		s.dispatcher.Emit(event.HeartbeatEvent{})

	case wire.Status:
		s.dispatcher.Emit(event.StatusEvent{System: v.System, Version: v.Version})

	case wire.SubscriptionAck:
		key := subscription.KeyOf(subscription.Request{Channel: v.Channel, Symbols: v.Symbols})
		s.registry.OnAck(key, 0)
		s.noteAcked(key)
		s.dispatcher.Emit(event.Subscribed{Channel: v.Channel, Symbols: v.Symbols})

	case wire.UnsubscribeAck:
		s.noteAckedByChannel(v.Channel)
		s.dropBooks(v.Channel, v.Symbols)
		s.dispatcher.Emit(event.Unsubscribed{Channel: v.Channel, Symbols: v.Symbols})

	case wire.SubscriptionNack:
		s.noteAckedByChannel(v.Channel)
		s.dispatcher.Emit(event.Rejected{Channel: v.Channel, Reason: v.Reason})

	case wire.ErrorFrame:
		s.dispatcher.Emit(event.DecodeWarning{Reason: v.Code + ": " + v.Message})

	case wire.Snapshot:
		ob := s.bookFor(v.Symbol)
		mismatch, err := ob.ApplySnapshot(orderbook.Snapshot{
			Symbol: v.Symbol, Bids: v.Bids, Asks: v.Asks, Checksum: v.Checksum,
		})
		s.emitBookResult(v.Symbol, ob, mismatch, err, true)

	case wire.Update:
		ob, ok := s.Orderbook(v.Symbol)
		if !ok {
			s.warnUnknownSymbol(v.Symbol)
			return
		}
		mismatch, err := ob.ApplyUpdate(orderbook.Update{
			Symbol: v.Symbol, Bids: v.Bids, Asks: v.Asks, Checksum: v.Checksum, Sequence: v.Sequence,
		})
		s.emitBookResult(v.Symbol, ob, mismatch, err, false)

	case wire.L3Snapshot:
		book := s.l3BookFor(v.Symbol)
		s.applyL3Events(book, v.Orders)

	case wire.L3Update:
		book, ok := s.L3Book(v.Symbol)
		if !ok {
			s.warnUnknownSymbol(v.Symbol)
			return
		}
		s.applyL3Events(book, v.Events)
	}
}

func (s *Session) emitBookResult(symbol string, ob *orderbook.Orderbook, mismatch *orderbook.Mismatch, err error, snapshot bool) {
	if err != nil {
		s.dispatcher.Emit(event.DecodeWarning{Reason: err.Error()})
		return
	}
	if mismatch != nil {
		s.dispatcher.Emit(event.ChecksumMismatch{
			Symbol: mismatch.Symbol, Expected: mismatch.Expected, Computed: mismatch.Computed,
		})
		// Discard the symbol's replica: a fresh one starts Uninitialized, so
		// updates racing ahead of the re-sync snapshot buffer cleanly.
		s.mu.Lock()
		if _, ok := s.books[symbol]; ok {
			fresh, _ := orderbook.New(symbol, s.cfg.Depth, s.cfg.Precision)
			s.books[symbol] = fresh
		}
		s.mu.Unlock()
		// Recovery is a fresh subscription: unsubscribe on the wire, then
		// queue a new subscribe through the pacer. The declared intent is
		// reused verbatim so its params (and registry key) carry through.
		req, ok := s.registry.Find("book", symbol)
		if !ok {
			req = subscription.Request{Channel: "book", Symbols: []string{symbol}}
		}
		select {
		case s.inbox <- command{kind: cmdUnsubscribe, req: req}:
		default:
		}
		s.registry.Undeclare(subscription.KeyOf(req))
		s.registry.Declare(req)
		s.pacer.Submit(req)
		return
	}
	snap := ob.Snapshot()
	views := levelViews(snap.Bids)
	asks := levelViews(snap.Asks)
	if snapshot {
		s.dispatcher.Emit(event.OrderbookSnapshot{Symbol: symbol, Bids: views, Asks: asks, Checksum: snap.Checksum})
	} else {
		s.dispatcher.Emit(event.OrderbookUpdate{Symbol: symbol, Bids: views, Asks: asks, Checksum: snap.Checksum, Sequence: snap.Sequence})
	}
}

// warnUnknownSymbol surfaces a data frame for a symbol no subscription ever
// created a replica for; the frame is dropped without touching any state.
func (s *Session) warnUnknownSymbol(symbol string) {
	s.log.Warn("frame for unknown symbol dropped", "symbol", symbol)
	s.dispatcher.Emit(event.DecodeWarning{Reason: "frame for unknown symbol " + symbol})
}

// dropBooks destroys the per-symbol replicas a confirmed unsubscribe covered.
func (s *Session) dropBooks(channel string, symbols []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sym := range symbols {
		switch channel {
		case "book":
			delete(s.books, sym)
		case "level3":
			delete(s.books3, sym)
		}
	}
}

func levelViews(levels []quote.Level) []event.LevelView {
	out := make([]event.LevelView, len(levels))
	for i, l := range levels {
		out[i] = event.LevelView{Price: l.Price.String(), Qty: l.Qty.String()}
	}
	return out
}

func (s *Session) applyL3Events(book *l3.Book, events []wire.L3Event) {
	for _, ev := range events {
		var err error
		switch ev.Kind {
		case wire.L3Add:
			side := orderbook.Bid
			if ev.Side == "sell" {
				side = orderbook.Ask
			}
			err = book.Add(l3.Order{OrderID: ev.OrderID, Side: side, Price: ev.Price, Qty: ev.Qty})
		case wire.L3Modify:
			err = book.Modify(ev.OrderID, ev.Qty)
		case wire.L3Delete:
			err = book.Delete(ev.OrderID)
		}
		if err != nil {
			kind, _ := common.KindOf(err)
			s.dispatcher.Emit(event.DecodeWarning{Reason: string(kind) + ": " + err.Error()})
		}
	}
}

func (s *Session) teardown() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	s.dispatcher.Emit(event.Disconnected{Reason: event.ReasonShutdown})
	s.dispatcher.Close()
}
