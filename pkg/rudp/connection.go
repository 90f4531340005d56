package rudp

import (
	"math/rand"
	"time"
)

// Proto is the datagram socket collaborator of spec.md §6: "best-effort,
// non-blocking, single-datagram UDP send." The core never touches a real
// socket — pkg/transport supplies the concrete implementation.
type Proto interface {
	SendDatagram(data []byte, addr Address) error
}

// Handler is the upstream application collaborator of spec.md §6.
type Handler interface {
	ReceiveMessage(payload []byte)
	HandleShutdown()
}

// ConnectionBinder lets a Handler receive a non-owning back-reference to its
// Connection after construction (§9 "cyclic reference connection↔handler").
// Handlers that only consume messages need not implement it.
type ConnectionBinder interface {
	BindConnection(c *Connection)
}

// Codec is the packet wire codec of spec.md §6 ("Packet::to_wire() ->
// bytes"). Connection only ever encodes outbound packets; decoding inbound
// bytes is the external dispatcher's job (pkg/transport), per spec.
type Codec interface {
	Encode(p *Packet) []byte
}

// Config holds the fixed, wire-affecting knobs of spec.md §6.
type Config struct {
	SegmentSize        int
	WindowSize         int
	PacketTimeout      time.Duration
	BareAckTimeout     time.Duration
	KeepAliveTimeout   time.Duration
	MaxRetransmissions int
}

// Defaults grounded on the teacher's own constants
// (pkg/raknet/protocol.go's ACK_SEND_INTERVAL=50ms, KEEPALIVE_INTERVAL=5s,
// MAX_RETRIES=5) and DEFAULT_MTU_SIZE=576, widened slightly for
// PacketTimeout since a fixed 50ms bare-ack cadence is too aggressive for a
// full round-trip retransmit timeout.
const (
	DefaultSegmentSize        = 512
	DefaultWindowSize         = 32
	DefaultPacketTimeout      = 300 * time.Millisecond
	DefaultBareAckTimeout     = 100 * time.Millisecond
	DefaultKeepAliveTimeout   = 5 * time.Second
	DefaultMaxRetransmissions = 5
)

// DefaultConfig returns the knob values used when a caller doesn't override
// them.
func DefaultConfig() Config {
	return Config{
		SegmentSize:        DefaultSegmentSize,
		WindowSize:         DefaultWindowSize,
		PacketTimeout:      DefaultPacketTimeout,
		BareAckTimeout:     DefaultBareAckTimeout,
		KeepAliveTimeout:   DefaultKeepAliveTimeout,
		MaxRetransmissions: DefaultMaxRetransmissions,
	}
}

// Connection is the per-connection state machine of spec.md §4.F: the
// virtual channel between own_addr and dest_addr (possibly relayed through
// relay_addr), providing handshake, segmentation/reassembly,
// retransmission, duplicate suppression, ordered delivery, cumulative acks,
// keep-alive and graceful teardown.
//
// All mutable state below is owned exclusively by the run() goroutine,
// which processes inbox/outbox/internalEvents one at a time — the Go
// rendition of spec.md §5's "single-threaded cooperative, driven by an
// external event loop." Every other goroutine (socket readers, application
// callers, Go's own runtime timers) only ever hands work to Connection by
// posting onto one of those channels; none of them touch connection state
// directly, so no mutex is needed anywhere below this comment.
type Connection struct {
	proto   Proto
	handler Handler
	codec   Codec
	clock   Clock
	cfg     Config

	ownAddr   Address
	destAddr  Address
	relayAddr Address

	onSendError func(error)
	events      eventBus

	inbox          chan *Packet
	outbox         chan []byte
	internalEvents chan func()
	closeSignal    chan struct{}

	// actor-owned state (spec.md §3 "Connection state")
	connected      bool
	nextSeq        uint32 // single counter: SYN uses it as-is (the ISN), data sends pre-increment
	nextExpected   uint32
	synHandle      *oneShot
	segmentQueue   []segment
	sendWin        *sendWindow
	recvHeap       *receiveHeap
	loopSend       *loopTimer
	loopAck        *loopTimer
	loopRecv       *loopTimer
	shutdownDone   bool
}

// NewConnection constructs a Connection and starts its handshake per
// spec.md §3 "Lifecycle": connected=false, with a pending one-shot SYN
// scheduled at t=0 so any already-pending inbound SYN can be processed
// within the same turn (§4.F "Handshake").
func NewConnection(proto Proto, handler Handler, codec Codec, clock Clock, own, dest, relay Address, cfg Config) *Connection {
	if relay.IsZero() {
		relay = dest
	}
	c := &Connection{
		proto:          proto,
		handler:        handler,
		codec:          codec,
		clock:          clock,
		cfg:            cfg,
		ownAddr:        own,
		destAddr:       dest,
		relayAddr:      relay,
		inbox:          make(chan *Packet, 256),
		outbox:         make(chan []byte, 256),
		internalEvents: make(chan func(), 256),
		closeSignal:    make(chan struct{}),
		sendWin:        newSendWindow(cfg.WindowSize),
		recvHeap:       newReceiveHeap(),
		// Uniformly random in [1, 2^16-1) per §4.F "Initial sequence
		// number", avoiding 0 (the out-of-order sentinel, §3). The SYN
		// uses this value as-is; every later data send pre-increments it
		// first, so the two stay in the same monotone sequence space
		// (§8 "Monotone sequence numbers").
		nextSeq: uint32(1 + rand.Intn((1<<16)-2)),
	}
	c.loopSend = newLoopTimer(clock, func() { c.post(c.loopSendTick) })
	c.loopAck = newLoopTimer(clock, func() { c.post(c.loopAckTick) })
	c.loopRecv = newLoopTimer(clock, func() { c.post(c.loopRecvTick) })

	go c.run()
	c.synHandle = newOneShot(clock, 0, func() { c.post(c.sendSyn) })
	return c
}

// OwnAddr, DestAddr and RelayAddr form the read-only address surface §6
// exposes to the handler.
func (c *Connection) OwnAddr() Address   { return c.ownAddr }
func (c *Connection) DestAddr() Address  { return c.destAddr }
func (c *Connection) RelayAddr() Address { return c.relayAddr }

// OnSendError registers a callback invoked whenever proto.SendDatagram
// fails. Optional; errors are swallowed if unset, matching spec.md §7's
// "no error is surfaced to the handler except via handle_shutdown()" — a
// transport failure here is not a protocol error, just worth logging.
func (c *Connection) OnSendError(f func(error)) { c.onSendError = f }

// Subscribe registers a lifecycle observer. Call before any packet can
// reach the connection (i.e. immediately after construction) — observers
// are only ever invoked from the run() goroutine, so subscribing
// concurrently with delivery is a data race on the observer slice.
func (c *Connection) Subscribe(o LifecycleObserver) { c.events.subscribe(o) }

// post hands a closure to the run() goroutine for serialized execution.
// Every timer callback and every public method funnels through here (or
// through inbox/outbox directly) so connection state is only ever touched
// from one goroutine.
func (c *Connection) post(f func()) {
	select {
	case c.internalEvents <- f:
	case <-c.closeSignal:
	}
}

// SendMessage splits payload into segments and enqueues them for sending,
// preserving submission order across calls (§4.F "send_message"). It never
// blocks: a full internal queue or an already-closed connection both
// return an error instead of waiting.
func (c *Connection) SendMessage(payload []byte) error {
	if len(payload) == 0 {
		return nil // §7 kind 5: empty message is a no-op, not an error.
	}
	select {
	case <-c.closeSignal:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.outbox <- payload:
		return nil
	case <-c.closeSignal:
		return ErrConnectionClosed
	default:
		return ErrSendQueueFull
	}
}

// ReceivePacket is invoked exactly once per validated inbound datagram by
// the external dispatcher (§4.F "receive_packet").
func (c *Connection) ReceivePacket(p *Packet) {
	select {
	case c.inbox <- p:
	case <-c.closeSignal:
	}
}

// Shutdown tears the connection down per §4.F "shutdown()". Idempotent:
// calls after the first are a no-op.
func (c *Connection) Shutdown() {
	c.post(c.doShutdown)
}

func (c *Connection) run() {
	for {
		select {
		case <-c.closeSignal:
			return
		case p := <-c.inbox:
			c.handleReceivePacket(p)
		case m := <-c.outbox:
			c.handleSendMessage(m)
		case f := <-c.internalEvents:
			f()
		}
	}
}

// --- Handshake (§4.F "Handshake") -----------------------------------------

func (c *Connection) sendSyn() {
	// The SYN(ACK) always carries the connection's initial sequence number
	// as-is — never pre-incremented — so a resend (the bare-SYN branch of
	// handleSyn calling this again for a SYNACK) reuses the same seqnum
	// until it's acked (§4.F "Until successfully acknowledged, all SYN(ACK)
	// packets should have the same sequence number").
	pkt := &Packet{
		SequenceNumber: c.nextSeq,
		Ack:            c.nextExpected,
		Syn:            true,
		Source:         c.ownAddr,
		Destination:    c.destAddr,
	}
	c.scheduleInOrder(c.nextSeq, pkt)
}

func (c *Connection) handleSyn(p *Packet) {
	if p.Ack > 0 {
		if c.sendWin.size() == 0 {
			return // §7 kind 1: malicious SYNACK bootstrap, drop silently.
		}
		oldest, _ := c.sendWin.oldestSeqnum()
		if p.Ack != oldest+1 {
			return // drop silently
		}
		c.sendWin.retireOne(oldest)
		c.becomeConnected()
		c.maybeEnableLoopingSend()
		return
	}

	// Bare SYN from the peer.
	c.nextExpected = p.SequenceNumber + 1
	c.sendWin.clear() // cancels any prior SYN's retransmit timer before we resend
	if !c.synHandle.Pending() {
		c.sendSyn() // the initial one-shot already fired: this is a SYNACK.
	}
	// If the initial one-shot is still pending, it fires later (possibly
	// after becomeConnected below) and calls sendSyn itself — still a
	// single window entry at the unchanged ISN, not a second/stale one,
	// since sendSyn never advances nextSeq and the window was just cleared.
	c.becomeConnected()
}

func (c *Connection) becomeConnected() {
	c.connected = true
	// Arm the ack loop at the fast interval rather than the keep-alive one:
	// the peer may have an in-flight SYNACK send-window entry that only a
	// subsequent ack from us retires (§4.F's handshake doesn't itself
	// piggyback a reply), and BARE_ACK_TIMEOUT comfortably beats
	// PACKET_TIMEOUT * MAX_RETRANSMISSIONS so that entry never exhausts its
	// retries waiting on us.
	c.resetAckTimer(c.cfg.BareAckTimeout)
	c.events.publish(EventEstablished, 0)
}

// --- Casual packet processing (§4.F "Casual packet processing") ----------

func (c *Connection) handleCasual(p *Packet) {
	if p.Ack > 0 && c.sendWin.size() > 0 {
		if c.sendWin.retireUpTo(p.Ack, c.nextSeq) {
			c.maybeEnableLoopingSend()
		}
	}
	// A seqnum below nextExpected was already received (buffered or
	// delivered), so a retransmitted copy is dropped here.
	if p.SequenceNumber > 0 && !seqLess(p.SequenceNumber, c.nextExpected) {
		if c.recvHeap.push(p) && p.SequenceNumber == c.nextExpected {
			c.nextExpected++
			c.resetAckTimer(c.cfg.BareAckTimeout)
			c.maybeEnableLoopingReceive()
		}
	}
}

func (c *Connection) handleReceivePacket(p *Packet) {
	if c.shutdownDone && !p.Fin {
		return // §3 invariant: once closed, only FIN processing is valid.
	}
	switch {
	case p.Fin:
		if c.connected || !c.synHandle.Pending() {
			c.doShutdown()
		}
	case p.Syn && !c.connected:
		c.handleSyn(p)
	case !p.Syn && !p.Fin && c.connected:
		c.handleCasual(p)
	}
}

// --- Looping drivers (§4.F "Looping drivers") -----------------------------

func (c *Connection) maybeEnableLoopingSend() {
	if c.connected && !c.sendWin.full() && len(c.segmentQueue) > 0 && !c.loopSend.Running() {
		c.loopSend.Start(0)
	}
}

func (c *Connection) loopSendTick() {
	if !c.connected || c.sendWin.full() || len(c.segmentQueue) == 0 {
		c.loopSend.Stop()
		return
	}
	seg := c.segmentQueue[0]
	c.segmentQueue = c.segmentQueue[1:]
	// Pre-increment: the SYN already claimed nextSeq's initial value as-is,
	// so every data packet must advance past it first (§8 "Monotone
	// sequence numbers").
	c.nextSeq++
	seq := c.nextSeq
	pkt := &Packet{
		SequenceNumber: seq,
		Ack:            c.nextExpected,
		MoreFragments:  seg.remaining,
		Payload:        seg.bytes,
		Source:         c.ownAddr,
		Destination:    c.destAddr,
	}
	c.scheduleInOrder(seq, pkt)
	if c.sendWin.full() || len(c.segmentQueue) == 0 {
		c.loopSend.Stop()
	} else {
		c.loopSend.Start(0)
	}
}

func (c *Connection) resetAckTimer(d time.Duration) {
	if !c.connected {
		return // §3 invariant: looping_ack may run only while connected.
	}
	c.loopAck.Start(d)
}

func (c *Connection) loopAckTick() {
	pkt := &Packet{
		Ack:         c.nextExpected,
		Source:      c.ownAddr,
		Destination: c.destAddr,
	}
	c.sendOutOfOrder(pkt)
	c.loopAck.Start(c.cfg.KeepAliveTimeout)
}

func (c *Connection) maybeEnableLoopingReceive() {
	if !c.loopRecv.Running() {
		c.loopRecv.Start(0)
	}
}

func (c *Connection) loopRecvTick() {
	msg, ok := c.recvHeap.attemptPopMessage()
	if !ok {
		c.loopRecv.Stop()
		return
	}
	last := msg[len(msg)-1].SequenceNumber
	if seqGreater(last+1, c.nextExpected) {
		c.nextExpected = last + 1
	}
	c.resetAckTimer(c.cfg.BareAckTimeout)

	total := 0
	for _, p := range msg {
		total += len(p.Payload)
	}
	payload := make([]byte, 0, total)
	for _, p := range msg {
		payload = append(payload, p.Payload...)
	}

	c.events.publish(EventMessageDelivered, len(payload))
	c.handler.ReceiveMessage(payload)
	c.loopRecv.Start(0)
}

// --- Retransmission (§4.F "Retransmission") -------------------------------

func (c *Connection) scheduleInOrder(seq uint32, pkt *Packet) {
	sp := &ScheduledPacket{
		Serialized: c.codec.Encode(pkt),
		Timeout:    c.cfg.PacketTimeout,
	}
	sp.Cancel = c.clock.AfterFunc(0, func() { c.post(func() { c.doSendPacket(seq) }) })
	c.sendWin.insert(seq, sp)
}

func (c *Connection) doSendPacket(seq uint32) {
	sp, ok := c.sendWin.get(seq)
	if !ok {
		panicInvariant("_do_send_packet", "seqnum absent from send window")
	}
	if sp.Retries >= c.cfg.MaxRetransmissions {
		c.doShutdown()
		return
	}
	if err := c.proto.SendDatagram(sp.Serialized, c.relayAddr); err != nil && c.onSendError != nil {
		c.onSendError(wrapf(err, "rudp: send datagram (seq %d)", seq))
	}
	sp.Retries++
	sp.Cancel = c.clock.AfterFunc(sp.Timeout, func() { c.post(func() { c.doSendPacket(seq) }) })
	c.resetAckTimer(c.cfg.KeepAliveTimeout)
}

func (c *Connection) sendOutOfOrder(pkt *Packet) {
	data := c.codec.Encode(pkt)
	if err := c.proto.SendDatagram(data, c.relayAddr); err != nil && c.onSendError != nil {
		c.onSendError(wrapf(err, "rudp: send out-of-order datagram"))
	}
}

// --- Sending application messages -----------------------------------------

func (c *Connection) handleSendMessage(payload []byte) {
	for _, s := range segmentMessage(payload, c.cfg.SegmentSize) {
		c.segmentQueue = append(c.segmentQueue, s)
	}
	c.maybeEnableLoopingSend()
}

// --- Shutdown (§4.F "shutdown()") -----------------------------------------

func (c *Connection) doShutdown() {
	if c.shutdownDone {
		return
	}
	c.sendOutOfOrder(&Packet{Fin: true, Source: c.ownAddr, Destination: c.destAddr})
	c.loopSend.Stop()
	c.loopAck.Stop()
	c.loopRecv.Stop()
	c.sendWin.clear()
	c.connected = false
	c.shutdownDone = true
	c.events.publish(EventClosed, 0)
	c.handler.HandleShutdown()
	close(c.closeSignal)
}
