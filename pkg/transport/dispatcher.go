package transport

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ventos-labs/rudp/pkg/logger"
	"github.com/ventos-labs/rudp/pkg/rudp"
	"github.com/ventos-labs/rudp/pkg/wire"
)

// Decoder is the inbound half of the wire codec (§6: "Packet::from_wire()
// used by the external dispatcher").
type Decoder interface {
	Decode(data []byte) (*rudp.Packet, error)
}

// Dispatcher owns the address-keyed registry of live connections and is the
// "external dispatcher" spec.md §6 assumes sits in front of every
// Connection. One Dispatcher serves every peer talking to a single bound
// UDPSocket — the rendition of the teacher's one Server / many Players, with
// RUDP connections in place of game sessions.
type Dispatcher struct {
	socket         *UDPSocket
	decoder        Decoder
	codec          rudp.Codec
	handlerFactory rudp.HandlerFactory
	clock          rudp.Clock
	cfg            rudp.Config
	own            rudp.Address
	log            *logrus.Entry
	cleanupEvery   time.Duration

	mu    sync.RWMutex
	conns map[rudp.Address]*rudp.Connection
}

// NewDispatcher wires a UDPSocket to a HandlerFactory. clock may be nil to
// use the production system clock.
func NewDispatcher(socket *UDPSocket, handlerFactory rudp.HandlerFactory, clock rudp.Clock, cfg rudp.Config, log *logrus.Entry) *Dispatcher {
	if clock == nil {
		clock = rudp.NewSystemClock()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{
		socket:         socket,
		decoder:        wire.New(),
		codec:          wire.New(),
		handlerFactory: handlerFactory,
		clock:          clock,
		cfg:            cfg,
		own:            socket.LocalAddr(),
		log:            log,
		cleanupEvery:   5 * time.Second,
		conns:          make(map[rudp.Address]*rudp.Connection),
	}
}

// Run drives the read loop and the periodic connection-count log concurrently,
// stopping both when ctx is cancelled. Grounded on the teacher's
// Server.Start spawning updateLoop/sessionCleanupLoop goroutines alongside
// listen(), recast onto golang.org/x/sync/errgroup so either loop's error
// tears the other down instead of leaking a goroutine (the teacher's
// loose `go` calls have no such coupling).
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.listen(ctx) })
	g.Go(func() error { return d.cleanupLoop(ctx) })

	go func() {
		<-ctx.Done()
		d.socket.Close()
	}()

	return g.Wait()
}

func (d *Dispatcher) listen(ctx context.Context) error {
	scratch := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, from, err := d.socket.ReadFrom(scratch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.log.WithError(err).Warn("rudp: read from udp")
			continue
		}

		pkt, err := d.decoder.Decode(data)
		if err != nil {
			d.log.WithError(err).WithField("from", from.String()).Debug("rudp: dropping malformed datagram")
			continue
		}
		pkt.Source = from
		pkt.Destination = d.own

		d.route(from, pkt)
	}
}

func (d *Dispatcher) route(from rudp.Address, pkt *rudp.Packet) {
	d.mu.RLock()
	conn, ok := d.conns[from]
	d.mu.RUnlock()

	if !ok {
		if !pkt.Syn {
			return // no session and not a handshake attempt: drop silently
		}
		conn = d.acceptNew(from)
	}

	conn.ReceivePacket(pkt)
}

// acceptNew instantiates a fresh Connection for a previously-unseen peer
// address (§4.G make_new_connection), registers it, and arranges for its
// own EventClosed to deregister it.
func (d *Dispatcher) acceptNew(from rudp.Address) *rudp.Connection {
	conn, _ := rudp.MakeNewConnection(d.socket, d.handlerFactory, d.codec, d.clock, d.own, from, from, d.cfg)

	// Addresses get reused across reconnects, so every connection gets its
	// own correlation id to tie its log lines together end to end.
	corrID := logger.NewCorrelationID()
	connLog := d.log.WithField("peer", from.String()).WithField("conn_id", corrID)

	conn.Subscribe(func(evt rudp.LifecycleEvent, _ int) {
		switch evt {
		case rudp.EventEstablished:
			connLog.Debug("rudp: handshake established")
		case rudp.EventClosed:
			d.mu.Lock()
			delete(d.conns, from)
			d.mu.Unlock()
			connLog.Debug("rudp: connection closed")
		}
	})

	d.mu.Lock()
	d.conns[from] = conn
	d.mu.Unlock()

	connLog.Info("rudp: new connection")
	return conn
}

// cleanupLoop logs the number of registered connections on every tick — it
// mirrors the teacher's sessionCleanupLoop ticker in
// source/server/server.go, repurposed from time-based session eviction
// (RUDP connections evict themselves via the EventClosed deregistration
// above). It removes nothing from the registry itself.
func (d *Dispatcher) cleanupLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.cleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.mu.RLock()
			n := len(d.conns)
			d.mu.RUnlock()
			d.log.WithField("active_connections", n).Debug("rudp: connection sweep")
		}
	}
}

// Connections returns a snapshot of the currently registered peer
// addresses, useful for a broadcast-style handler (internal/echo).
func (d *Dispatcher) Connections() []rudp.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]rudp.Address, 0, len(d.conns))
	for addr := range d.conns {
		out = append(out, addr)
	}
	return out
}
