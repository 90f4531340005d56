// Package echo is the demo application built on top of pkg/rudp for
// cmd/rudpserver: a small multi-peer chat room. Adapted from the teacher's
// core/gamemode/freeroam.go — its players map, OnPlayerConnect /
// OnPlayerDisconnect / OnPlayerCommand shape, and SendMessageToPlayer /
// SendMessageToAll broadcast helpers — generalized from SA-MP game events
// to generic RUDP messages and stripped of every SA-MP-specific concept
// (spawn points, skins, vehicles, admin levels).
package echo

import (
	"bytes"
	"sync"
	"time"

	"github.com/ventos-labs/rudp/pkg/logger"
	"github.com/ventos-labs/rudp/pkg/rudp"
)

// Peer tracks one connected RUDP connection, the rendition of the
// teacher's Player struct trimmed to what a transport-level demo actually
// needs (no score/money/position).
type Peer struct {
	Addr     rudp.Address
	Conn     *rudp.Connection
	JoinedAt time.Time
}

// Room is a HandlerFactory whose handlers all share one peer registry, the
// generalization of FreeroamGamemode's single players map serving every
// connected session.
type Room struct {
	mu    sync.RWMutex
	peers map[rudp.Address]*Peer
}

// NewRoom constructs an empty Room.
func NewRoom() *Room {
	return &Room{peers: make(map[rudp.Address]*Peer)}
}

// NewHandler implements rudp.HandlerFactory.
func (r *Room) NewHandler(own, dest, relay rudp.Address) rudp.Handler {
	return &peerHandler{room: r, addr: dest}
}

// PeerCount mirrors the teacher's FreeroamGamemode.GetPlayerCount.
func (r *Room) PeerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// Broadcast sends message to every connected peer, the generalization of
// FreeroamGamemode.SendMessageToAll (which only ever logged, per a TODO in
// the teacher — here it's wired all the way to SendMessage).
func (r *Room) Broadcast(message []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.peers {
		if err := p.Conn.SendMessage(message); err != nil {
			logger.Warn("echo: broadcast to %s failed: %v", p.Addr, err)
		}
	}
}

func (r *Room) join(p *Peer) {
	r.mu.Lock()
	r.peers[p.Addr] = p
	r.mu.Unlock()
	logger.Info("echo: peer %s joined (%d total)", p.Addr, r.PeerCount())
}

func (r *Room) leave(addr rudp.Address) {
	r.mu.Lock()
	delete(r.peers, addr)
	r.mu.Unlock()
	logger.Info("echo: peer %s left (%d remaining)", addr, r.PeerCount())
}

var broadcastPrefix = []byte("/broadcast ")

// peerHandler is the per-connection rudp.Handler, the generalization of the
// teacher's OnPlayerConnect/OnPlayerCommand/OnPlayerDisconnect trio onto
// RUDP's ReceiveMessage/HandleShutdown contract.
type peerHandler struct {
	room *Room
	addr rudp.Address
	conn *rudp.Connection
}

// BindConnection implements rudp.ConnectionBinder.
func (h *peerHandler) BindConnection(c *rudp.Connection) {
	h.conn = c
	h.room.join(&Peer{Addr: h.addr, Conn: c, JoinedAt: time.Now()})
}

// ReceiveMessage implements rudp.Handler. A "/broadcast " prefix fans the
// remainder out to every peer (the teacher's SendMessageToAll); anything
// else is echoed back, the generalization of OnPlayerCommand's per-command
// reply for a protocol with no fixed command set.
func (h *peerHandler) ReceiveMessage(payload []byte) {
	if bytes.HasPrefix(payload, broadcastPrefix) {
		h.room.Broadcast(payload[len(broadcastPrefix):])
		return
	}

	reply := make([]byte, 0, len(payload)+6)
	reply = append(reply, "echo: "...)
	reply = append(reply, payload...)
	if err := h.conn.SendMessage(reply); err != nil {
		logger.Warn("echo: reply to %s failed: %v", h.addr, err)
	}
}

// HandleShutdown implements rudp.Handler.
func (h *peerHandler) HandleShutdown() {
	h.room.leave(h.addr)
}
