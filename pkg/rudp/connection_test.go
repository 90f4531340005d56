package rudp

import (
	"bytes"
	"encoding/gob"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gobCodec is a test-only Codec. The real wire format lives in pkg/wire and
// is exercised by its own tests; here we only need a lossless round trip so
// these tests stay focused on state-machine behavior.
type gobCodec struct{}

func (gobCodec) Encode(p *Packet) []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(p)
	return buf.Bytes()
}

func decodeGobPacket(data []byte) *Packet {
	var p Packet
	_ = gob.NewDecoder(bytes.NewReader(data)).Decode(&p)
	return &p
}

// loopbackProto hands every outbound datagram straight to the peer
// connection's ReceivePacket, modeling an always-delivering network.
type loopbackProto struct {
	peer func() *Connection
}

func (lp *loopbackProto) SendDatagram(data []byte, _ Address) error {
	lp.peer().ReceivePacket(decodeGobPacket(data))
	return nil
}

type recordingHandler struct {
	mu        sync.Mutex
	messages  [][]byte
	shutdowns int
	conn      *Connection
}

func (h *recordingHandler) BindConnection(c *Connection) {
	h.mu.Lock()
	h.conn = c
	h.mu.Unlock()
}

func (h *recordingHandler) ReceiveMessage(payload []byte) {
	h.mu.Lock()
	h.messages = append(h.messages, append([]byte(nil), payload...))
	h.mu.Unlock()
}

func (h *recordingHandler) HandleShutdown() {
	h.mu.Lock()
	h.shutdowns++
	h.mu.Unlock()
}

func (h *recordingHandler) Messages() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]byte(nil), h.messages...)
}

func (h *recordingHandler) Shutdowns() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shutdowns
}

// pump advances the fake clock and gives the actor goroutines a little
// wall-clock room to drain their channels in response. The state machine
// itself is deterministic; only the test's synchronization with its two
// background goroutines needs real time.
func pump(clock *fakeClock) {
	for i := 0; i < 10; i++ {
		clock.Advance(0)
		time.Sleep(10 * time.Millisecond)
	}
}

func newLoopbackPair(t *testing.T, clock *fakeClock, cfg Config) (*Connection, *recordingHandler, *Connection, *recordingHandler) {
	t.Helper()

	addrA := Address{IP: "10.0.0.1", Port: 1111}
	addrB := Address{IP: "10.0.0.2", Port: 2222}

	var connA, connB *Connection
	protoA := &loopbackProto{peer: func() *Connection { return connB }}
	protoB := &loopbackProto{peer: func() *Connection { return connA }}

	handlerA := &recordingHandler{}
	handlerB := &recordingHandler{}

	connA = NewConnection(protoA, handlerA, gobCodec{}, clock, addrA, addrB, Address{}, cfg)
	connB = NewConnection(protoB, handlerB, gobCodec{}, clock, addrB, addrA, Address{}, cfg)

	return connA, handlerA, connB, handlerB
}

func TestHandshakeEstablishesAndDeliversMessage(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultConfig()
	connA, handlerA, connB, handlerB := newLoopbackPair(t, clock, cfg)

	var established int
	connB.Subscribe(func(evt LifecycleEvent, _ int) {
		if evt == EventEstablished {
			established++
		}
	})

	pump(clock) // drives the handshake to completion on both sides

	require.NoError(t, connA.SendMessage([]byte("hello")))
	pump(clock)

	require.Len(t, handlerB.Messages(), 1)
	assert.Equal(t, "hello", string(handlerB.Messages()[0]))

	require.NoError(t, connB.SendMessage([]byte("world")))
	pump(clock)

	require.Len(t, handlerA.Messages(), 1)
	assert.Equal(t, "world", string(handlerA.Messages()[0]))

	assert.GreaterOrEqual(t, established, 1)
}

func TestSendMessageEmptyIsNoop(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultConfig()
	connA, _, connB, handlerB := newLoopbackPair(t, clock, cfg)
	_ = connA

	pump(clock)
	require.NoError(t, connA.SendMessage(nil))
	pump(clock)

	assert.Empty(t, handlerB.Messages())
}

func TestShutdownInvokesHandlerExactlyOnce(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultConfig()
	connA, handlerA, _, _ := newLoopbackPair(t, clock, cfg)

	pump(clock)

	connA.Shutdown()
	connA.Shutdown()
	pump(clock)

	assert.Equal(t, 1, handlerA.Shutdowns())
}

func TestPeerShutdownPropagatesFin(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultConfig()
	connA, handlerA, connB, handlerB := newLoopbackPair(t, clock, cfg)

	pump(clock)

	connA.Shutdown()
	pump(clock)

	assert.Equal(t, 1, handlerA.Shutdowns())
	assert.Equal(t, 1, handlerB.Shutdowns())
}

func TestMaxRetransmissionsShutsConnectionDown(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultConfig()
	cfg.MaxRetransmissions = 2

	addrA := Address{IP: "10.0.0.1", Port: 1111}
	addrB := Address{IP: "10.0.0.2", Port: 2222}

	handlerA := &recordingHandler{}
	connA := NewConnection(blackholeSendDatagram{}, handlerA, gobCodec{}, clock, addrA, addrB, Address{}, cfg)
	_ = connA

	pump(clock)
	// Each PacketTimeout tick is one more retry; after MaxRetransmissions
	// retries with nothing ever acking, the connection gives up.
	for i := 0; i < cfg.MaxRetransmissions+2; i++ {
		clock.Advance(cfg.PacketTimeout)
		time.Sleep(5 * time.Millisecond)
	}

	assert.Equal(t, 1, handlerA.Shutdowns())
}

// blackholeSendDatagram never delivers anything — used to exercise the
// retransmission-exhaustion shutdown path without a responding peer.
type blackholeSendDatagram struct{}

func (blackholeSendDatagram) SendDatagram(data []byte, addr Address) error {
	return nil
}
