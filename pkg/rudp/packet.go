package rudp

import "time"

// Packet is the wire entity described in spec.md §3. Only the semantic
// fields the core touches are modeled here; the on-wire byte layout is
// pkg/wire's concern.
type Packet struct {
	SequenceNumber uint32
	Ack            uint32
	Syn            bool
	Fin            bool
	Payload        []byte
	MoreFragments  uint32
	Source         Address
	Destination    Address
}

// IsOrdered reports whether the packet carries a sequence number subject to
// ordering (§3: "0 means out-of-order control packet, unordered").
func (p *Packet) IsOrdered() bool {
	return p.SequenceNumber != 0
}

// HasAck reports whether the packet carries a meaningful cumulative ack.
func (p *Packet) HasAck() bool {
	return p.Ack != 0
}

// ScheduledPacket is one in-flight outbound packet together with its
// retransmit bookkeeping (spec.md §3/§4.B). It is owned exclusively by its
// send-window entry.
type ScheduledPacket struct {
	Serialized []byte
	Timeout    time.Duration
	Cancel     CancelFunc
	Retries    int
}
