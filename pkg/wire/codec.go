// Package wire implements spec.md §6's Packet codec: Packet::to_wire() /
// Packet::from_wire(). §6 specifies "a structured text representation… a
// key/value record" for the seven semantic fields of §3, matching the
// original's own _finalize_packet (txrudp/connection.py:342-358), which
// calls json.dumps on the packet's field dict — so this codec is JSON over
// the wire rather than a custom binary frame, the same choice the original
// made and the one the spec's wording names directly.
package wire

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ventos-labs/rudp/pkg/rudp"
)

// ErrShortPacket is returned by Decode when data cannot be parsed as a
// wirePacket at all (the nearest Go equivalent of the original validating
// against packet.RUDP_PACKET_JSON_SCHEMA before use).
var ErrShortPacket = errors.New("wire: malformed packet")

// wireAddress is the JSON rendition of rudp.Address.
type wireAddress struct {
	IP   string `json:"ip"`
	Port uint16 `json:"port"`
}

// wirePacket is the on-wire key/value record for a Packet (§6). Payload
// marshals to base64 automatically since encoding/json treats []byte that
// way, matching the original's JSON-safe string transport of raw message
// bytes.
type wirePacket struct {
	Seq           uint32      `json:"seq"`
	Ack           uint32      `json:"ack"`
	Syn           bool        `json:"syn"`
	Fin           bool        `json:"fin"`
	Payload       []byte      `json:"payload"`
	MoreFragments uint32      `json:"more_fragments"`
	Source        wireAddress `json:"source"`
	Destination   wireAddress `json:"destination"`
}

// Codec implements rudp.Codec (Encode) and the dispatcher-side Decode.
type Codec struct{}

// New returns the production wire codec.
func New() *Codec { return &Codec{} }

// Encode renders a Packet to its on-wire text form (Packet::to_wire()).
func (Codec) Encode(p *rudp.Packet) []byte {
	wp := wirePacket{
		Seq:           p.SequenceNumber,
		Ack:           p.Ack,
		Syn:           p.Syn,
		Fin:           p.Fin,
		Payload:       p.Payload,
		MoreFragments: p.MoreFragments,
		Source:        wireAddress{IP: p.Source.IP, Port: p.Source.Port},
		Destination:   wireAddress{IP: p.Destination.IP, Port: p.Destination.Port},
	}
	data, err := json.Marshal(wp)
	if err != nil {
		// wirePacket has no unmarshalable field (no channels/funcs/cycles),
		// so this can only happen if rudp.Packet's shape changes underneath
		// this codec.
		panic(errors.Wrap(err, "wire: marshal packet"))
	}
	return data
}

// Decode parses an inbound datagram into a Packet (Packet::from_wire()).
// Used by the external dispatcher (pkg/transport), never by the core state
// machine itself (§6).
func (Codec) Decode(data []byte) (*rudp.Packet, error) {
	var wp wirePacket
	if err := json.Unmarshal(data, &wp); err != nil {
		return nil, errors.Wrap(ErrShortPacket, err.Error())
	}
	return &rudp.Packet{
		SequenceNumber: wp.Seq,
		Ack:            wp.Ack,
		Syn:            wp.Syn,
		Fin:            wp.Fin,
		Payload:        wp.Payload,
		MoreFragments:  wp.MoreFragments,
		Source:         rudp.Address{IP: wp.Source.IP, Port: wp.Source.Port},
		Destination:    rudp.Address{IP: wp.Destination.IP, Port: wp.Destination.Port},
	}, nil
}
