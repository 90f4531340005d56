package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventos-labs/rudp/pkg/rudp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := New()
	p := &rudp.Packet{
		SequenceNumber: 42,
		Ack:            7,
		Syn:            true,
		Fin:            false,
		MoreFragments:  3,
		Payload:        []byte("hello rudp"),
	}

	data := c.Encode(p)
	decoded, err := c.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, p.SequenceNumber, decoded.SequenceNumber)
	assert.Equal(t, p.Ack, decoded.Ack)
	assert.True(t, decoded.Syn)
	assert.False(t, decoded.Fin)
	assert.Equal(t, p.MoreFragments, decoded.MoreFragments)
	assert.Equal(t, p.Payload, decoded.Payload)
}

func TestEncodeDecodeEmptyPayload(t *testing.T) {
	c := New()
	p := &rudp.Packet{SequenceNumber: 1, Fin: true}

	decoded, err := c.Decode(c.Encode(p))
	require.NoError(t, err)
	assert.Empty(t, decoded.Payload)
	assert.True(t, decoded.Fin)
}

func TestDecodeShortPacket(t *testing.T) {
	c := New()
	_, err := c.Decode([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrShortPacket)
}
