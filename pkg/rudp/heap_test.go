package rudp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveHeapPushDedup(t *testing.T) {
	h := newReceiveHeap()
	assert.True(t, h.push(&Packet{SequenceNumber: 5}))
	assert.False(t, h.push(&Packet{SequenceNumber: 5}))
	assert.Equal(t, 1, h.len())
}

func TestReceiveHeapPeekMin(t *testing.T) {
	h := newReceiveHeap()
	h.push(&Packet{SequenceNumber: 7})
	h.push(&Packet{SequenceNumber: 3})
	h.push(&Packet{SequenceNumber: 9})

	min, ok := h.peekMinSeqnum()
	require.True(t, ok)
	assert.Equal(t, uint32(3), min)
}

func TestAttemptPopMessageSingleFragment(t *testing.T) {
	h := newReceiveHeap()
	h.push(&Packet{SequenceNumber: 1, MoreFragments: 0, Payload: []byte("hi")})

	msg, ok := h.attemptPopMessage()
	require.True(t, ok)
	require.Len(t, msg, 1)
	assert.Equal(t, 0, h.len())
}

func TestAttemptPopMessageMultiFragmentInOrder(t *testing.T) {
	h := newReceiveHeap()
	h.push(&Packet{SequenceNumber: 1, MoreFragments: 2, Payload: []byte("a")})
	h.push(&Packet{SequenceNumber: 2, MoreFragments: 1, Payload: []byte("b")})
	h.push(&Packet{SequenceNumber: 3, MoreFragments: 0, Payload: []byte("c")})

	msg, ok := h.attemptPopMessage()
	require.True(t, ok)
	require.Len(t, msg, 3)
	assert.Equal(t, uint32(1), msg[0].SequenceNumber)
	assert.Equal(t, uint32(3), msg[2].SequenceNumber)
	assert.Equal(t, 0, h.len())
}

func TestAttemptPopMessageGapFails(t *testing.T) {
	h := newReceiveHeap()
	h.push(&Packet{SequenceNumber: 1, MoreFragments: 1, Payload: []byte("a")})
	h.push(&Packet{SequenceNumber: 3, MoreFragments: 0, Payload: []byte("c")})

	_, ok := h.attemptPopMessage()
	assert.False(t, ok)
	// Failure must not mutate the heap.
	assert.Equal(t, 2, h.len())
}

func TestAttemptPopMessageWrongMoreFragmentsCount(t *testing.T) {
	h := newReceiveHeap()
	// Consecutive seqnums but more_fragments doesn't count down correctly,
	// meaning a further fragment is still outstanding between them.
	h.push(&Packet{SequenceNumber: 1, MoreFragments: 5, Payload: []byte("a")})
	h.push(&Packet{SequenceNumber: 2, MoreFragments: 0, Payload: []byte("b")})

	_, ok := h.attemptPopMessage()
	assert.False(t, ok)
	assert.Equal(t, 2, h.len())
}

func TestAttemptPopMessageEmptyHeap(t *testing.T) {
	h := newReceiveHeap()
	_, ok := h.attemptPopMessage()
	assert.False(t, ok)
}
