package rudp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentMessageEmpty(t *testing.T) {
	assert.Nil(t, segmentMessage(nil, 4))
	assert.Nil(t, segmentMessage([]byte{}, 4))
}

func TestSegmentMessageSingleSegment(t *testing.T) {
	segs := segmentMessage([]byte("hi"), 10)
	require.Len(t, segs, 1)
	assert.Equal(t, uint32(0), segs[0].remaining)
	assert.Equal(t, []byte("hi"), segs[0].bytes)
}

func TestSegmentMessageMultipleSegments(t *testing.T) {
	segs := segmentMessage([]byte("abcdefghij"), 3)
	require.Len(t, segs, 4) // 3,3,3,1

	var reassembled []byte
	for i, s := range segs {
		reassembled = append(reassembled, s.bytes...)
		assert.Equal(t, uint32(len(segs)-1-i), s.remaining)
	}
	assert.Equal(t, "abcdefghij", string(reassembled))
}
