package rudp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqLess(t *testing.T) {
	assert.True(t, seqLess(1, 2))
	assert.False(t, seqLess(2, 1))
	assert.False(t, seqLess(5, 5))
}

func TestSeqLessWraparound(t *testing.T) {
	// math.MaxUint32 precedes 1 once the counter has wrapped.
	assert.True(t, seqLess(math.MaxUint32, 1))
	assert.False(t, seqLess(1, math.MaxUint32))
}

func TestSeqLessEqual(t *testing.T) {
	assert.True(t, seqLessEqual(3, 3))
	assert.True(t, seqLessEqual(3, 4))
	assert.False(t, seqLessEqual(4, 3))
}

func TestSeqGreater(t *testing.T) {
	assert.True(t, seqGreater(2, 1))
	assert.False(t, seqGreater(1, 2))
}

func TestSeqMin(t *testing.T) {
	assert.Equal(t, uint32(1), seqMin(1, 2))
	assert.Equal(t, uint32(1), seqMin(2, 1))
	assert.Equal(t, uint32(math.MaxUint32), seqMin(math.MaxUint32, 1))
}
