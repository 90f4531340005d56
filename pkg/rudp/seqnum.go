package rudp

// Sequence numbers are unsigned 32-bit counters that wrap. Comparisons must
// use modular arithmetic rather than a raw < or > once a connection has been
// alive long enough to wrap past 2^32-1 (see spec.md §9, "Sequence-number
// wraparound"). These mirror the serial-number comparison from RFC 1982,
// generalized from the uint16 sequenceGreater in the cbodonnell/rudp
// reference (other_examples/e151032f_cbodonnell-rudp__reliability.go.go).

// seqLess reports whether a precedes b in modular sequence order.
func seqLess(a, b uint32) bool {
	return int32(a-b) < 0
}

// seqLessEqual reports whether a precedes or equals b in modular order.
func seqLessEqual(a, b uint32) bool {
	return a == b || seqLess(a, b)
}

// seqGreater reports whether a follows b in modular sequence order.
func seqGreater(a, b uint32) bool {
	return seqLess(b, a)
}

// seqMin returns whichever of a, b is modularly smaller.
func seqMin(a, b uint32) uint32 {
	if seqLessEqual(a, b) {
		return a
	}
	return b
}
