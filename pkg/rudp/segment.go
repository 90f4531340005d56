package rudp

// segment is one (remaining, bytes) pair produced by the segmenter (§4.D).
type segment struct {
	remaining uint32
	bytes     []byte
}

// segmentMessage splits m into ceil(len(m)/maxSize) segments where remaining
// counts down from count-1 to 0. A zero-length message produces no segments
// (§4.D, §7 kind 5); Connection.SendMessage returns before reaching here for
// an empty payload.
//
// Grounded on the teacher's split-packet encode path
// (EncapsulatedPacket.Split/SplitCount/SplitIndex in
// source/protocol/raknet.go), simplified from RakNet's split-ID-plus-index
// pair down to the spec's single more_fragments countdown — this transport
// has exactly one message in flight of reassembly per connection at a time
// (no concurrent split groups to disambiguate with a split ID).
func segmentMessage(m []byte, maxSize int) []segment {
	if len(m) == 0 {
		return nil
	}
	count := (len(m) + maxSize - 1) / maxSize
	segments := make([]segment, 0, count)
	for i := 0; i < count; i++ {
		start := i * maxSize
		end := start + maxSize
		if end > len(m) {
			end = len(m)
		}
		segments = append(segments, segment{
			remaining: uint32(count - 1 - i),
			bytes:     m[start:end],
		})
	}
	return segments
}
