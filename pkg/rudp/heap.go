package rudp

import "container/heap"

// receiveHeap is the min-heap of component A: a buffer of out-of-order
// inbound packets keyed by sequence number, with the extra
// attemptPopMessage operation that pops the longest contiguous,
// fragment-complete prefix. Ordering is total on SequenceNumber (unsigned);
// duplicates are rejected at push so no tie-break is needed (spec.md §4.A).
//
// Grounded on the standard container/heap idiom rather than a hand-rolled
// binary heap: no example repo in the pack ships its own reusable heap
// library (YaoZengzeng-yustack's ilist is an intrusive list, not a heap),
// and container/heap is the idiomatic Go vehicle for exactly this shape.
type receiveHeap struct {
	items  packetHeap
	lookup map[uint32]struct{}
}

func newReceiveHeap() *receiveHeap {
	return &receiveHeap{
		items:  packetHeap{},
		lookup: make(map[uint32]struct{}),
	}
}

// push inserts packet if no entry with an equal sequence number exists;
// otherwise it is dropped as a duplicate (§4.A, §7 kind 1).
func (h *receiveHeap) push(p *Packet) bool {
	if _, dup := h.lookup[p.SequenceNumber]; dup {
		return false
	}
	h.lookup[p.SequenceNumber] = struct{}{}
	heap.Push(&h.items, p)
	return true
}

func (h *receiveHeap) len() int {
	return h.items.Len()
}

func (h *receiveHeap) peekMinSeqnum() (uint32, bool) {
	if h.items.Len() == 0 {
		return 0, false
	}
	return h.items[0].SequenceNumber, true
}

// attemptPopMessage scans from the minimum buffered sequence number,
// verifying strict consecutiveness and the more_fragments countdown. On
// success it removes exactly those entries and returns them in order; on
// failure it modifies nothing (§4.A).
func (h *receiveHeap) attemptPopMessage() ([]*Packet, bool) {
	n := h.items.Len()
	if n == 0 {
		return nil, false
	}

	// container/heap only guarantees the root is the minimum, so walk a
	// sorted snapshot of the current contents to check contiguity without
	// mutating the heap until we know the whole prefix is complete.
	snapshot := make([]*Packet, n)
	copy(snapshot, h.items)
	sortPacketsBySeq(snapshot)

	first := snapshot[0].SequenceNumber
	k := int(snapshot[0].MoreFragments)
	if k >= len(snapshot) {
		return nil, false
	}
	msg := snapshot[:k+1]
	for i, p := range msg {
		if p.SequenceNumber != first+uint32(i) {
			return nil, false
		}
		if p.MoreFragments != uint32(k-i) {
			return nil, false
		}
	}

	for _, p := range msg {
		delete(h.lookup, p.SequenceNumber)
		removePacket(&h.items, p.SequenceNumber)
	}
	return msg, true
}

func sortPacketsBySeq(ps []*Packet) {
	// insertion sort: receive windows are small (bounded by WindowSize on
	// the peer's side), so this stays cheap and avoids pulling in sort for
	// a handful of elements.
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && seqLess(ps[j].SequenceNumber, ps[j-1].SequenceNumber); j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}
}

func removePacket(h *packetHeap, seq uint32) {
	for i, p := range *h {
		if p.SequenceNumber == seq {
			heap.Remove(h, i)
			return
		}
	}
}

// packetHeap implements heap.Interface over *Packet ordered by
// SequenceNumber using wraparound-aware comparison (§9).
type packetHeap []*Packet

func (h packetHeap) Len() int { return len(h) }
func (h packetHeap) Less(i, j int) bool {
	return seqLess(h[i].SequenceNumber, h[j].SequenceNumber)
}
func (h packetHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *packetHeap) Push(x interface{}) {
	*h = append(*h, x.(*Packet))
}

func (h *packetHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
