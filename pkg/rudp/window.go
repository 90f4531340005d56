package rudp

// sendWindow is the bounded, insertion-ordered map of components B/C: an
// ordered mapping from in-flight sequence number to ScheduledPacket. Keys
// are monotonically increasing, so insertion order and key order coincide
// (§9 "Send-window ordered map"), letting a slice of keys plus a map serve
// as the ordered map the spec asks for.
//
// Grounded on the teacher's Session.RecoveryQueue (map[uint32]*DataPacket)
// plus Session.SendQueue ([]*EncapsulatedPacket) in
// source/protocol/raknet.go, merged into the single ordered structure §4.C
// describes, since the teacher kept retransmission bookkeeping and the
// pending-send queue as two separate uncoordinated collections.
type sendWindow struct {
	limit   int
	order   []uint32
	entries map[uint32]*ScheduledPacket
}

func newSendWindow(limit int) *sendWindow {
	return &sendWindow{
		limit:   limit,
		entries: make(map[uint32]*ScheduledPacket),
	}
}

func (w *sendWindow) size() int {
	return len(w.order)
}

func (w *sendWindow) full() bool {
	return len(w.order) >= w.limit
}

// insert places seqnum's scheduled packet into the window. The caller must
// pass the next monotone seqnum (§4.B).
func (w *sendWindow) insert(seqnum uint32, sp *ScheduledPacket) {
	w.order = append(w.order, seqnum)
	w.entries[seqnum] = sp
}

func (w *sendWindow) get(seqnum uint32) (*ScheduledPacket, bool) {
	sp, ok := w.entries[seqnum]
	return sp, ok
}

func (w *sendWindow) oldestSeqnum() (uint32, bool) {
	if len(w.order) == 0 {
		return 0, false
	}
	return w.order[0], true
}

// retireUpTo removes every entry with seqnum < min(ack, nextSeq+1) starting
// from the oldest, cancelling each entry's retransmit timer, and reports
// whether anything was removed (§4.C).
func (w *sendWindow) retireUpTo(ack uint32, nextSeq uint32) bool {
	ceiling := seqMin(ack, nextSeq+1)
	removed := false
	for len(w.order) > 0 {
		seq := w.order[0]
		if !seqLess(seq, ceiling) {
			break
		}
		if sp, ok := w.entries[seq]; ok && sp.Cancel != nil {
			sp.Cancel()
		}
		delete(w.entries, seq)
		w.order = w.order[1:]
		removed = true
	}
	return removed
}

// retireOne removes exactly one entry (used by the handshake's SYNACK path,
// which retires a single known-oldest seqnum rather than a whole prefix).
func (w *sendWindow) retireOne(seq uint32) bool {
	sp, ok := w.entries[seq]
	if !ok {
		return false
	}
	if sp.Cancel != nil {
		sp.Cancel()
	}
	delete(w.entries, seq)
	for i, s := range w.order {
		if s == seq {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// clear cancels every timer and empties the window (§4.C, used by
// shutdown and by the bare-SYN handshake branch's "clear any in-flight
// SYN").
func (w *sendWindow) clear() {
	for _, sp := range w.entries {
		if sp.Cancel != nil {
			sp.Cancel()
		}
	}
	w.order = nil
	w.entries = make(map[uint32]*ScheduledPacket)
}
