package rudp

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvariantError marks a programmer error per spec.md §7 kind 4: a state
// that the specified event ordering should make unreachable (e.g.
// _do_send_packet firing for a seqnum absent from the send window). These
// are not wrapped with github.com/pkg/errors like operational errors —
// they panic, matching "fail fast with a diagnostic."
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("rudp: invariant violated in %s: %s", e.Op, e.Detail)
}

func panicInvariant(op, detail string) {
	panic(&InvariantError{Op: op, Detail: detail})
}

// ErrEmptyMessage names the zero-length-payload case. SendMessage does not
// return it: spec.md §7 kind 5 treats an empty message as a no-op, so
// SendMessage returns nil for one.
var ErrEmptyMessage = errors.New("rudp: refusing to send an empty message")

// ErrSendQueueFull is returned by SendMessage when the application-submission
// queue is saturated. SendMessage never blocks (§4.F), so backpressure is
// surfaced as an error instead.
var ErrSendQueueFull = errors.New("rudp: send queue full")

// ErrConnectionClosed is returned by SendMessage once shutdown() has run.
var ErrConnectionClosed = errors.New("rudp: connection closed")

// wrapf is a thin convenience around errors.Wrapf kept local so call sites
// read the same as the rest of the package.
func wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
