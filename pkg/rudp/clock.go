package rudp

import "time"

// CancelFunc cancels a previously scheduled one-shot callback. It is safe to
// call more than once; a cancel after the callback already fired is a no-op.
type CancelFunc func()

// Clock is the timer driver abstraction of spec.md §4.E/§9: "the external
// collaborator that schedules and cancels one-shot and periodic callbacks."
// The core state machine depends only on this interface so it never reaches
// into time.AfterFunc directly, matching the spec's framing of the event
// loop's timer facility as a host-runtime collaborator rather than part of
// the core.
//
// Grounded on the teacher's ticker-driven loops (source/server/server.go's
// updateLoop/sessionCleanupLoop) and the done-channel shutdown shape of
// other_examples/e151032f_cbodonnell-rudp__reliability.go.go.
type Clock interface {
	// AfterFunc schedules f to run once after d elapses and returns a
	// CancelFunc that prevents it from running if called beforehand.
	AfterFunc(d time.Duration, f func()) CancelFunc
}

// systemClock is the production Clock, backed by the Go runtime timer wheel.
type systemClock struct{}

// NewSystemClock returns the Clock used outside of tests.
func NewSystemClock() Clock { return systemClock{} }

func (systemClock) AfterFunc(d time.Duration, f func()) CancelFunc {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// oneShot is a single scheduled callback with a pending/fired flag, used for
// the initial SYN (§4.F: "schedule a one-shot _send_syn at t=0") and as the
// handle inside loopTimer. Send-window retransmit timers do not use it; each
// ScheduledPacket holds the plain CancelFunc from Clock.AfterFunc.
type oneShot struct {
	cancel  CancelFunc
	pending bool
}

func newOneShot(clock Clock, d time.Duration, f func()) *oneShot {
	o := &oneShot{pending: true}
	o.cancel = clock.AfterFunc(d, func() {
		o.pending = false
		f()
	})
	return o
}

func (o *oneShot) Stop() {
	if o == nil {
		return
	}
	o.pending = false
	o.cancel()
}

func (o *oneShot) Pending() bool {
	return o != nil && o.pending
}

// loopTimer is a periodic driver per §9's "Periodic timers" design note: a
// record {running, handle} with idempotent Start(period)/Stop(). It fires
// once per Start call rather than using time.Ticker, because the period can
// change between ticks (the looping-ack driver alternates between
// BARE_ACK_TIMEOUT and KEEP_ALIVE_TIMEOUT, per §4.F) and because a
// period-0 driver needs to decide, after each fire, whether to rearm itself
// at all (§4.F's "attempt to enable/disable"). Rearming is the caller's
// job: each fire callback in connection.go calls Start again if the driver
// should keep running.
type loopTimer struct {
	clock   Clock
	running bool
	handle  *oneShot
	fire    func()
}

func newLoopTimer(clock Clock, fire func()) *loopTimer {
	return &loopTimer{clock: clock, fire: fire}
}

// Start arms the driver to fire once after the given period; it does not
// reschedule itself after that fire. Starting an already-armed driver
// cancels the pending fire and arms a new one, so the driver is rearmed,
// never double-armed.
func (l *loopTimer) Start(period time.Duration) {
	if l.handle != nil {
		l.handle.Stop()
	}
	l.running = true
	l.handle = newOneShot(l.clock, period, func() {
		if !l.running {
			return
		}
		l.fire()
	})
}

// Stop disables the driver. Idempotent: stopping an already-stopped driver
// is a no-op, per §5 "every periodic driver is idempotent against redundant
// stop() via a running guard."
func (l *loopTimer) Stop() {
	if !l.running {
		return
	}
	l.running = false
	if l.handle != nil {
		l.handle.Stop()
		l.handle = nil
	}
}

func (l *loopTimer) Running() bool {
	return l.running
}
