package rudp

import (
	"sync"
	"time"
)

// fakeTimer is one pending callback registered against a fakeClock.
type fakeTimer struct {
	at        time.Duration
	f         func()
	fired     bool
	cancelled bool
}

// fakeClock is a manually-driven Clock for deterministic tests: time only
// moves when a test calls Advance, and AfterFunc callbacks fire
// synchronously from within that call rather than on a runtime timer
// goroutine. There is no fake-clock library anywhere in the example pack,
// so this is hand-rolled rather than imported — the one stdlib-only
// exception in the test suite, justified in DESIGN.md.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) CancelFunc {
	c.mu.Lock()
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		t.cancelled = true
		c.mu.Unlock()
	}
}

// Advance moves time forward by d and fires every timer now due, looping
// until a pass fires nothing new — this drains cascades where firing one
// t=0 timer schedules another t=0 timer (e.g. the handshake's SYN leading
// straight into its own retransmit timer).
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()

	for pass := 0; pass < 64; pass++ {
		var due []*fakeTimer
		c.mu.Lock()
		for _, t := range c.timers {
			if !t.fired && !t.cancelled && t.at <= c.now {
				t.fired = true
				due = append(due, t)
			}
		}
		c.mu.Unlock()
		if len(due) == 0 {
			return
		}
		for _, t := range due {
			t.f()
		}
	}
}
