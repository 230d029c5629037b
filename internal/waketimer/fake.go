package waketimer

import "time"

// FakeAlarm is a test double fired manually. It records every Reprogram so
// tests can assert the loop programmed the interval it derived.
type FakeAlarm struct {
	// Programmed holds the intervals passed to Reprogram, in order.
	Programmed []time.Duration

	// Stopped tracks if Stop was called.
	Stopped bool

	ch chan time.Time
}

// NewFakeAlarm creates a fake alarm with the single-tick buffer the real
// one has.
func NewFakeAlarm() *FakeAlarm {
	return &FakeAlarm{ch: make(chan time.Time, 1)}
}

// C delivers fired ticks.
func (a *FakeAlarm) C() <-chan time.Time {
	return a.ch
}

// Reprogram records the interval.
func (a *FakeAlarm) Reprogram(interval time.Duration) {
	a.Programmed = append(a.Programmed, interval)
}

// Stop marks the alarm stopped.
func (a *FakeAlarm) Stop() {
	a.Stopped = true
}

// Fire queues a tick, dropping it if one is already pending, the way a
// ticker does. Returns whether the tick was queued.
func (a *FakeAlarm) Fire(at time.Time) bool {
	select {
	case a.ch <- at:
		return true
	default:
		return false
	}
}

// LastProgrammed returns the most recent interval, or zero if none.
func (a *FakeAlarm) LastProgrammed() time.Duration {
	if len(a.Programmed) == 0 {
		return 0
	}
	return a.Programmed[len(a.Programmed)-1]
}
