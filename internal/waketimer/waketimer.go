// Package waketimer provides the reprogrammable periodic alarm that paces
// the control loop. The real alarm wraps a time.Ticker; the fake is fired
// by tests.
package waketimer

import "time"

// Alarm is a periodic wake source. Reprogramming happens only from the
// control loop, never from event-delivery context.
type Alarm interface {
	// C delivers ticks. Implementations keep at most one tick pending,
	// so ticks that land while the loop is busy coalesce instead of
	// queueing.
	C() <-chan time.Time

	// Reprogram changes the tick interval, taking effect immediately.
	Reprogram(time.Duration)

	// Stop shuts the alarm down.
	Stop()
}

// TickerAlarm is the real alarm. A time.Ticker already carries the
// coalescing contract: its channel holds one pending tick and drops the
// rest.
type TickerAlarm struct {
	ticker *time.Ticker
}

// New creates a running alarm with the given interval.
func New(interval time.Duration) *TickerAlarm {
	return &TickerAlarm{ticker: time.NewTicker(interval)}
}

// C delivers ticks.
func (a *TickerAlarm) C() <-chan time.Time {
	return a.ticker.C
}

// Reprogram resets the tick interval.
func (a *TickerAlarm) Reprogram(interval time.Duration) {
	a.ticker.Reset(interval)
}

// Stop shuts the alarm down.
func (a *TickerAlarm) Stop() {
	a.ticker.Stop()
}
