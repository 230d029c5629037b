package logic

import (
	"sync/atomic"
	"time"
)

// Watchdog tracks how recently the control loop checked in. The loop
// acknowledges it; a monitor goroutine asks Expired. The acknowledgment
// timestamp is an atomic cell so the two sides never need a lock.
type Watchdog struct {
	timeout time.Duration
	lastAck atomic.Int64
}

// NewWatchdog creates a watchdog with the given timeout. It is inert until
// Start.
func NewWatchdog(timeout time.Duration) *Watchdog {
	return &Watchdog{timeout: timeout}
}

// Timeout returns the configured expiry window.
func (w *Watchdog) Timeout() time.Duration {
	return w.timeout
}

// Start arms the watchdog, counting from now.
func (w *Watchdog) Start(now time.Time) {
	w.lastAck.Store(now.UnixNano())
}

// Acknowledge marks the loop alive as of now.
func (w *Watchdog) Acknowledge(now time.Time) {
	w.lastAck.Store(now.UnixNano())
}

// Expired reports whether the last acknowledgment is older than the
// timeout. Always false before Start.
func (w *Watchdog) Expired(now time.Time) bool {
	last := w.lastAck.Load()
	if last == 0 {
		return false
	}
	return now.Sub(time.Unix(0, last)) > w.timeout
}
