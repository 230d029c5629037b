package logic

import "time"

// Debouncer runs the settle-confirm state machine for one button. The loop
// owns it: edges arriving from the hardware are reported with Trigger, and
// the loop then alternates Waiting/Advance until the machine returns to
// idle. A press is confirmed exactly once, at the settle sample; everything
// shorter than the settle window is discarded as bounce.
type Debouncer struct {
	settle time.Duration
	poll   time.Duration
	phase  Phase
	since  time.Time
}

// NewDebouncer creates a debouncer with the given settle window and release
// poll cadence.
func NewDebouncer(settle, poll time.Duration) *Debouncer {
	return &Debouncer{settle: settle, poll: poll, phase: PhaseIdle}
}

// Phase returns the current debounce phase.
func (d *Debouncer) Phase() Phase {
	return d.phase
}

// Active reports whether a press is in flight.
func (d *Debouncer) Active() bool {
	return d.phase != PhaseIdle
}

// Trigger records a falling edge. Only an idle machine starts a new press;
// edges during an in-flight press are bounce and coalesce into it. Returns
// whether the edge started a new press.
func (d *Debouncer) Trigger(now time.Time) bool {
	if d.phase != PhaseIdle {
		return false
	}
	d.phase = PhaseSettling
	d.since = now
	return true
}

// Waiting returns how long the loop should wait before the next Advance:
// the remainder of a settle window, or one poll interval while waiting for
// release. Zero when idle.
func (d *Debouncer) Waiting(now time.Time) time.Duration {
	switch d.phase {
	case PhaseSettling, PhaseReleaseSettle:
		left := d.settle - now.Sub(d.since)
		if left < 0 {
			return 0
		}
		return left
	case PhaseWaitRelease:
		return d.poll
	}
	return 0
}

// Advance feeds the machine one pin sample (pressed = asserted). Returns
// true exactly when the sample confirms a press: held through the settle
// window. A settle sample that reads released rejects the press as noise.
func (d *Debouncer) Advance(now time.Time, pressed bool) bool {
	switch d.phase {
	case PhaseSettling:
		if now.Sub(d.since) < d.settle {
			return false
		}
		if pressed {
			d.phase = PhaseWaitRelease
			return true
		}
		d.phase = PhaseIdle
	case PhaseWaitRelease:
		if !pressed {
			d.phase = PhaseReleaseSettle
			d.since = now
		}
	case PhaseReleaseSettle:
		if pressed {
			// Bounce on release, keep waiting.
			d.phase = PhaseWaitRelease
			return false
		}
		if now.Sub(d.since) >= d.settle {
			d.phase = PhaseIdle
		}
	}
	return false
}

// WindowDebouncer is the fast-path policy: accept an edge only when the
// previous accepted edge on the same button is more than the window old.
// No settle sample, no release wait. Cheaper, but a fast double press
// outside the window produces two deltas.
type WindowDebouncer struct {
	window time.Duration
	last   time.Time
	primed bool
}

// NewWindowDebouncer creates a window debouncer with the given reject
// window.
func NewWindowDebouncer(window time.Duration) *WindowDebouncer {
	return &WindowDebouncer{window: window}
}

// Trigger reports whether the edge at now should be accepted.
func (w *WindowDebouncer) Trigger(now time.Time) bool {
	if w.primed && now.Sub(w.last) <= w.window {
		return false
	}
	w.last = now
	w.primed = true
	return true
}
