// Package logic contains the pure pacing core: tempo state, interval
// derivation, button debouncing, and watchdog bookkeeping. This package has
// NO external dependencies (no GPIO, MQTT, OS, or time.Sleep). Time is
// always injectable via time.Time parameters.
package logic

import "time"

// Tempo bounds. Deltas outside the range clamp silently.
const (
	BPMMin     = 40
	BPMMax     = 155
	BPMStep    = 5
	BPMDefault = 100
)

// Timing constants for the control loop.
const (
	// PulseWidth is how long the output pin is held high per beat.
	PulseWidth = 50 * time.Millisecond
	// SettleTime is the debounce confirmation window after an edge.
	SettleTime = 50 * time.Millisecond
	// ReleasePoll is the cadence for sampling the pin while waiting for release.
	ReleasePoll = 10 * time.Millisecond
	// RejectWindow is the fast-path debounce window (window policy only).
	RejectWindow = 200 * time.Millisecond
	// CoarseWake is the wake-timer cadence when the beat period is a
	// second or longer. The wake source cannot be programmed arbitrarily
	// slow, so long periods accumulate across fixed ticks instead.
	CoarseWake = time.Second
)

// Button identifies a physical input.
type Button string

const (
	ButtonUp    Button = "UP"
	ButtonDown  Button = "DOWN"
	ButtonSpare Button = "SPARE"
)

// Mode reports how the wake timer is being driven.
type Mode string

const (
	// ModeFast: the timer fires once per beat.
	ModeFast Mode = "FAST"
	// ModeCoarse: the timer fires every CoarseWake and beats are
	// accumulated from elapsed time.
	ModeCoarse Mode = "COARSE"
)

// EventType represents a tempo event to be published.
type EventType string

const (
	EventTempoUp   EventType = "TEMPO_UP"
	EventTempoDown EventType = "TEMPO_DOWN"
	EventBeat      EventType = "BEAT"
)

// Event represents a tempo change or beat to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	BPM       int
	Period    time.Duration
}

// Phase is the debounce state of a single button.
type Phase string

const (
	// PhaseIdle: no press in flight.
	PhaseIdle Phase = "IDLE"
	// PhaseSettling: edge seen, waiting out the settle window before
	// sampling the pin.
	PhaseSettling Phase = "SETTLING"
	// PhaseWaitRelease: press confirmed, polling until the pin releases.
	PhaseWaitRelease Phase = "WAIT_RELEASE"
	// PhaseReleaseSettle: pin released, waiting out the second settle
	// window before accepting new edges.
	PhaseReleaseSettle Phase = "RELEASE_SETTLE"
)

// PressCounts tracks button activity since startup.
type PressCounts struct {
	Up       int
	Down     int
	Spare    int
	Rejected int
}
