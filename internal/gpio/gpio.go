// Package gpio is the hardware seam for the metronome: button edges in,
// pulse pin out. The cdev backend uses the Linux GPIO character device, the
// rpio backend uses the BCM283x memory-mapped registers, and the fake
// backend scripts levels for testing without hardware.
package gpio

import "time"

// Input identifies a button line.
type Input string

const (
	InputUp    Input = "UP"
	InputDown  Input = "DOWN"
	InputSpare Input = "SPARE"
)

// Edge is a falling-edge event on a button line. Button lines are
// active-low with pull-ups, so a falling edge is the start of a press.
type Edge struct {
	Input Input
	When  time.Time
}

// Port is the hardware interface the control loop drives.
type Port interface {
	// Edges delivers falling-edge events. The channel is small and
	// lossy: edges that arrive faster than the loop drains them are
	// dropped, which the debounce layer absorbs.
	Edges() <-chan Edge

	// Pressed samples a button line. True while the contact is held;
	// the active-low inversion happens in the backend.
	Pressed(Input) (bool, error)

	// SetOutput drives the pulse pin.
	SetOutput(high bool) error

	// Close releases GPIO resources.
	Close() error
}

// Pin defaults (BCM numbering).
const (
	PinUp    = 23
	PinDown  = 24
	PinSpare = 25
	PinOut   = 18
)

// edgeBuffer is the capacity of the edge channel on all backends.
const edgeBuffer = 8
