package gpio

import "time"

// FakePort is a test double: scripted button levels, recorded output
// transitions, and manual edge injection.
type FakePort struct {
	// levels holds scripted Pressed() returns per button. Each call
	// consumes the next level; when a script is exhausted the last level
	// repeats. An unscripted button reads released.
	levels map[Input][]bool
	index  map[Input]int

	// Outputs records every SetOutput call in order.
	Outputs []bool

	// PressedErr, if set, is returned by Pressed().
	PressedErr error
	// OutputErr, if set, is returned by SetOutput().
	OutputErr error

	// Closed tracks if Close was called.
	Closed bool

	edges chan Edge
}

// NewFakePort creates an empty fake port.
func NewFakePort() *FakePort {
	return &FakePort{
		levels: make(map[Input][]bool),
		index:  make(map[Input]int),
		edges:  make(chan Edge, edgeBuffer),
	}
}

// Script sets the sequence of levels Pressed will return for a button.
func (f *FakePort) Script(input Input, pressed ...bool) {
	f.levels[input] = pressed
	f.index[input] = 0
}

// InjectEdge queues a falling-edge event, dropping it if the channel is
// full, like the real backends do.
func (f *FakePort) InjectEdge(input Input, at time.Time) bool {
	select {
	case f.edges <- Edge{Input: input, When: at}:
		return true
	default:
		return false
	}
}

// Edges delivers the injected events.
func (f *FakePort) Edges() <-chan Edge {
	return f.edges
}

// Pressed returns the next scripted level for the button.
func (f *FakePort) Pressed(input Input) (bool, error) {
	if f.PressedErr != nil {
		return false, f.PressedErr
	}

	script := f.levels[input]
	if len(script) == 0 {
		return false, nil
	}

	level := script[f.index[input]]
	if f.index[input] < len(script)-1 {
		f.index[input]++
	}
	return level, nil
}

// SetOutput records the transition.
func (f *FakePort) SetOutput(high bool) error {
	if f.OutputErr != nil {
		return f.OutputErr
	}
	f.Outputs = append(f.Outputs, high)
	return nil
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the scripts and clears recorded output.
func (f *FakePort) Reset() {
	for input := range f.index {
		f.index[input] = 0
	}
	f.Outputs = nil
	f.Closed = false
}
