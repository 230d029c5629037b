//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpioPollInterval is how often the rpio backend checks the edge-detect
// registers. Bounce finer than this is invisible here and handled by the
// debounce layer anyway.
const rpioPollInterval = 5 * time.Millisecond

// RpioPort drives real hardware through the BCM283x registers via
// /dev/gpiomem. It is the fallback for hosts without a usable gpiochip
// character device. Edge detection is polled, not event-driven.
type RpioPort struct {
	buttons map[Input]rpio.Pin
	out     rpio.Pin
	edges   chan Edge
	stop    chan struct{}
	done    chan struct{}
}

// NewRpioPort maps the GPIO registers and configures the button and output
// pins. A negative spare pin leaves the spare input unwired.
func NewRpioPort(pinUp, pinDown, pinSpare, pinOut int) (*RpioPort, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio registers: %w", err)
	}

	p := &RpioPort{
		buttons: make(map[Input]rpio.Pin),
		edges:   make(chan Edge, edgeBuffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	pins := []struct {
		input Input
		pin   int
	}{
		{InputUp, pinUp},
		{InputDown, pinDown},
		{InputSpare, pinSpare},
	}
	for _, b := range pins {
		if b.pin < 0 {
			continue
		}
		pin := rpio.Pin(b.pin)
		pin.Input()
		pin.PullUp()
		pin.Detect(rpio.FallEdge)
		p.buttons[b.input] = pin
	}

	p.out = rpio.Pin(pinOut)
	p.out.Output()
	p.out.Low()

	go p.poll()
	return p, nil
}

// poll watches the edge-detect registers and forwards edges.
func (p *RpioPort) poll() {
	defer close(p.done)
	ticker := time.NewTicker(rpioPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for input, pin := range p.buttons {
				if pin.EdgeDetected() {
					select {
					case p.edges <- Edge{Input: input, When: time.Now()}:
					default:
					}
				}
			}
		}
	}
}

// Edges delivers falling-edge events from the button lines.
func (p *RpioPort) Edges() <-chan Edge {
	return p.edges
}

// Pressed samples a button pin. Active-low: rpio.Low = held.
func (p *RpioPort) Pressed(input Input) (bool, error) {
	pin, ok := p.buttons[input]
	if !ok {
		return false, fmt.Errorf("button %s not wired", input)
	}
	return pin.Read() == rpio.Low, nil
}

// SetOutput drives the pulse pin.
func (p *RpioPort) SetOutput(high bool) error {
	if high {
		p.out.High()
	} else {
		p.out.Low()
	}
	return nil
}

// Close stops the poll goroutine, parks the output low, detaches edge
// detection, and unmaps the registers.
func (p *RpioPort) Close() error {
	close(p.stop)
	<-p.done

	p.out.Low()
	for _, pin := range p.buttons {
		pin.Detect(rpio.NoEdge)
	}
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close gpio registers: %w", err)
	}
	return nil
}
