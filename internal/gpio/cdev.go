//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// CdevPort drives real hardware through the Linux GPIO character device.
// Button lines are requested with pull-ups and falling-edge events; the
// event handler runs on the library's goroutine and forwards into the edge
// channel without blocking.
type CdevPort struct {
	chip    *gpiocdev.Chip
	buttons map[Input]*gpiocdev.Line
	out     *gpiocdev.Line
	edges   chan Edge
}

// NewCdevPort opens the named chip and requests the button and output
// lines. A negative spare pin leaves the spare input unwired.
func NewCdevPort(chipName string, pinUp, pinDown, pinSpare, pinOut int) (*CdevPort, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	p := &CdevPort{
		chip:    chip,
		buttons: make(map[Input]*gpiocdev.Line),
		edges:   make(chan Edge, edgeBuffer),
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
		input := b.input
		line, err := chip.RequestLine(b.pin,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				p.push(input)
			}))
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", input, b.pin, err)
		}
		p.buttons[input] = line
	}

	out, err := chip.RequestLine(pinOut, gpiocdev.AsOutput(0))
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("request output pin %d: %w", pinOut, err)
	}
	p.out = out

	return p, nil
}

// push forwards an edge without blocking the event goroutine. A full
// channel means the loop is behind; the extra edges are bounce as far as
// the debouncer is concerned, so dropping them is safe.
func (p *CdevPort) push(input Input) {
	select {
	case p.edges <- Edge{Input: input, When: time.Now()}:
	default:
	}
}

// Edges delivers falling-edge events from the button lines.
func (p *CdevPort) Edges() <-chan Edge {
	return p.edges
}

// Pressed samples a button line. Lines are active-low: raw 0 = held.
func (p *CdevPort) Pressed(input Input) (bool, error) {
	line, ok := p.buttons[input]
	if !ok {
		return false, fmt.Errorf("button %s not wired", input)
	}
	raw, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read %s pin: %w", input, err)
	}
	return raw == 0, nil
}

// SetOutput drives the pulse pin.
func (p *CdevPort) SetOutput(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := p.out.SetValue(v); err != nil {
		return fmt.Errorf("set output: %w", err)
	}
	return nil
}

// Close parks the output low, reconfigures the button lines back to plain
// inputs, and releases everything. Button pull state is left as wired
// externally so a restart sees the same idle levels.
func (p *CdevPort) Close() error {
	var errs []error

	if p.out != nil {
		if err := p.out.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("park output: %w", err))
		}
		if err := p.out.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output: %w", err))
		}
	}
	for input, line := range p.buttons {
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", input, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", input, err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
