//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// CdevPort is not available on non-Linux platforms.
type CdevPort struct{}

// NewCdevPort returns an error on non-Linux platforms.
func NewCdevPort(chipName string, pinUp, pinDown, pinSpare, pinOut int) (*CdevPort, error) {
	return nil, errUnsupported
}

func (p *CdevPort) Edges() <-chan Edge {
	return nil
}

func (p *CdevPort) Pressed(Input) (bool, error) {
	return false, errUnsupported
}

func (p *CdevPort) SetOutput(bool) error {
	return errUnsupported
}

func (p *CdevPort) Close() error {
	return nil
}

// RpioPort is not available on non-Linux platforms.
type RpioPort struct{}

// NewRpioPort returns an error on non-Linux platforms.
func NewRpioPort(pinUp, pinDown, pinSpare, pinOut int) (*RpioPort, error) {
	return nil, errUnsupported
}

func (p *RpioPort) Edges() <-chan Edge {
	return nil
}

func (p *RpioPort) Pressed(Input) (bool, error) {
	return false, errUnsupported
}

func (p *RpioPort) SetOutput(bool) error {
	return errUnsupported
}

func (p *RpioPort) Close() error {
	return nil
}
