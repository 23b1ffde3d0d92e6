//go:build !linux

package hardware

import "errors"

// GPIORelay is not available on non-Linux platforms.
type GPIORelay struct{}

// NewGPIORelay returns an error on non-Linux platforms.
func NewGPIORelay(chipName string, powerPin, directionPin int, activeLow bool) (*GPIORelay, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetPower is not implemented on non-Linux platforms.
func (r *GPIORelay) SetPower(on bool) error {
	return errors.New("gpio: not supported")
}

// SetDirection is not implemented on non-Linux platforms.
func (r *GPIORelay) SetDirection(d Direction) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *GPIORelay) Close() error {
	return nil
}
