//go:build linux

package hardware

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIORelay drives the relay board through the Linux GPIO character device.
type GPIORelay struct {
	chip      *gpiocdev.Chip
	power     *gpiocdev.Line
	direction *gpiocdev.Line
	activeLow bool
}

// NewGPIORelay requests both relay lines as outputs, starting powered off and
// set to close.
func NewGPIORelay(chipName string, powerPin, directionPin int, activeLow bool) (*GPIORelay, error) {
	if chipName == "" {
		chipName = DefaultChip
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	power, err := chip.RequestLine(powerPin, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request power pin %d: %w", powerPin, err)
	}

	direction, err := chip.RequestLine(directionPin, opts...)
	if err != nil {
		power.Close()
		chip.Close()
		return nil, fmt.Errorf("request direction pin %d: %w", directionPin, err)
	}

	return &GPIORelay{
		chip:      chip,
		power:     power,
		direction: direction,
		activeLow: activeLow,
	}, nil
}

// SetPower switches the supply relay.
func (r *GPIORelay) SetPower(on bool) error {
	if err := r.power.SetValue(boolToValue(on)); err != nil {
		return fmt.Errorf("set power pin: %w", err)
	}
	return nil
}

// SetDirection switches the polarity relay. Logical 1 means open.
func (r *GPIORelay) SetDirection(d Direction) error {
	if err := r.direction.SetValue(boolToValue(d == DirectionOpen)); err != nil {
		return fmt.Errorf("set direction pin: %w", err)
	}
	return nil
}

// Close switches power off and returns the lines to inputs with pull-down,
// matching Raspberry Pi boot defaults so the relays stay released.
func (r *GPIORelay) Close() error {
	var errs []error

	if r.power != nil {
		if err := r.power.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("power off: %w", err))
		}
	}
	for name, line := range map[string]*gpiocdev.Line{"power": r.power, "direction": r.direction} {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}

func boolToValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
