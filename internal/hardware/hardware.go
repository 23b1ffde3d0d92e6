// Package hardware provides the window relay driver and the environment
// sensor with hardware abstraction.
// The real implementations use the Linux GPIO character device and the
// kernel IIO interface of the dht11 driver.
// The fake implementations allow testing without hardware.
package hardware

import (
	"context"
	"errors"
	"time"
)

// Direction selects which way the motor turns once powered.
type Direction int

const (
	DirectionOpen Direction = iota
	DirectionClose
)

func (d Direction) String() string {
	if d == DirectionClose {
		return "close"
	}
	return "open"
}

// Relay drives the two-relay motor board.
type Relay interface {
	// SetPower switches the motor supply relay.
	SetPower(on bool) error

	// SetDirection switches the polarity relay.
	SetDirection(d Direction) error

	// Close powers the motor off and releases GPIO resources.
	Close() error
}

// Reading is a single temperature/humidity measurement.
type Reading struct {
	Temperature float64 // °C
	Humidity    float64 // %
	Time        time.Time
}

// Sensor reads the current environment. Failures are expected; callers must
// treat an error as "no sample available".
type Sensor interface {
	ReadEnvironment(ctx context.Context) (Reading, error)
}

// ErrNoReading is returned when the sensor has nothing to report.
var ErrNoReading = errors.New("sensor: no reading available")

// Pin definitions (BCM numbering)
const (
	DefaultPowerPin     = 23
	DefaultDirectionPin = 24
	DefaultChip         = "gpiochip0"
)
