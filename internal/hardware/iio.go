package hardware

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultIIODevice is where the kernel dht11 driver exposes the DHT22 sensor.
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

const (
	iioTemperatureFile = "in_temp_input"
	iioHumidityFile    = "in_humidityrelative_input"
	iioScale           = 1000.0 // the driver reports milli-units
)

// IIOSensor reads a DHT11/DHT22 bound to the kernel dht11 IIO driver.
// The driver returns EIO on checksum failures; those surface as read errors.
type IIOSensor struct {
	dir string
	now func() time.Time
}

// NewIIOSensor returns a sensor reading from the given IIO device directory.
func NewIIOSensor(dir string) *IIOSensor {
	if dir == "" {
		dir = DefaultIIODevice
	}
	return &IIOSensor{dir: dir, now: time.Now}
}

// ReadEnvironment reads temperature then humidity.
func (s *IIOSensor) ReadEnvironment(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	temp, err := s.readMilli(iioTemperatureFile)
	if err != nil {
		return Reading{}, fmt.Errorf("read temperature: %w", err)
	}
	hum, err := s.readMilli(iioHumidityFile)
	if err != nil {
		return Reading{}, fmt.Errorf("read humidity: %w", err)
	}
	return Reading{Temperature: temp, Humidity: hum, Time: s.now()}, nil
}

func (s *IIOSensor) readMilli(name string) (float64, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v / iioScale, nil
}
