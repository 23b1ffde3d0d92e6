package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"controlling_window/internal/hardware"
	"controlling_window/internal/logger"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// ErrStaleReading is returned when the newest reading is older than the feed's max age.
var ErrStaleReading = errors.New("sensor reading is stale")

// SensorFeed keeps the newest reading received on the sensor topic and
// serves it as a hardware.Sensor.
type SensorFeed struct {
	maxAge time.Duration
	now    func() time.Time
	log    *logger.Logger

	mu   sync.RWMutex
	last hardware.Reading
	have bool
}

// NewSensorFeed returns an empty feed. maxAge <= 0 disables the staleness check.
func NewSensorFeed(maxAge time.Duration, log *logger.Logger) *SensorFeed {
	log = log.Component("feed")
	return &SensorFeed{maxAge: maxAge, now: time.Now, log: log}
}

// Handle ingests one sensor payload.
func (f *SensorFeed) Handle(payload []byte) error {
	temp, hum, at, err := ParseReading(payload, f.now())
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.have && at.Before(f.last.Time) {
		return nil
	}
	f.last = hardware.Reading{Temperature: temp, Humidity: hum, Time: at}
	f.have = true
	return nil
}

// ReadEnvironment returns the newest reading.
func (f *SensorFeed) ReadEnvironment(ctx context.Context) (hardware.Reading, error) {
	if err := ctx.Err(); err != nil {
		return hardware.Reading{}, err
	}
	f.mu.RLock()
	r, have := f.last, f.have
	f.mu.RUnlock()
	if !have {
		return hardware.Reading{}, hardware.ErrNoReading
	}
	if age := f.now().Sub(r.Time); f.maxAge > 0 && age > f.maxAge {
		return hardware.Reading{}, fmt.Errorf("%w: age %s", ErrStaleReading, age.Round(time.Second))
	}
	return r, nil
}

// onMessage is the paho handler for the sensor topic.
func (f *SensorFeed) onMessage(_ paho.Client, msg paho.Message) {
	if err := f.Handle(msg.Payload()); err != nil {
		f.log.Warnw("mqtt_sensor_payload_rejected", "topic", msg.Topic(), "err", err)
	}
}
