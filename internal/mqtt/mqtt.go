// Package mqtt bridges the window controller to an MQTT broker: it consumes
// environment readings from a sensor topic and publishes status samples and
// lifecycle events.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"controlling_window/internal/models"
)

// Default topics.
const (
	DefaultSensorTopic = "home/window/sensor"
	DefaultStatusTopic = "home/window/status"
	DefaultSystemTopic = "home/window/system"
)

// System lifecycle events.
const (
	SystemStartup  = "STARTUP"
	SystemShutdown = "SHUTDOWN"
	SystemOffline  = "OFFLINE"
)

var errInvalidReading = errors.New("invalid sensor payload")

// SystemEvent is a lifecycle event published on the system topic.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // STARTUP, SHUTDOWN, OFFLINE
	Reason    string // e.g. "SIGTERM" (shutdown only)
}

// StatusPayload is published once per monitor cycle.
type StatusPayload struct {
	Window WindowPayload `json:"window"`
}

type WindowPayload struct {
	Timestamp   string   `json:"timestamp"`
	Phase       string   `json:"phase"`
	Temperature *float64 `json:"temperature_c"`
	Humidity    *float64 `json:"humidity_pct"`
}

// FormatStatusPayload renders a sample. Readings are null when the sample is
// not valid.
func FormatStatusPayload(s models.SensorSample) ([]byte, error) {
	p := StatusPayload{Window: WindowPayload{
		Timestamp: s.Time.UTC().Format(time.RFC3339),
		Phase:     s.Phase,
	}}
	if s.Valid {
		temp, hum := s.Temperature, s.Humidity
		p.Window.Temperature = &temp
		p.Window.Humidity = &hum
	}
	return json.Marshal(p)
}

type systemPayload struct {
	System systemPayloadInner `json:"system"`
}

type systemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload renders a lifecycle event.
func FormatSystemPayload(ev SystemEvent) ([]byte, error) {
	return json.Marshal(systemPayload{System: systemPayloadInner{
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
		Event:     ev.Event,
		Reason:    ev.Reason,
	}})
}

// readingPayload is what sensor nodes publish on the sensor topic.
type readingPayload struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Timestamp   string   `json:"timestamp,omitempty"`
}

// ParseReading decodes a sensor payload. A missing timestamp means "now".
func ParseReading(payload []byte, now time.Time) (temperature, humidity float64, at time.Time, err error) {
	var p readingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("%w: %v", errInvalidReading, err)
	}
	if p.Temperature == nil || p.Humidity == nil {
		return 0, 0, time.Time{}, fmt.Errorf("%w: temperature and humidity are required", errInvalidReading)
	}
	if math.IsNaN(*p.Temperature) || math.IsNaN(*p.Humidity) || *p.Humidity < 0 || *p.Humidity > 100 {
		return 0, 0, time.Time{}, fmt.Errorf("%w: out of range", errInvalidReading)
	}
	at = now
	if p.Timestamp != "" {
		at, err = time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			return 0, 0, time.Time{}, fmt.Errorf("%w: timestamp: %v", errInvalidReading, err)
		}
	}
	return *p.Temperature, *p.Humidity, at, nil
}
