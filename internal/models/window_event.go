package models

import "time"

// WindowEvent is a single log entry.
type WindowEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // OPEN_REQUESTED | CLOSE_REQUESTED | AUTO_OPEN | AUTO_CLOSE | POWER_ON | POWER_OFF | SHUTDOWN | SENSOR_ERROR | ACTUATOR_ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// Event types.
const (
	EventOpenRequested  = "OPEN_REQUESTED"
	EventCloseRequested = "CLOSE_REQUESTED"
	EventAutoOpen       = "AUTO_OPEN"
	EventAutoClose      = "AUTO_CLOSE"
	EventPowerOn        = "POWER_ON"
	EventPowerOff       = "POWER_OFF"
	EventShutdown       = "SHUTDOWN"
	EventSensorError    = "SENSOR_ERROR"
	EventActuatorError  = "ACTUATOR_ERROR"
)
