package models

import "time"

// WindowState is the status snapshot exposed to the API and persisted in window_state.
type WindowState struct {
	ID         int          `json:"id"`
	Phase      Phase        `json:"-"`
	Previous   Phase        `json:"-"`
	Label      string       `json:"phase"`
	LastSample SensorSample `json:"last_sample"`
	RestUntil  time.Time    `json:"rest_until"`
	HoldManual bool         `json:"hold_manual"`
	Pending    int          `json:"pending_commands"`
	Powered    bool         `json:"powered"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// SensorSample is one environment reading. Valid is false when the sensor
// could not be read and no earlier reading exists.
type SensorSample struct {
	Time        time.Time `json:"time"`
	Phase       string    `json:"phase,omitempty"`
	Temperature float64   `json:"temperature_c"`
	Humidity    float64   `json:"humidity_pct"`
	Valid       bool      `json:"valid"`
}

// SentinelReading is stored in place of temperature and humidity before the first successful read.
const SentinelReading = -1.0
