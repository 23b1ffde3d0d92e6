package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"controlling_window/internal/models"
)

func TestFormatStatusPayload(t *testing.T) {
	s := models.SensorSample{
		Time:        time.Date(2026, 2, 2, 22, 18, 12, 0, time.FixedZone("X", 3600)),
		Phase:       "stopped (opening)",
		Temperature: 22.5,
		Humidity:    63,
		Valid:       true,
	}

	payload, err := FormatStatusPayload(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed StatusPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Window.Timestamp != "2026-02-02T21:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Window.Timestamp)
	}
	if parsed.Window.Phase != "stopped (opening)" {
		t.Errorf("unexpected phase: %s", parsed.Window.Phase)
	}
	if parsed.Window.Temperature == nil || *parsed.Window.Temperature != 22.5 {
		t.Errorf("unexpected temperature: %v", parsed.Window.Temperature)
	}
	if parsed.Window.Humidity == nil || *parsed.Window.Humidity != 63 {
		t.Errorf("unexpected humidity: %v", parsed.Window.Humidity)
	}
}

func TestFormatStatusPayloadInvalidSampleHasNullReadings(t *testing.T) {
	s := models.SensorSample{
		Time:        time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		Phase:       "unknown",
		Temperature: models.SentinelReading,
		Humidity:    models.SentinelReading,
	}
	payload, err := FormatStatusPayload(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"window":{"timestamp":"2026-02-02T00:00:00Z","phase":"unknown","temperature_c":null,"humidity_pct":null}}`
	if string(payload) != want {
		t.Errorf("payload mismatch\n got: %s\nwant: %s", payload, want)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	ev := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		Event:     SystemShutdown,
		Reason:    "SIGTERM",
	}
	payload, err := FormatSystemPayload(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"system":{"timestamp":"2026-02-03T10:00:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != want {
		t.Errorf("payload mismatch\n got: %s\nwant: %s", payload, want)
	}

	ev.Event, ev.Reason = SystemStartup, ""
	payload, _ = FormatSystemPayload(ev)
	want = `{"system":{"timestamp":"2026-02-03T10:00:00Z","event":"STARTUP"}}`
	if string(payload) != want {
		t.Errorf("startup payload mismatch\n got: %s\nwant: %s", payload, want)
	}
}

func TestParseReading(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload string
		wantT   float64
		wantH   float64
		wantAt  time.Time
		wantErr bool
	}{
		{"defaults timestamp to now", `{"temperature":21.5,"humidity":64}`, 21.5, 64, now, false},
		{"explicit timestamp", `{"temperature":19,"humidity":40,"timestamp":"2026-03-01T11:59:00Z"}`, 19, 40, now.Add(-time.Minute), false},
		{"missing humidity", `{"temperature":19}`, 0, 0, time.Time{}, true},
		{"humidity out of range", `{"temperature":19,"humidity":140}`, 0, 0, time.Time{}, true},
		{"bad timestamp", `{"temperature":19,"humidity":40,"timestamp":"yesterday"}`, 0, 0, time.Time{}, true},
		{"not json", `hello`, 0, 0, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			temp, hum, at, err := ParseReading([]byte(tt.payload), now)
			if tt.wantErr {
				if !errors.Is(err, errInvalidReading) {
					t.Fatalf("expected errInvalidReading, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if temp != tt.wantT || hum != tt.wantH {
				t.Errorf("got %v/%v, want %v/%v", temp, hum, tt.wantT, tt.wantH)
			}
			if !at.Equal(tt.wantAt) {
				t.Errorf("got time %v, want %v", at, tt.wantAt)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Broker: "tcp://localhost:1883"}.withDefaults()
	if cfg.ClientID != "window-controller" {
		t.Errorf("unexpected client id: %s", cfg.ClientID)
	}
	if cfg.SensorTopic != DefaultSensorTopic || cfg.StatusTopic != DefaultStatusTopic || cfg.SystemTopic != DefaultSystemTopic {
		t.Errorf("unexpected topics: %+v", cfg)
	}

	cfg = Config{StatusTopic: "custom/status"}.withDefaults()
	if cfg.StatusTopic != "custom/status" {
		t.Errorf("explicit topic overwritten: %s", cfg.StatusTopic)
	}
}

func TestConnectRequiresBroker(t *testing.T) {
	if _, err := Connect(Config{}, nil); err == nil {
		t.Fatal("expected error for empty broker")
	}
}
