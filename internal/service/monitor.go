package service

import (
	"context"
	"time"

	"controlling_window/internal/hardware"
	"controlling_window/internal/logger"
	"controlling_window/internal/models"
	"controlling_window/internal/repository"

	"github.com/google/uuid"
)

// SampleRecorder receives one sample per monitor cycle (database, MQTT, InfluxDB).
type SampleRecorder interface {
	Record(ctx context.Context, s models.SensorSample) error
}

// observer is the part of WindowService the monitor drives.
type observer interface {
	Observe(ctx context.Context, sample models.SensorSample) bool
	Status() models.WindowState
}

const sensorReadTimeout = 10 * time.Second

// AutoOpenMonitor samples the sensor on a fixed period, records the sample
// and lets the window decide whether to auto-open.
type AutoOpenMonitor struct {
	sensor    hardware.Sensor
	window    observer
	recorders []SampleRecorder
	eventRepo repository.EventRepo
	clock     Clock
	log       *logger.Logger

	last       models.SensorSample
	lastFailed bool
}

// NewAutoOpenMonitor returns a monitor. The first failed read before any
// successful one yields the sentinel sample.
func NewAutoOpenMonitor(sensor hardware.Sensor, window observer, eventRepo repository.EventRepo,
	clock Clock, log *logger.Logger, recorders ...SampleRecorder) *AutoOpenMonitor {
	if clock == nil {
		clock = RealClock()
	}
	log = log.Component("monitor")
	return &AutoOpenMonitor{
		sensor:    sensor,
		window:    window,
		recorders: recorders,
		eventRepo: eventRepo,
		clock:     clock,
		log:       log,
		last: models.SensorSample{
			Temperature: models.SentinelReading,
			Humidity:    models.SentinelReading,
		},
	}
}

// Run cycles until ctx is canceled. The first cycle runs immediately; the
// interval is measured on the monitor's Clock from the end of each cycle.
func (m *AutoOpenMonitor) Run(ctx context.Context, interval time.Duration) {
	for {
		m.Cycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(interval):
		}
	}
}

// Cycle performs one sample-record-decide pass and returns the sample used.
func (m *AutoOpenMonitor) Cycle(ctx context.Context) models.SensorSample {
	defer func() {
		// A panicking recorder must not stop the loop.
		if r := recover(); r != nil {
			m.log.Errorw("monitor_cycle_panic", "panic", r)
		}
	}()

	now := m.clock.Now()
	sample := m.read(ctx, now)

	if m.window != nil {
		if m.window.Observe(ctx, sample) {
			m.log.Infow("monitor_triggered_auto_open", "humidity", sample.Humidity, "temperature", sample.Temperature)
		}
		sample.Phase = m.window.Status().Label
	}

	for _, rec := range m.recorders {
		if err := rec.Record(ctx, sample); err != nil {
			m.log.Warnw("monitor_record_failed", "err", err)
		}
	}
	return sample
}

// read returns a fresh sample, or the previous one re-stamped with now when the sensor fails.
func (m *AutoOpenMonitor) read(ctx context.Context, now time.Time) models.SensorSample {
	rctx, cancel := context.WithTimeout(ctx, sensorReadTimeout)
	defer cancel()

	r, err := m.sensor.ReadEnvironment(rctx)
	if err != nil {
		m.log.Warnw("sensor_read_failed", "err", err, "carry_forward", m.last.Valid)
		if !m.lastFailed && m.eventRepo != nil {
			ev := models.WindowEvent{
				EventID:     uuid.NewString(),
				OccurredAt:  now.UTC(),
				Type:        models.EventSensorError,
				Description: "Sensor read failed",
				Metadata:    map[string]any{"err": err.Error()},
			}
			if aerr := m.eventRepo.Append(ctx, ev); aerr != nil {
				m.log.Warnw("sensor_error_event_append_failed", "err", aerr)
			}
		}
		m.lastFailed = true
		s := m.last
		s.Time = now
		return s
	}

	m.lastFailed = false
	m.last = models.SensorSample{
		Time:        now,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Valid:       true,
	}
	return m.last
}
