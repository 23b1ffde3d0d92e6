// Package tsdb records window samples into InfluxDB v2.
package tsdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"controlling_window/internal/logger"
	"controlling_window/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	connectTimeout = 10 * time.Second
	batchSize      = 50
	flushMillis    = 10_000

	measurementSample = "window_sample"
)

var (
	ErrDisabled         = errors.New("influxdb is disabled")
	ErrConnectionFailed = errors.New("influxdb connection failed")
)

// Config selects the server and bucket.
type Config struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

// Writer batches samples into a non-blocking write API.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	log      *logger.Logger

	mu     sync.RWMutex
	closed bool
}

// Connect pings the server and opens the write API. Async write errors are logged.
func Connect(cfg Config, log *logger.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	log = log.Component("influx")

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(batchSize).
			SetFlushInterval(flushMillis))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	w := &Writer{client: client, writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket), log: log}
	go w.logWriteErrors(w.writeAPI.Errors())
	return w, nil
}

func (w *Writer) logWriteErrors(errs <-chan error) {
	for err := range errs {
		w.log.Warnw("influx_write_failed", "err", err)
	}
}

// Record queues one sample point. Invalid samples are skipped.
func (w *Writer) Record(ctx context.Context, s models.SensorSample) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil
	}
	if p := samplePoint(s); p != nil {
		w.writeAPI.WritePoint(p)
	}
	return nil
}

// samplePoint maps a sample to a point tagged by phase.
func samplePoint(s models.SensorSample) *write.Point {
	if !s.Valid {
		return nil
	}
	phase := s.Phase
	if phase == "" {
		phase = "unknown"
	}
	return write.NewPoint(
		measurementSample,
		map[string]string{"phase": phase},
		map[string]interface{}{
			"temperature_c": s.Temperature,
			"humidity_pct":  s.Humidity,
		},
		s.Time,
	)
}

// Close flushes pending points and closes the client.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.writeAPI.Flush()
	w.client.Close()
	return nil
}
