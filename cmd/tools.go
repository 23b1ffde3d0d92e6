package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"controlling_window/internal/hardware"
	"controlling_window/internal/logger"
	"controlling_window/internal/mqtt"
)

const (
	readSensorTimeout = 10 * time.Second
	feedPollInterval  = 200 * time.Millisecond
)

// readSensor prints one reading from the configured source without touching the relays.
func readSensor(ctx context.Context, cfg appConfig, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, readSensorTimeout)
	defer cancel()

	var (
		r   hardware.Reading
		err error
	)
	if cfg.SensorSource == sensorSourceMQTT {
		r, err = readFromBroker(ctx, cfg.MQTT, logger.Get(cfg.LogLevel))
	} else {
		r, err = hardware.NewIIOSensor(cfg.IIODevice).ReadEnvironment(ctx)
	}
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s temperature=%.1fC humidity=%.1f%%\n",
		r.Time.UTC().Format(time.RFC3339), r.Temperature, r.Humidity)
	return err
}

// readFromBroker waits for the first message on the sensor topic.
func readFromBroker(ctx context.Context, cfg mqtt.Config, log *logger.Logger) (hardware.Reading, error) {
	mq, err := mqtt.Connect(cfg, log)
	if err != nil {
		return hardware.Reading{}, err
	}
	defer mq.Close()

	ticker := time.NewTicker(feedPollInterval)
	defer ticker.Stop()
	for {
		r, err := mq.Feed().ReadEnvironment(ctx)
		if !errors.Is(err, hardware.ErrNoReading) {
			return r, err
		}
		select {
		case <-ctx.Done():
			return hardware.Reading{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
