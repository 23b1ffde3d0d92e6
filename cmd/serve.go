package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"controlling_window/internal/handlers"
	"controlling_window/internal/hardware"
	"controlling_window/internal/logger"
	"controlling_window/internal/mqtt"
	"controlling_window/internal/repository"
	"controlling_window/internal/repository/db"
	"controlling_window/internal/server"
	"controlling_window/internal/service"
	"controlling_window/internal/tsdb"
)

const httpShutdownTimeout = 10 * time.Second

// appRuntime holds everything a command opened and must release.
type appRuntime struct {
	cfg      appConfig
	log      *logger.Logger
	services *service.Service
	mq       *mqtt.Client
	influx   *tsdb.Writer
	closers  []func() error
}

func (rt *appRuntime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Warnw("close failed", "err", err)
		}
	}
}

// openRuntime opens the database, the relays and the optional brokers, and
// restores the persisted window state.
func openRuntime(ctx context.Context, cfg appConfig) (*appRuntime, error) {
	log := logger.Get(cfg.LogLevel)
	rt := &appRuntime{cfg: cfg, log: log}

	sqlDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}
	rt.closers = append(rt.closers, sqlDB.Close)

	relay, err := hardware.NewGPIORelay(cfg.GPIO.Chip, cfg.GPIO.PowerPin, cfg.GPIO.DirectionPin, cfg.GPIO.ActiveLow)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("open relays: %w", err)
	}
	rt.closers = append(rt.closers, relay.Close)

	sensor, err := rt.openSensor()
	if err != nil {
		rt.close()
		return nil, err
	}

	var recorders []service.SampleRecorder
	if rt.mq != nil {
		recorders = append(recorders, rt.mq)
	}
	if w, err := tsdb.Connect(cfg.Influx, log); err == nil {
		rt.influx = w
		rt.closers = append(rt.closers, w.Close)
		recorders = append(recorders, w)
	} else if !errors.Is(err, tsdb.ErrDisabled) {
		log.Warnw("influxdb unavailable, samples stay local", "err", err)
	}

	rt.services = service.NewService(repository.NewRepository(sqlDB), service.Options{
		Window:     cfg.Window,
		Relay:      relay,
		Sensor:     sensor,
		Recorders:  recorders,
		SigningKey: cfg.SigningKey,
		TokenTTL:   cfg.TokenTTL,
		Log:        log,
	})
	if err := rt.services.Restore(ctx); err != nil {
		rt.close()
		return nil, fmt.Errorf("restore window state: %w", err)
	}
	return rt, nil
}

// openSensor connects MQTT when a broker is configured and picks the sensor source.
func (rt *appRuntime) openSensor() (hardware.Sensor, error) {
	if rt.cfg.MQTT.Broker != "" {
		mq, err := mqtt.Connect(rt.cfg.MQTT, rt.log)
		switch {
		case err == nil:
			rt.mq = mq
			rt.closers = append(rt.closers, mq.Close)
		case rt.cfg.SensorSource == sensorSourceMQTT:
			return nil, fmt.Errorf("connect mqtt: %w", err)
		default:
			rt.log.Warnw("mqtt unavailable, status is not published", "broker", rt.cfg.MQTT.Broker, "err", err)
		}
	}
	if rt.cfg.SensorSource == sensorSourceMQTT {
		return rt.mq.Feed(), nil
	}
	return hardware.NewIIOSensor(rt.cfg.IIODevice), nil
}

func (rt *appRuntime) publishSystem(event, reason string) {
	if rt.mq == nil {
		return
	}
	ev := mqtt.SystemEvent{Timestamp: time.Now().UTC(), Event: event, Reason: reason}
	if err := rt.mq.PublishSystem(context.Background(), ev); err != nil {
		rt.log.Warnw("publish system event failed", "event", event, "err", err)
	}
}

func serve(cfg appConfig) error {
	rt, err := openRuntime(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer rt.close()
	log := rt.log
	if cfg.SigningKey == "" {
		log.Warnw("auth.signing_key is empty, sign-in is disabled")
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	go rt.services.Scheduler.Run(workerCtx)
	go rt.services.Monitor.Run(workerCtx, cfg.MonitorInterval)

	rt.publishSystem(mqtt.SystemStartup, "")

	srv := server.New(cfg.Port, handlers.NewHandler(rt.services, log).InitRoutes())
	serverErr := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", srv.Addr())
		serverErr <- srv.Run()
	}()

	reason := waitForStop(serverErr, log)
	log.Infow("shutting down", "reason", reason)

	shutdownErr := rt.services.TriggerShutdown(context.Background())
	cancelWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	rt.publishSystem(mqtt.SystemShutdown, reason)
	return shutdownErr
}

// waitForStop blocks until a termination signal arrives or the server fails,
// and returns the reason.
func waitForStop(serverErr <-chan error, log *logger.Logger) string {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		return sig.String()
	case err := <-serverErr:
		if err != nil {
			log.Errorw("http server stopped", "err", err)
			return "server error"
		}
		return "server closed"
	}
}

func forceClose(cfg appConfig) error {
	rt, err := openRuntime(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.services.TriggerShutdown(context.Background()); err != nil {
		return err
	}
	rt.log.Infow("window closed and motor off")
	return nil
}
