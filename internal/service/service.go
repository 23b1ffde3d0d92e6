package service

import (
	"context"
	"time"

	"controlling_window/internal/hardware"
	"controlling_window/internal/logger"
	"controlling_window/internal/models"
	"controlling_window/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Window exposes the window commands. Requests only replace the command
// queue; the scheduler worker drives the relay.
type Window interface {
	Restore(ctx context.Context) error
	RequestOpen(ctx context.Context, d time.Duration) error
	RequestClose(ctx context.Context, minRest time.Duration) error
	TriggerShutdown(ctx context.Context) error
}

// Monitoring exposes read-only state (phase, last sample, rest deadline).
type Monitoring interface {
	GetState(ctx context.Context) (models.WindowState, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.WindowEvent, error)
}

// SampleLog exposes the recorded sensor samples.
type SampleLog interface {
	List(ctx context.Context, f SampleFilter) ([]models.SensorSample, error)
}

// Monitor runs the periodic sensor loop.
// Stop via context cancellation in main() for graceful shutdown.
type Monitor interface {
	Run(ctx context.Context, interval time.Duration)
}

// Worker runs the scheduler loop that executes queued commands.
type Worker interface {
	Run(ctx context.Context)
}

// Options carries the hardware and settings NewService cannot build itself.
type Options struct {
	Window     WindowConfig
	Clock      Clock
	Relay      hardware.Relay
	Sensor     hardware.Sensor
	Recorders  []SampleRecorder // in addition to the database sample log
	SigningKey string
	TokenTTL   time.Duration
	Log        *logger.Logger
}

type Service struct {
	Window
	Monitoring
	EventLog
	SampleLog
	Monitor
	Scheduler Worker
	Authorization
}

// NewService wires the repository layer and hardware into concrete services.
func NewService(repos *repository.Repository, opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	sched := NewScheduler(clock, nil)
	window := NewWindowService(opts.Window, clock, opts.Relay, sched, repos.StateRepo, repos.EventRepo, opts.Log)
	samples := NewSampleLogService(repos.SampleRepo)

	recorders := append([]SampleRecorder{samples}, opts.Recorders...)
	monitor := NewAutoOpenMonitor(opts.Sensor, window, repos.EventRepo, clock, opts.Log, recorders...)

	return &Service{
		Window:        window,
		Monitoring:    NewMonitoringService(window),
		EventLog:      NewEventLogService(repos.EventRepo),
		SampleLog:     samples,
		Monitor:       monitor,
		Scheduler:     sched,
		Authorization: NewAuthService(repos.Auth, opts.SigningKey, opts.TokenTTL),
	}
}
