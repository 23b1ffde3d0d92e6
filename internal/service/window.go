package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"controlling_window/internal/hardware"
	"controlling_window/internal/logger"
	"controlling_window/internal/models"
	"controlling_window/internal/repository"

	"github.com/google/uuid"
)

// HoldIndefinitely passed to RequestClose keeps auto-open suppressed until the next command.
const HoldIndefinitely time.Duration = -1

// OpenIndefinitely passed to RequestOpen keeps the window open while the
// auto-open condition holds.
const OpenIndefinitely time.Duration = -1

const (
	shutdownGrace = 2 * time.Second
	persistWait   = 5 * time.Second
)

var (
	// ErrShutdown is returned by requests made after the shutdown sequence started.
	ErrShutdown = errors.New("window controller is shut down")
	// ErrPowerOffUnconfirmed is returned when shutdown could not confirm the motor is off.
	ErrPowerOffUnconfirmed = errors.New("motor power-off not confirmed")
)

// WindowConfig holds the actuator timing and auto-open thresholds.
type WindowConfig struct {
	MaxRuntime     time.Duration // longest the motor may stay powered
	AutoOpenLength time.Duration // re-check period while auto-opened
	AutoOpenRest   time.Duration // cooldown after an auto-open
	MaxHumidity    float64       // auto-open above this humidity (%)
	MinTemperature float64       // ... and above this temperature (°C)
	QuietStart     int           // hour [0,23]; auto-open is suppressed from QuietStart
	QuietEnd       int           // until QuietEnd. Equal hours disable quiet hours.
}

// WindowService is the window state machine. It owns the phase, the rest
// deadline and the last sample, and is the only writer of relay outputs.
// Every output write goes through the scheduler, even immediate ones.
type WindowService struct {
	cfg       WindowConfig
	clock     Clock
	relay     hardware.Relay
	sched     *Scheduler
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	log       *logger.Logger

	mu        sync.Mutex
	phase     models.Phase
	previous  models.Phase
	sample    models.SensorSample
	restUntil time.Time
	hold      bool
	powered   bool
}

// NewWindowService wires the state machine to its scheduler; fired commands
// come back through onCommandFired.
func NewWindowService(cfg WindowConfig, clock Clock, relay hardware.Relay, sched *Scheduler,
	stateRepo repository.StateRepo, eventRepo repository.EventRepo, log *logger.Logger) *WindowService {
	if clock == nil {
		clock = RealClock()
	}
	log = log.Component("window")
	w := &WindowService{
		cfg:       cfg,
		clock:     clock,
		relay:     relay,
		sched:     sched,
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		log:       log,
		sample: models.SensorSample{
			Temperature: models.SentinelReading,
			Humidity:    models.SentinelReading,
		},
	}
	sched.SetFire(w.onCommandFired)
	return w
}

// Restore reloads the rest deadline and last sample persisted by a previous
// run. The phase always starts Unknown: the physical position is not known at boot.
func (w *WindowService) Restore(ctx context.Context) error {
	if w.stateRepo == nil {
		return nil
	}
	st, err := w.stateRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore window state: %w", err)
	}
	if st.ID == 0 {
		return nil
	}
	w.mu.Lock()
	w.restUntil = st.RestUntil
	w.hold = st.HoldManual
	if st.LastSample.Valid {
		w.sample = st.LastSample
	}
	w.mu.Unlock()
	return nil
}

// RequestOpen opens the window now. With d >= 0 it closes again after d;
// with OpenIndefinitely it stays open while the auto-open condition holds,
// re-checked every AutoOpenLength. Pending commands are replaced.
func (w *WindowService) RequestOpen(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	if w.phase == models.PhaseShutdown {
		w.mu.Unlock()
		return ErrShutdown
	}
	w.hold = false
	w.openLocked(d)
	ev := w.event(models.EventOpenRequested, "Open requested", map[string]any{"duration_sec": int(d.Seconds())})
	w.mu.Unlock()

	w.log.Infow("window_open_requested", "duration", d)
	w.flush(ctx, ev)
	return nil
}

// RequestClose closes the window now and suppresses auto-open for minRest,
// or until the next command with HoldIndefinitely.
func (w *WindowService) RequestClose(ctx context.Context, minRest time.Duration) error {
	w.mu.Lock()
	if w.phase == models.PhaseShutdown {
		w.mu.Unlock()
		return ErrShutdown
	}
	now := w.clock.Now()
	w.closeLocked()
	if minRest < 0 {
		w.hold = true
		w.restUntil = now
	} else {
		w.hold = false
		w.restUntil = now.Add(minRest)
	}
	ev := w.event(models.EventCloseRequested, "Close requested", map[string]any{
		"rest_until": w.restUntil.UTC(),
		"manual":     w.hold,
	})
	w.mu.Unlock()

	w.log.Infow("window_close_requested", "rest", minRest, "manual", minRest < 0)
	w.flush(ctx, ev)
	return nil
}

// Observe records a monitor sample and, when the queue is idle, the rest
// period has passed and the auto-open condition holds, opens indefinitely.
// It reports whether an auto-open was triggered.
func (w *WindowService) Observe(ctx context.Context, sample models.SensorSample) bool {
	w.mu.Lock()
	w.sample = sample
	now := w.clock.Now()
	if w.phase == models.PhaseShutdown || w.hold || !w.sched.Empty() ||
		!now.After(w.restUntil) || !w.shouldBeOpenLocked(now) {
		w.mu.Unlock()
		w.persist(ctx)
		return false
	}
	w.openLocked(OpenIndefinitely)
	w.restUntil = now.Add(w.cfg.AutoOpenRest)
	ev := w.event(models.EventAutoOpen, "Auto-open triggered", map[string]any{
		"temperature_c": sample.Temperature,
		"humidity_pct":  sample.Humidity,
		"rest_until":    w.restUntil.UTC(),
	})
	w.mu.Unlock()

	w.log.Infow("window_auto_open", "temperature", sample.Temperature, "humidity", sample.Humidity)
	w.flush(ctx, ev)
	return true
}

// TriggerShutdown forces the window closed and the motor off, running the
// close sequence on the calling goroutine. It returns once power-off has been
// written or MaxRuntime has elapsed. Only the first call does anything.
func (w *WindowService) TriggerShutdown(ctx context.Context) error {
	w.mu.Lock()
	if w.phase == models.PhaseShutdown {
		w.mu.Unlock()
		return nil
	}
	closed := w.phase == models.PhaseStopped && w.previous == models.PhaseClosing && !w.powered
	w.phase = models.PhaseShutdown
	if closed {
		w.sched.CancelAll()
	} else {
		w.sched.Replace(
			Step{Delay: 0, Action: ActionClose},
			Step{Delay: w.cfg.MaxRuntime, Action: ActionStop},
		)
	}
	ev := w.event(models.EventShutdown, "Shutdown sequence started", map[string]any{"already_closed": closed})
	w.mu.Unlock()

	w.log.Infow("window_shutdown_started", "already_closed", closed)
	w.flush(ctx, ev)

	// From here on this goroutine is the only one firing commands.
	w.sched.Halt()

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.MaxRuntime+shutdownGrace)
	defer cancel()
	drainErr := w.sched.Drain(dctx)

	w.mu.Lock()
	powered := w.powered
	w.mu.Unlock()

	if drainErr != nil || powered {
		err := fmt.Errorf("%w: powered=%v: %v", ErrPowerOffUnconfirmed, powered, drainErr)
		w.log.Criticalw("window_shutdown_power_off_unconfirmed", "err", err)
		return err
	}
	w.log.Infow("window_shutdown_complete")
	w.persist(ctx)
	return nil
}

// Status returns the current state snapshot.
func (w *WindowService) Status() models.WindowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// onCommandFired executes a due command. Commands from a replaced queue
// generation are dropped; the check is made under the state lock, which is
// also held by every queue replacement.
func (w *WindowService) onCommandFired(generation uint64, action Action) {
	w.mu.Lock()
	if !w.sched.Current(generation) {
		w.mu.Unlock()
		w.log.Debugw("window_command_superseded", "action", action.String())
		return
	}

	var events []models.WindowEvent
	switch action {
	case ActionOpen, ActionClose:
		if w.phase != models.PhaseShutdown {
			w.phase = models.PhaseOpening
			if action == ActionClose {
				w.phase = models.PhaseClosing
			}
		}
		events = w.powerOnLocked(action.Direction())
	case ActionStop:
		if w.phase.Moving() {
			w.previous = w.phase
			w.phase = models.PhaseStopped
		}
		events = w.powerOffLocked()
	case ActionCheckAuto:
		now := w.clock.Now()
		if w.phase != models.PhaseShutdown && w.shouldBeOpenLocked(now) {
			w.sched.Enter(w.cfg.AutoOpenLength, ActionCheckAuto)
			w.mu.Unlock()
			w.log.Debugw("window_auto_open_extended", "for", w.cfg.AutoOpenLength)
			return
		}
		w.closeLocked()
		if now.After(w.restUntil) {
			w.restUntil = now
		}
		events = append(events, w.event(models.EventAutoClose, "Auto-open condition cleared", map[string]any{
			"temperature_c": w.sample.Temperature,
			"humidity_pct":  w.sample.Humidity,
		}))
	}
	w.mu.Unlock()

	w.flush(context.Background(), events...)
}

func (w *WindowService) powerOnLocked(dir hardware.Direction) []models.WindowEvent {
	if err := w.relay.SetDirection(dir); err != nil {
		// Never power with an unknown direction. The stop entered with this start still runs.
		w.log.Errorw("actuator_write_failed", "output", "direction", "direction", dir.String(), "err", err)
		return []models.WindowEvent{w.event(models.EventActuatorError, "Direction write failed", map[string]any{"err": err.Error()})}
	}
	if err := w.relay.SetPower(true); err != nil {
		w.log.Errorw("actuator_write_failed", "output", "power", "on", true, "err", err)
		return []models.WindowEvent{w.event(models.EventActuatorError, "Power-on write failed", map[string]any{"err": err.Error()})}
	}
	w.powered = true
	w.log.Infow("window_motor_on", "direction", dir.String(), "phase", w.phase.String())
	return []models.WindowEvent{w.event(models.EventPowerOn, "Motor on", map[string]any{"direction": dir.String()})}
}

func (w *WindowService) powerOffLocked() []models.WindowEvent {
	if err := w.relay.SetPower(false); err != nil {
		w.log.Errorw("actuator_write_failed", "output", "power", "on", false, "err", err)
		return []models.WindowEvent{w.event(models.EventActuatorError, "Power-off write failed", map[string]any{"err": err.Error()})}
	}
	w.powered = false
	w.log.Infow("window_motor_off", "phase", w.phase.Label(w.previous))
	return []models.WindowEvent{w.event(models.EventPowerOff, "Motor off", nil)}
}

// openLocked replaces the queue with an open sequence. Every power-on is
// entered together with its stop MaxRuntime later.
func (w *WindowService) openLocked(d time.Duration) {
	steps := []Step{
		{Delay: 0, Action: ActionOpen},
		{Delay: w.cfg.MaxRuntime, Action: ActionStop},
	}
	if d >= 0 {
		steps = append(steps,
			Step{Delay: d, Action: ActionClose},
			Step{Delay: d + w.cfg.MaxRuntime, Action: ActionStop},
		)
	} else {
		steps = append(steps, Step{Delay: w.cfg.AutoOpenLength, Action: ActionCheckAuto})
	}
	w.sched.Replace(steps...)
}

func (w *WindowService) closeLocked() {
	w.sched.Replace(
		Step{Delay: 0, Action: ActionClose},
		Step{Delay: w.cfg.MaxRuntime, Action: ActionStop},
	)
}

// shouldBeOpenLocked is the auto-open predicate.
func (w *WindowService) shouldBeOpenLocked(now time.Time) bool {
	s := w.sample
	if !s.Valid {
		return false
	}
	if w.inQuietHours(now) {
		return false
	}
	return s.Humidity > w.cfg.MaxHumidity && s.Temperature > w.cfg.MinTemperature
}

func (w *WindowService) inQuietHours(now time.Time) bool {
	start, end := w.cfg.QuietStart, w.cfg.QuietEnd
	if start == end {
		return false
	}
	h := now.Hour()
	if start < end {
		return h >= start && h < end
	}
	return h >= start || h < end
}

func (w *WindowService) snapshotLocked() models.WindowState {
	return models.WindowState{
		ID:         1,
		Phase:      w.phase,
		Previous:   w.previous,
		Label:      w.phase.Label(w.previous),
		LastSample: w.sample,
		RestUntil:  w.restUntil,
		HoldManual: w.hold,
		Pending:    len(w.sched.Pending()),
		Powered:    w.powered,
		UpdatedAt:  w.clock.Now(),
	}
}

func (w *WindowService) event(typ, desc string, meta map[string]any) models.WindowEvent {
	ev := models.WindowEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  w.clock.Now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	return ev
}

// flush appends events and persists the state. Runs without the state lock;
// storage failures are logged only.
func (w *WindowService) flush(ctx context.Context, events ...models.WindowEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistWait)
	defer cancel()
	if w.eventRepo != nil {
		for _, ev := range events {
			if err := w.eventRepo.Append(ctx, ev); err != nil {
				w.log.Warnw("window_event_append_failed", "type", ev.Type, "err", err)
			}
		}
	}
	w.persist(ctx)
}

func (w *WindowService) persist(ctx context.Context) {
	if w.stateRepo == nil {
		return
	}
	if err := w.stateRepo.Save(ctx, w.Status()); err != nil {
		w.log.Warnw("window_state_save_failed", "err", err)
	}
}
