package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"controlling_window/internal/hardware"
	"controlling_window/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLiveWindow runs on the real clock with a short motor runtime.
func newLiveWindow(t *testing.T) (*WindowService, *Scheduler, *hardware.FakeRelay, *fakeEventRepo) {
	t.Helper()
	cfg := testWindowConfig()
	cfg.MaxRuntime = 30 * time.Millisecond
	relay := hardware.NewFakeRelay()
	events := &fakeEventRepo{}
	sched := NewScheduler(RealClock(), nil)
	w := NewWindowService(cfg, RealClock(), relay, sched, &memStateRepo{}, events, nil)
	return w, sched, relay, events
}

func TestShutdown_WhileOpeningClosesAndStops(t *testing.T) {
	w, sched, relay, events := newLiveWindow(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	require.NoError(t, w.RequestOpen(ctx, time.Minute))
	require.Eventually(t, func() bool {
		return w.Status().Phase == models.PhaseOpening
	}, time.Second, time.Millisecond)

	start := time.Now()
	require.NoError(t, w.TriggerShutdown(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	on, dir := relay.State()
	assert.False(t, on)
	assert.Equal(t, hardware.DirectionClose, dir)

	st := w.Status()
	assert.Equal(t, models.PhaseShutdown, st.Phase)
	assert.Equal(t, 0, st.Pending)
	assert.Equal(t, 1, events.count(models.EventShutdown))

	// Second invocation is a no-op.
	calls := len(relay.Calls)
	require.NoError(t, w.TriggerShutdown(ctx))
	assert.Len(t, relay.Calls, calls)
	assert.Equal(t, 1, events.count(models.EventShutdown))
}

func TestShutdown_RequestsAfterShutdownAreRejected(t *testing.T) {
	w, sched, relay, _ := newLiveWindow(t)
	require.NoError(t, w.TriggerShutdown(context.Background()))
	calls := len(relay.Calls)

	assert.ErrorIs(t, w.RequestOpen(context.Background(), time.Minute), ErrShutdown)
	assert.ErrorIs(t, w.RequestClose(context.Background(), time.Minute), ErrShutdown)
	assert.False(t, w.Observe(context.Background(), humid()))
	assert.True(t, sched.Empty())
	assert.Len(t, relay.Calls, calls)
}

func TestShutdown_AlreadyClosedWritesNothing(t *testing.T) {
	w, sched, relay, _ := newLiveWindow(t)
	ctx := context.Background()

	require.NoError(t, w.RequestClose(ctx, 0))
	require.NoError(t, sched.Drain(ctx))
	require.Equal(t, "stopped (closing)", w.Status().Label)
	calls := len(relay.Calls)

	require.NoError(t, w.TriggerShutdown(ctx))
	assert.Len(t, relay.Calls, calls)
	assert.Equal(t, models.PhaseShutdown, w.Status().Phase)
}

func TestShutdown_PowerOffFailureIsReported(t *testing.T) {
	w, sched, relay, _ := newLiveWindow(t)
	ctx := context.Background()

	require.NoError(t, w.RequestOpen(ctx, time.Minute))
	sched.RunDue()
	require.True(t, w.Status().Powered)

	relay.PowerError = errors.New("line released")
	err := w.TriggerShutdown(ctx)
	assert.ErrorIs(t, err, ErrPowerOffUnconfirmed)
}

func TestShutdown_CanceledContextStillDrains(t *testing.T) {
	w, _, relay, _ := newLiveWindow(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, w.TriggerShutdown(ctx))
	on, _ := relay.State()
	assert.False(t, on)
	assert.Equal(t, 1, relay.PowerOnCount())
}
