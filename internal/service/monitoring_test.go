package service

import (
	"context"
	"testing"
	"time"

	"controlling_window/internal/models"
)

// statusStub is a local test stub that satisfies statusSource.
type statusStub struct {
	state models.WindowState
}

func (s statusStub) Status() models.WindowState { return s.state }

func TestMonitoringService_GetState(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("X", -3*3600) // UTC-3

	type testCase struct {
		name       string
		state      models.WindowState
		assertFunc func(t *testing.T, got models.WindowState, err error)
	}

	cases := []testCase{
		{
			name: "normalizes times to UTC",
			state: models.WindowState{
				ID:         1,
				Phase:      models.PhaseStopped,
				Previous:   models.PhaseOpening,
				Label:      "stopped (opening)",
				RestUntil:  time.Date(2025, 1, 2, 3, 4, 5, 0, zone),
				UpdatedAt:  time.Date(2025, 1, 2, 3, 0, 0, 0, zone),
				LastSample: models.SensorSample{Time: time.Date(2025, 1, 2, 2, 59, 0, 0, zone), Valid: true, Humidity: 61, Temperature: 21},
			},
			assertFunc: func(t *testing.T, got models.WindowState, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Label != "stopped (opening)" {
					t.Errorf("Label: want %q, got %q", "stopped (opening)", got.Label)
				}
				wantRest := time.Date(2025, 1, 2, 6, 4, 5, 0, time.UTC) // 03:04:05 -03:00 => 06:04:05 UTC
				if got.RestUntil.Location() != time.UTC || !got.RestUntil.Equal(wantRest) {
					t.Errorf("RestUntil: want %v, got %v", wantRest, got.RestUntil)
				}
				if got.UpdatedAt.Location() != time.UTC {
					t.Errorf("UpdatedAt must be UTC, got %v", got.UpdatedAt.Location())
				}
				if got.LastSample.Time.Location() != time.UTC {
					t.Errorf("LastSample.Time must be UTC, got %v", got.LastSample.Time.Location())
				}
				if got.LastSample.Humidity != 61 || got.LastSample.Temperature != 21 {
					t.Errorf("unexpected sample: %+v", got.LastSample)
				}
			},
		},
		{
			name:  "preserves zero times before the first sample",
			state: models.WindowState{ID: 1, Label: "unknown"},
			assertFunc: func(t *testing.T, got models.WindowState, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !got.RestUntil.IsZero() || !got.LastSample.Time.IsZero() {
					t.Errorf("expected zero times, got rest=%v sample=%v", got.RestUntil, got.LastSample.Time)
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			svc := NewMonitoringService(statusStub{state: tc.state})

			got, err := svc.GetState(ctx)
			tc.assertFunc(t, got, err)
		})
	}
}

func TestMonitoringService_GetState_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewMonitoringService(statusStub{state: models.WindowState{ID: 1}})
	if _, err := svc.GetState(ctx); err == nil {
		t.Fatalf("expected context error, got nil")
	}
}

func TestToUTC(t *testing.T) {
	t.Parallel()

	t.Run("zero time is preserved", func(t *testing.T) {
		t.Parallel()
		var z time.Time
		if got := toUTC(z); !got.IsZero() {
			t.Fatalf("expected zero time, got %v", got)
		}
	})

	t.Run("non-zero converted to UTC", func(t *testing.T) {
		t.Parallel()
		local := time.Date(2025, 2, 3, 10, 0, 0, 0, time.FixedZone("Z+2", 2*3600))
		got := toUTC(local)
		want := time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)
		if got.Location() != time.UTC {
			t.Fatalf("expected UTC location, got %v", got.Location())
		}
		if !got.Equal(want) {
			t.Fatalf("want %v, got %v", want, got)
		}
	})
}
