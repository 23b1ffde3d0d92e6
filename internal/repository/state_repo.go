package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"controlling_window/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	windowStateRowID = 1

	insertOrUpdateStateSQL = `
		INSERT INTO window_state (id, phase, previous, rest_until, hold_manual, powered,
			sample_at, temperature_c, humidity_pct, sample_valid, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase=excluded.phase,
			previous=excluded.previous,
			rest_until=excluded.rest_until,
			hold_manual=excluded.hold_manual,
			powered=excluded.powered,
			sample_at=excluded.sample_at,
			temperature_c=excluded.temperature_c,
			humidity_pct=excluded.humidity_pct,
			sample_valid=excluded.sample_valid,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, phase, previous, rest_until, hold_manual, powered,
			sample_at, temperature_c, humidity_pct, sample_valid, updated_at
		FROM window_state WHERE id=?
	`
)

// utcOrNow returns t in UTC, substituting now for the zero time.
func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// Save updates or inserts the window_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, state models.WindowState) error {
	_, err := r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		windowStateRowID,
		state.Phase.String(),
		state.Previous.String(),
		state.RestUntil.UTC(),
		state.HoldManual,
		state.Powered,
		state.LastSample.Time.UTC(),
		state.LastSample.Temperature,
		state.LastSample.Humidity,
		state.LastSample.Valid,
		utcOrNow(state.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save window state: %w", err)
	}
	return nil
}

// Load fetches the single window_state row (id=1). A missing row yields the zero state.
func (r *StateSQLite) Load(ctx context.Context) (models.WindowState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, windowStateRowID)

	var (
		s              models.WindowState
		phase, prevStr string
	)
	if err := row.Scan(
		&s.ID,
		&phase,
		&prevStr,
		&s.RestUntil,
		&s.HoldManual,
		&s.Powered,
		&s.LastSample.Time,
		&s.LastSample.Temperature,
		&s.LastSample.Humidity,
		&s.LastSample.Valid,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.WindowState{}, nil // no state yet
		}
		return models.WindowState{}, fmt.Errorf("load window state: %w", err)
	}

	s.Phase = models.ParsePhase(phase)
	s.Previous = models.ParsePhase(prevStr)
	s.Label = s.Phase.Label(s.Previous)
	s.RestUntil = s.RestUntil.UTC()
	s.LastSample.Time = s.LastSample.Time.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}
