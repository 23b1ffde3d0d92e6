package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"controlling_window/internal/models"
)

// SampleSQLite stores one row per monitor cycle.
type SampleSQLite struct {
	db *sql.DB
}

func NewSampleSQLite(db *sql.DB) *SampleSQLite { return &SampleSQLite{db: db} }

const (
	insertSampleSQL = `
		INSERT INTO window_samples (sampled_at, phase, temperature_c, humidity_pct, valid)
		VALUES (?, ?, ?, ?, ?)
	`
	selectSamplesSQL = `SELECT sampled_at, phase, temperature_c, humidity_pct, valid FROM window_samples`
)

// Append records a sample. A zero Time is replaced by now.
func (r *SampleSQLite) Append(ctx context.Context, s models.SensorSample) error {
	_, err := r.db.ExecContext(ctx, insertSampleSQL,
		utcOrNow(s.Time),
		s.Phase,
		s.Temperature,
		s.Humidity,
		s.Valid,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// List returns samples within [from, to] (zero bounds are open), oldest first.
func (r *SampleSQLite) List(ctx context.Context, from, to time.Time) ([]models.SensorSample, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "sampled_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "sampled_at <= ?")
		args = append(args, to.UTC())
	}

	q := selectSamplesSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY sampled_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []models.SensorSample
	for rows.Next() {
		var s models.SensorSample
		if err := rows.Scan(&s.Time, &s.Phase, &s.Temperature, &s.Humidity, &s.Valid); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		s.Time = s.Time.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
