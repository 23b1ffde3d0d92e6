package service

import (
	"context"
	"time"

	"controlling_window/internal/models"
)

type statusSource interface {
	Status() models.WindowState
}

type MonitoringService struct {
	window statusSource
}

func NewMonitoringService(window statusSource) *MonitoringService {
	return &MonitoringService{window: window}
}

// GetState returns the live window status with times normalized to UTC.
func (s *MonitoringService) GetState(ctx context.Context) (models.WindowState, error) {
	if err := ctx.Err(); err != nil {
		return models.WindowState{}, err
	}
	st := s.window.Status()
	st.RestUntil = toUTC(st.RestUntil)
	st.UpdatedAt = toUTC(st.UpdatedAt)
	st.LastSample.Time = toUTC(st.LastSample.Time)
	return st, nil
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
