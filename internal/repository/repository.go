package repository

import (
	"context"
	"database/sql"
	"time"

	"controlling_window/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

type StateRepo interface {
	Save(ctx context.Context, s models.WindowState) error
	Load(ctx context.Context) (models.WindowState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.WindowEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.WindowEvent, error)
}

// SampleRepo is the append-only log of periodic sensor samples.
type SampleRepo interface {
	Append(ctx context.Context, s models.SensorSample) error
	List(ctx context.Context, from, to time.Time) ([]models.SensorSample, error)
}

type Repository struct {
	StateRepo  StateRepo
	EventRepo  EventRepo
	SampleRepo SampleRepo
	Auth       Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo:  NewStateSQLite(db),
		EventRepo:  NewEventSQLite(db),
		SampleRepo: NewSampleSQLite(db),
		Auth:       NewUserRepository(db),
	}
}
