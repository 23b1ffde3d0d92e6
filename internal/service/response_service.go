package service

import "time"

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", or one of the models.Event* types
}

// SampleFilter selects samples by time range.
type SampleFilter struct {
	From time.Time
	To   time.Time
}
