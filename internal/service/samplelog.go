package service

import (
	"context"

	"controlling_window/internal/models"
	"controlling_window/internal/repository"
)

// SampleLogService persists monitor samples and serves them back for export.
type SampleLogService struct {
	sampleRepo repository.SampleRepo
}

func NewSampleLogService(sampleRepo repository.SampleRepo) *SampleLogService {
	return &SampleLogService{sampleRepo: sampleRepo}
}

// Record implements SampleRecorder.
func (s *SampleLogService) Record(ctx context.Context, sample models.SensorSample) error {
	return s.sampleRepo.Append(ctx, sample)
}

func (s *SampleLogService) List(ctx context.Context, f SampleFilter) ([]models.SensorSample, error) {
	from, to, err := normalizeRange(f.From, f.To)
	if err != nil {
		return nil, err
	}
	return s.sampleRepo.List(ctx, from, to)
}
