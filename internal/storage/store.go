package storage

import (
	"context"

	"github.com/yoavsyo/optic-classifier/internal/model"
)

// Store persists trained masks and optimizer run records.
type Store interface {
	Init(ctx context.Context) error
	SaveMask(ctx context.Context, mask model.MaskRecord) error
	GetMask(ctx context.Context, id string) (model.MaskRecord, bool, error)
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
}
