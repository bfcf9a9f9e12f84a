// Package storage persists pipeline runs and per-chunk results.
package storage

import (
	"context"

	"github.com/minato/kizami/internal/models"
)

// Storage defines persistence for runs and their chunk results.
type Storage interface {
	CreateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, runID string) (*models.Run, error)
	ListRuns(ctx context.Context, offset, limit int) ([]*models.Run, error)
	UpdateRunMetrics(ctx context.Context, runID string, metrics *models.PipelineMetrics) error

	SaveResult(ctx context.Context, runID string, chunk *models.Chunk, result *models.ProcessingResult) error
	GetResults(ctx context.Context, runID string) ([]*models.ProcessingResult, error)

	CountRuns(ctx context.Context) (int64, error)
	Close() error
}
