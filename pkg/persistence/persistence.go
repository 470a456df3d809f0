// Package persistence provides the storage abstraction for run history.
package persistence

import (
	"context"

	"github.com/dukex/outreach/pkg/models"
)

type Persistence interface {
	RunRepository() RunRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// RunRepository archives finished runs.
type RunRepository interface {
	Save(ctx context.Context, run *models.RunRecord) error
	// GetAll returns runs newest first, at most limit when limit > 0.
	GetAll(ctx context.Context, limit int) ([]*models.RunRecord, error)
	GetByID(ctx context.Context, id string) (*models.RunRecord, error)
}
