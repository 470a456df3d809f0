package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/persistence"
)

// RunRepository handles run-related database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

const selectRuns = `
	SELECT
		id
	  , workflow_name
	  , plan
	  , stats
	  , leads
	  , log
	  , cancelled
	  , started_at
	  , finished_at
	FROM runs
`

// Save inserts a run, or replaces the stored run with the same id.
func (r *RunRepository) Save(ctx context.Context, run *models.RunRecord) error {
	if run == nil || run.ID == "" {
		return persistence.NewRunError("Save", "", persistence.ErrInvalidRun)
	}

	plan, err := json.Marshal(run.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	leads, err := json.Marshal(nonNil(run.Leads))
	if err != nil {
		return fmt.Errorf("failed to marshal leads: %w", err)
	}

	log, err := json.Marshal(nonNil(run.Log))
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	query := `
		INSERT INTO runs (id, workflow_name, plan, stats, leads, log, cancelled, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			workflow_name = EXCLUDED.workflow_name,
			plan = EXCLUDED.plan,
			stats = EXCLUDED.stats,
			leads = EXCLUDED.leads,
			log = EXCLUDED.log,
			cancelled = EXCLUDED.cancelled,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID, run.WorkflowName, plan, stats, leads, log, run.Cancelled, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	return nil
}

// GetByID returns a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, selectRuns+" WHERE id = $1", id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	return run, nil
}

// GetAll returns runs newest first.
func (r *RunRepository) GetAll(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	query := selectRuns + " ORDER BY started_at DESC"
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"

		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func(ctx context.Context, r *RunRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	runs := make([]*models.RunRecord, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.RunRecord, error) {
	var (
		run                      models.RunRecord
		plan, stats, leads, logs []byte
	)

	err := row.Scan(&run.ID, &run.WorkflowName, &plan, &stats, &leads, &logs,
		&run.Cancelled, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(plan, &run.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}

	if err := json.Unmarshal(stats, &run.Stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	if err := json.Unmarshal(leads, &run.Leads); err != nil {
		return nil, fmt.Errorf("failed to unmarshal leads: %w", err)
	}

	if err := json.Unmarshal(logs, &run.Log); err != nil {
		return nil, fmt.Errorf("failed to unmarshal log: %w", err)
	}

	return &run, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
