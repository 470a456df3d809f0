package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/persistence"
)

// RunRepository stores one JSON file per run under <root>/runs.
type RunRepository struct {
	root string
}

func NewRunRepository(root string) *RunRepository {
	return &RunRepository{root: root}
}

func (rr *RunRepository) dir() string {
	return path.Join(rr.root, "runs")
}

// Save writes a run to the file system, replacing an existing file.
func (rr *RunRepository) Save(_ context.Context, run *models.RunRecord) error {
	if run == nil || run.ID == "" {
		return persistence.NewRunError("Save", "", persistence.ErrInvalidRun)
	}

	err := os.MkdirAll(rr.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	return os.WriteFile(path.Join(rr.dir(), run.ID+".json"), data, 0600)
}

// GetByID loads a run by id.
func (rr *RunRepository) GetByID(_ context.Context, id string) (*models.RunRecord, error) {
	filePath := filepath.Clean(path.Join(rr.dir(), filepath.Base(id)+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to fetch run %s: %w", id, err)
	}

	var run models.RunRecord

	err = json.Unmarshal(body, &run)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}

	return &run, nil
}

// GetAll returns the stored runs newest first.
func (rr *RunRepository) GetAll(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	jsonFiles, err := fs.Glob(os.DirFS(rr.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list run files: %w", err)
	}

	runs := make([]*models.RunRecord, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		run, err := rr.GetByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return persistence.SortRuns(runs, limit), nil
}
