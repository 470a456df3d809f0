package persistence

import (
	"sort"

	"github.com/dukex/outreach/pkg/models"
)

// SortRuns orders runs newest first and applies limit when positive.
func SortRuns(runs []*models.RunRecord, limit int) []*models.RunRecord {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs
}
