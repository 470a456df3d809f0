package execution

import (
	"context"
	"fmt"

	"github.com/dukex/outreach/pkg/leads"
	"github.com/dukex/outreach/pkg/models"
)

// RunContext is passed explicitly through the engine call chain for one run.
type RunContext struct {
	ID           string
	WorkflowName string
	Plan         models.Plan
	Sender       models.SenderIdentity
	Leads        []models.Lead // pending snapshot taken at run start

	Store   *leads.Store
	Journal *Journal
}

// UpdateLead changes a lead's status through the store and notifies observers.
func (rc *RunContext) UpdateLead(ctx context.Context, lead models.Lead, status models.LeadStatus, opts ...leads.UpdateOption) (models.Lead, error) {
	updated, err := rc.Store.UpdateStatus(lead.Key(), status, opts...)
	if err != nil {
		return models.Lead{}, fmt.Errorf("failed to update lead %s to %s: %w", lead.Name, status, err)
	}

	rc.Journal.LeadUpdated(ctx, updated)

	return updated, nil
}

// Position returns the 1-based position of lead in the snapshot, or 0.
func (rc *RunContext) Position(lead models.Lead) int {
	for i, l := range rc.Leads {
		if l.Key() == lead.Key() {
			return i + 1
		}
	}

	return 0
}
