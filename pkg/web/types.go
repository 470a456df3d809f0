// Package web provides HTTP handlers and REST API endpoints for outreach runs.
package web

import (
	"time"

	"github.com/dukex/outreach/pkg/leads"
	"github.com/dukex/outreach/pkg/models"
)

// AddLeadRequest represents the request body for adding a lead by hand.
type AddLeadRequest struct {
	Name        string `json:"name"         validate:"required"`
	Phone       string `json:"phone"        validate:"required"`
	Email       string `json:"email"        validate:"omitempty,email"`
	CountryCode string `json:"country_code"`
}

func (r AddLeadRequest) Lead() models.Lead {
	return models.Lead{
		Name:        r.Name,
		Phone:       r.Phone,
		Email:       r.Email,
		CountryCode: r.CountryCode,
	}
}

// SenderRequest represents the email settings saved from the editor.
type SenderRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"  validate:"required"`
}

// ImportResponse summarises a CSV import.
type ImportResponse struct {
	Imported int           `json:"imported"`
	Invalid  int           `json:"invalid"`
	Skipped  int           `json:"skipped"`
	Leads    []models.Lead `json:"leads"`
}

func NewImportResponse(result *leads.ImportResult) ImportResponse {
	return ImportResponse{
		Imported: len(result.Leads),
		Invalid:  result.Invalid,
		Skipped:  result.Skipped,
		Leads:    result.Leads,
	}
}

// StartRunResponse is returned when a background run was accepted.
type StartRunResponse struct {
	RunID string `json:"run_id"`
}

// RunSummary is the list view of an archived run.
type RunSummary struct {
	ID           string       `json:"id"`
	WorkflowName string       `json:"workflow_name"`
	Plan         models.Plan  `json:"plan"`
	Stats        models.Stats `json:"stats"`
	Cancelled    bool         `json:"cancelled"`
	StartedAt    string       `json:"started_at"`
	DurationMs   int64        `json:"duration_ms"`
}

func NewRunSummary(run *models.RunRecord) RunSummary {
	return RunSummary{
		ID:           run.ID,
		WorkflowName: run.WorkflowName,
		Plan:         run.Plan,
		Stats:        run.Stats,
		Cancelled:    run.Cancelled,
		StartedAt:    run.StartedAt.UTC().Format(time.RFC3339),
		DurationMs:   run.Duration().Milliseconds(),
	}
}
