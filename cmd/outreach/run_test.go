package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/outreach/pkg/graph"
	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const coldWorkflow = `{
  "id": "cold",
  "name": "Cold Outreach",
  "nodes": [
    {"id": "source", "kind": "trigger", "configured": true},
    {"id": "email", "kind": "email_action"}
  ]
}`

const callWorkflow = `{
  "name": "Calls",
  "nodes": [
    {"kind": "trigger", "configured": true},
    {"kind": "call_action"},
    {"kind": "email_action", "configured": true}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDescribePlan(t *testing.T) {
	description, err := describePlan([]byte(coldWorkflow), models.SenderIdentity{Email: "sales@acme.test", Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, `Workflow "Cold Outreach" is valid (email): email each lead without calling`, description)

	description, err = describePlan([]byte(callWorkflow), models.SenderIdentity{})
	require.NoError(t, err)
	assert.Contains(t, description, "(call+email)")

	_, err = describePlan([]byte(coldWorkflow), models.SenderIdentity{})
	require.ErrorIs(t, err, graph.ErrMissingEmailConfig)
	assert.Equal(t, graph.Reason(err), validationMessage(err))

	_, err = describePlan([]byte(`{"nodes":[{"kind":"sms_action"}]}`), models.SenderIdentity{})
	require.ErrorIs(t, err, graph.ErrInvalidDocument)
}

func TestRunOnce_ColdOutreach(t *testing.T) {
	ts := newTestService(t)
	require.NoError(t, ts.service.SetSender(models.SenderIdentity{Email: "sales@acme.test", Name: "Acme"}))

	ts.generator.On("Generate", mock.Anything, mock.Anything).Return("Hello from Acme", nil)
	ts.mailer.On("Send", mock.Anything, mock.Anything).Return("msg-1", nil)

	workflowPath := writeFile(t, "workflow.json", coldWorkflow)
	leadsPath := writeFile(t, "leads.csv", "Name,Phone,Email\nAda,5550001,ada@example.com\nBob,5550002,\n")

	var out bytes.Buffer

	record, err := runOnce(context.Background(), ts.service, workflowPath, leadsPath, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Imported 2 leads")
	assert.Equal(t, models.Stats{Total: 2, Completed: 1, Failed: 1}, record.Stats)

	ts.mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestRunOnce_ValidationFailure(t *testing.T) {
	ts := newTestService(t)

	workflowPath := writeFile(t, "workflow.json", coldWorkflow)
	leadsPath := writeFile(t, "leads.csv", "Name,Phone,Email\nAda,5550001,ada@example.com\n")

	_, err := runOnce(context.Background(), ts.service, workflowPath, leadsPath, &bytes.Buffer{})
	require.ErrorIs(t, err, graph.ErrMissingEmailConfig)
	assert.True(t, services.IsValidationError(err))

	ts.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestRunOnce_MissingFiles(t *testing.T) {
	ts := newTestService(t)

	_, err := runOnce(context.Background(), ts.service, "/does/not/exist.json", "leads.csv", &bytes.Buffer{})
	require.Error(t, err)

	_, err = runOnce(context.Background(), ts.service, "", "/does/not/exist.csv", &bytes.Buffer{})
	require.Error(t, err)
}

func TestPrintRun(t *testing.T) {
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	var out bytes.Buffer

	printRun(&out, &models.RunRecord{
		ID:        "run-1",
		Plan:      models.Plan{DoCall: true},
		StartedAt: started,
		Stats:     models.Stats{Total: 1, Failed: 1},
		Leads:     []models.Lead{{Name: "Ada", Status: models.LeadStatusFailed}},
		Log: []models.LogEntry{
			{Message: "Starting workflow execution...", Severity: models.SeverityInfo, Timestamp: started},
		},
		Cancelled: true,
	})

	text := out.String()
	assert.Contains(t, text, "09:00:00 [info] Starting workflow execution...")
	assert.Contains(t, text, "Ada")
	assert.Contains(t, text, "Run run-1 (call): 1 total, 0 completed, 1 failed, cancelled")
}
