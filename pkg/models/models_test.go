package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodeKind(t *testing.T) {
	kind, err := ParseNodeKind(" Call_Action ")
	require.NoError(t, err)
	assert.Equal(t, NodeKindCallAction, kind)
	assert.True(t, kind.IsAction())
	assert.False(t, NodeKindTrigger.IsAction())

	_, err = ParseNodeKind("sms_action")
	require.Error(t, err)

	var unknown *UnknownNodeKindError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "sms_action", unknown.Kind)
}

func TestWorkflowNode_UnmarshalJSON(t *testing.T) {
	var node WorkflowNode
	require.NoError(t, json.Unmarshal([]byte(`{"id":"e","kind":"email_action","configured":true}`), &node))
	assert.Equal(t, NodeKindEmailAction, node.Kind)
	assert.True(t, node.IsConfigured())
	assert.True(t, node.IsAction())

	err := json.Unmarshal([]byte(`{"id":"x","kind":"webhook"}`), &node)
	require.Error(t, err)

	var missing *WorkflowNode
	assert.False(t, missing.IsConfigured())
}

func TestWorkflow_Validation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	valid := Workflow{Nodes: []*WorkflowNode{{ID: "t", Kind: NodeKindTrigger}}}
	require.NoError(t, validate.Struct(valid))

	invalid := Workflow{Nodes: []*WorkflowNode{{Kind: NodeKindTrigger}}}
	require.Error(t, validate.Struct(invalid))
}

func TestLead_DialNumber(t *testing.T) {
	lead := Lead{Name: "Ada", Phone: "(555) 000-0001", CountryCode: "+44"}
	assert.Equal(t, "+445550000001", lead.DialNumber())
	assert.Equal(t, LeadKey{Name: "Ada", Phone: "(555) 000-0001"}, lead.Key())
	assert.Empty(t, DigitsOnly("n/a"))
}

func TestLeadStatus_IsCallTerminal(t *testing.T) {
	assert.True(t, LeadStatusCompleted.IsCallTerminal())
	assert.True(t, LeadStatusFailed.IsCallTerminal())
	assert.False(t, LeadStatusCalling.IsCallTerminal())
	assert.False(t, LeadStatusEmailSent.IsCallTerminal())
}

func TestPlan(t *testing.T) {
	assert.Equal(t, "call+email", Plan{DoCall: true, DoEmail: true}.String())
	assert.Equal(t, "call", Plan{DoCall: true}.String())
	assert.Equal(t, "email", Plan{DoEmail: true}.String())
	assert.Equal(t, "none", Plan{}.String())

	assert.True(t, Plan{DoEmail: true}.IsColdOutreach())
	assert.False(t, Plan{DoCall: true, DoEmail: true}.IsColdOutreach())
}

func TestSenderIdentity_IsComplete(t *testing.T) {
	assert.True(t, SenderIdentity{Email: "a@b.test", Name: "A"}.IsComplete())
	assert.False(t, SenderIdentity{Email: "a@b.test"}.IsComplete())
	assert.False(t, SenderIdentity{Name: "A"}.IsComplete())
}

func TestStatsAndRunRecord(t *testing.T) {
	assert.True(t, Stats{Total: 3, Completed: 2, Failed: 1}.Settled())
	assert.False(t, Stats{Total: 3, Completed: 2, InProgress: 1}.Settled())
	assert.False(t, Stats{Total: 3, Completed: 1}.Settled())

	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	record := &RunRecord{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	assert.Equal(t, 90*time.Second, record.Duration())
}
