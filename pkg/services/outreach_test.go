package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dukex/outreach/pkg/calls"
	"github.com/dukex/outreach/pkg/email"
	"github.com/dukex/outreach/pkg/engine"
	"github.com/dukex/outreach/pkg/graph"
	"github.com/dukex/outreach/pkg/leads"
	"github.com/dukex/outreach/pkg/mocks"
	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/persistence"
	"github.com/dukex/outreach/pkg/persistence/file"
	"github.com/dukex/outreach/pkg/services"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const leadsCSV = `Name,Phone,Email
Ada Lovelace,(555) 000-0001,ada@example.com
Grace Hopper,555-000-0002,grace@example.com
`

type fixture struct {
	service   *services.Outreach
	provider  *mocks.MockProvider
	generator *mocks.MockGenerator
	mailer    *mocks.MockMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		provider:  &mocks.MockProvider{},
		generator: &mocks.MockGenerator{},
		mailer:    &mocks.MockMailer{},
	}
	f.provider.On("Name").Return("mock")

	store := leads.NewStore()
	db := file.NewPersistence(t.TempDir())
	clock := clockwork.NewFakeClock()

	eng := engine.New(store,
		calls.NewOrchestrator(f.provider, calls.WithClock(clock)),
		email.NewComposer(f.generator),
		email.NewDispatcher(f.mailer),
		engine.WithClock(clock),
		engine.WithPacing(0),
		engine.WithHistory(db.RunRepository()),
	)

	f.service = services.NewOutreach(store, eng, db)

	return f
}

func emailOnly() *models.Workflow {
	return &models.Workflow{
		ID:   "cold",
		Name: "Cold Outreach",
		Nodes: []*models.WorkflowNode{
			{ID: "source", Kind: models.NodeKindTrigger, Configured: true},
			{ID: "email", Kind: models.NodeKindEmailAction},
		},
	}
}

func TestOutreach_DefaultWorkflowBecomesRunnable(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Plan()
	require.ErrorIs(t, err, graph.ErrMissingTrigger)
	assert.True(t, services.IsValidationError(err))

	result, err := f.service.ImportLeads(strings.NewReader(leadsCSV))
	require.NoError(t, err)
	assert.Len(t, result.Leads, 2)
	assert.Len(t, f.service.Leads(), 2)

	plan, err := f.service.Plan()
	require.NoError(t, err)
	assert.Equal(t, models.Plan{DoCall: true}, plan)

	require.NoError(t, f.service.SetSender(models.SenderIdentity{Email: "sales@acme.test", Name: "Acme"}))

	plan, err = f.service.Plan()
	require.NoError(t, err)
	assert.Equal(t, models.Plan{DoCall: true, DoEmail: true}, plan)
}

func TestOutreach_WorkflowIsCopied(t *testing.T) {
	f := newFixture(t)

	workflow := f.service.Workflow()
	workflow.Nodes[0].Configured = true
	workflow.Name = "changed"

	assert.Equal(t, "Lead Outreach", f.service.Workflow().Name)
	assert.False(t, f.service.Workflow().Nodes[0].Configured)
}

func TestOutreach_SetWorkflowRejectsStructuralErrors(t *testing.T) {
	f := newFixture(t)

	err := f.service.SetWorkflow(nil)
	require.ErrorIs(t, err, services.ErrWorkflowNil)

	err = f.service.SetWorkflow(&models.Workflow{Nodes: []*models.WorkflowNode{
		{ID: "a", Kind: models.NodeKindTrigger},
		{ID: "a", Kind: models.NodeKindCallAction},
	}})
	require.ErrorIs(t, err, graph.ErrDuplicateNodeID)
	assert.True(t, services.IsValidationError(err))

	_, err = f.service.ParseWorkflow([]byte(`{"nodes":[{"kind":"sms_action"}]}`))
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))

	workflow, err := f.service.ParseWorkflow([]byte(`{"name":"Calls","nodes":[{"id":"t","kind":"trigger","configured":true},{"id":"c","kind":"call_action"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Calls", workflow.Name)
}

func TestOutreach_AddLead(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.AddLead(models.Lead{Name: "No Phone"})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))

	_, err = f.service.AddLead(models.Lead{Name: "Bad", Phone: "1", Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))

	lead, err := f.service.AddLead(models.Lead{Name: "Ada", Phone: "5550001", Status: models.LeadStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, leads.DefaultCountryCode, lead.CountryCode)
	assert.Equal(t, models.LeadStatusPending, lead.Status)
	assert.True(t, f.service.Workflow().Nodes[0].Configured)

	err = f.service.RemoveLead(3)
	require.Error(t, err)
	assert.True(t, services.IsNotFoundError(err))

	require.NoError(t, f.service.RemoveLead(0))
	assert.Empty(t, f.service.Leads())
}

func TestOutreach_ImportLeadsMissingColumns(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ImportLeads(strings.NewReader("Name,Phone\nAda,1\n"))
	require.ErrorIs(t, err, leads.ErrMissingColumns)
	assert.True(t, services.IsValidationError(err))
}

func TestOutreach_RunAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Run(ctx)
	require.ErrorIs(t, err, graph.ErrMissingTrigger)
	assert.True(t, services.IsValidationError(err))

	require.NoError(t, f.service.SetWorkflow(emailOnly()))

	_, err = f.service.Run(ctx)
	require.ErrorIs(t, err, engine.ErrNoLeads)
	assert.True(t, services.IsValidationError(err))

	_, err = f.service.ImportLeads(strings.NewReader(leadsCSV))
	require.NoError(t, err)
	require.NoError(t, f.service.SetSender(models.SenderIdentity{Email: "sales@acme.test", Name: "Acme"}))

	f.generator.On("Generate", mock.Anything, mock.Anything).Return("Hello there", nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return("id", nil)

	record, err := f.service.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Total: 2, Completed: 2}, record.Stats)
	assert.Equal(t, "Cold Outreach", record.WorkflowName)

	status := f.service.Status()
	assert.Equal(t, models.RunStateIdle, status.State)
	assert.Empty(t, status.RunID)
	assert.Equal(t, record.Stats, status.Stats)

	runs, err := f.service.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, record.ID, runs[0].ID)

	stored, err := f.service.RunByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Stats, stored.Stats)

	_, err = f.service.RunByID(ctx, "missing")
	assert.True(t, services.IsNotFoundError(err))

	_, err = f.service.RunByID(ctx, "")
	assert.True(t, services.IsValidationError(err))

	assert.NotEmpty(t, f.service.Log())
	f.service.ClearLog()
	assert.Empty(t, f.service.Log())

	require.NoError(t, f.service.Reset())

	for _, lead := range f.service.Leads() {
		assert.Equal(t, models.LeadStatusPending, lead.Status)
	}

	f.provider.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestOutreach_HasPendingLeads(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.service.HasPendingLeads())

	_, err := f.service.ImportLeads(strings.NewReader(leadsCSV))
	require.NoError(t, err)
	assert.True(t, f.service.HasPendingLeads())

	require.NoError(t, f.service.SetWorkflow(emailOnly()))
	require.NoError(t, f.service.SetSender(models.SenderIdentity{Email: "sales@acme.test", Name: "Acme"}))

	f.generator.On("Generate", mock.Anything, mock.Anything).Return("Hello there", nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return("id", nil)

	_, err = f.service.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, f.service.HasPendingLeads())

	require.NoError(t, f.service.Reset())
	assert.True(t, f.service.HasPendingLeads())
}

func TestOutreach_SettingsLockedWhileRunning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ImportLeads(strings.NewReader(leadsCSV))
	require.NoError(t, err)
	require.NoError(t, f.service.SetWorkflow(emailOnly()))

	sender := models.SenderIdentity{Email: "sales@acme.test", Name: "Acme"}
	require.NoError(t, f.service.SetSender(sender))

	release := make(chan struct{})

	f.generator.On("Generate", mock.Anything, mock.Anything).Return("Hello there", nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return("id", nil)

	_, err = f.service.StartRun(ctx)
	require.NoError(t, err)

	err = f.service.SetSender(models.SenderIdentity{Email: "other@acme.test", Name: "Other"})
	require.ErrorIs(t, err, engine.ErrRunInProgress)
	assert.True(t, services.IsConflictError(err))
	assert.Equal(t, sender, f.service.Sender())

	require.ErrorIs(t, f.service.SetWorkflow(emailOnly()), engine.ErrRunInProgress)

	close(release)
	require.NoError(t, f.service.Wait(ctx))

	require.NoError(t, f.service.SetSender(models.SenderIdentity{Email: "other@acme.test", Name: "Other"}))
	assert.Equal(t, "other@acme.test", f.service.Sender().Email)
}

func TestOutreach_HealthCheck(t *testing.T) {
	f := newFixture(t)

	message, ok := f.service.HealthCheck(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	unhealthy := &mocks.MockPersistence{}
	unhealthy.On("HealthCheck", mock.Anything).Return(errors.New("disk gone"))

	service := services.NewOutreach(leads.NewStore(), nil, unhealthy)
	message, ok = service.HealthCheck(context.Background())
	assert.False(t, ok)
	assert.Contains(t, message, "disk gone")

	message, ok = services.NewOutreach(leads.NewStore(), nil, nil).HealthCheck(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer not initialized", message)
}

func TestErrorCategories(t *testing.T) {
	assert.True(t, services.IsConflictError(engine.ErrRunInProgress))
	assert.True(t, services.IsConflictError(leads.ErrRunActive))
	assert.False(t, services.IsConflictError(graph.ErrNoAction))

	assert.True(t, services.IsValidationError(graph.ErrMissingEmailConfig))
	assert.True(t, services.IsValidationError(services.NewValidationError("op", "code", "msg", services.ErrInvalidRequest)))

	assert.True(t, services.IsNotFoundError(persistence.NewRunError("GetByID", "x", persistence.ErrRunNotFound)))
	assert.False(t, services.IsNotFoundError(errors.New("boom")))
}
