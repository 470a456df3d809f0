package services

import (
	"context"
	"fmt"
	"io"
	"maps"
	"sync"

	"github.com/dukex/outreach/pkg/engine"
	"github.com/dukex/outreach/pkg/graph"
	"github.com/dukex/outreach/pkg/leads"
	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/persistence"
	"github.com/go-playground/validator/v10"
)

// Status is the externally visible state of the engine.
type Status struct {
	State models.RunState `json:"state"`
	RunID string          `json:"run_id,omitempty"`
	Stats models.Stats    `json:"stats"`
}

// Outreach owns the authored workflow and sender identity and drives the
// engine with them.
type Outreach struct {
	mu       sync.RWMutex
	workflow *models.Workflow
	sender   models.SenderIdentity

	store       *leads.Store
	importer    *leads.Importer
	engine      *engine.Engine
	persistence persistence.Persistence
	validate    *validator.Validate
}

func NewOutreach(store *leads.Store, eng *engine.Engine, persistence persistence.Persistence) *Outreach {
	return &Outreach{
		workflow:    DefaultWorkflow(),
		store:       store,
		importer:    leads.NewImporter(),
		engine:      eng,
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// DefaultWorkflow is a lead source followed by a call and an email. The
// trigger becomes configured once leads exist, the email action once a
// sender is saved.
func DefaultWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:   "default",
		Name: "Lead Outreach",
		Nodes: []*models.WorkflowNode{
			{ID: "lead-source", Kind: models.NodeKindTrigger, Name: "Lead Source"},
			{ID: "ai-call", Kind: models.NodeKindCallAction, Name: "AI Call", Configured: true},
			{ID: "follow-up-email", Kind: models.NodeKindEmailAction, Name: "Follow-up Email"},
		},
	}
}

// HealthCheck checks the health of the persistence layer.
func (o *Outreach) HealthCheck(ctx context.Context) (string, bool) {
	if o.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := o.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Workflow returns a copy of the current workflow.
func (o *Outreach) Workflow() *models.Workflow {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return cloneWorkflow(o.workflow)
}

// SetWorkflow replaces the workflow. Structural errors are rejected; an
// incomplete workflow is accepted and reported when a run starts.
func (o *Outreach) SetWorkflow(workflow *models.Workflow) error {
	if workflow == nil {
		return ErrWorkflowNil
	}

	if _, err := graph.New(workflow.Nodes); err != nil {
		return err
	}

	if o.engine.State() == models.RunStateRunning {
		return engine.ErrRunInProgress
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.workflow = cloneWorkflow(workflow)

	return nil
}

// ParseWorkflow decodes a workflow document and installs it.
func (o *Outreach) ParseWorkflow(data []byte) (*models.Workflow, error) {
	workflow, err := graph.ParseDefinition(data)
	if err != nil {
		return nil, err
	}

	if err := o.SetWorkflow(workflow); err != nil {
		return nil, err
	}

	return o.Workflow(), nil
}

func (o *Outreach) Sender() models.SenderIdentity {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.sender
}

// SetSender saves the sender identity. A complete identity configures the
// email actions of the workflow.
func (o *Outreach) SetSender(sender models.SenderIdentity) error {
	if err := o.validate.Struct(sender); err != nil {
		return NewValidationError("SetSender", "invalid_sender", "sender email is not a valid address", err)
	}

	if o.engine.State() == models.RunStateRunning {
		return engine.ErrRunInProgress
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.sender = sender

	if sender.IsComplete() {
		o.configureNodes(models.NodeKindEmailAction)
	}

	return nil
}

// Plan validates the current workflow without running it.
func (o *Outreach) Plan() (models.Plan, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return graph.Validate(o.workflow, o.sender)
}

func (o *Outreach) Leads() []models.Lead {
	return o.store.All()
}

// AddLead appends a manually entered lead.
func (o *Outreach) AddLead(lead models.Lead) (models.Lead, error) {
	if err := o.validate.Struct(lead); err != nil {
		return models.Lead{}, NewValidationError("AddLead", "invalid_lead", "name and phone are required", err)
	}

	if lead.CountryCode == "" {
		lead.CountryCode = leads.DefaultCountryCode
	}

	lead.Status = models.LeadStatusPending

	if err := o.store.Add(lead); err != nil {
		return models.Lead{}, err
	}

	o.leadsAttached()

	return lead, nil
}

func (o *Outreach) RemoveLead(index int) error {
	return o.store.Remove(index)
}

// ImportLeads appends the leads of a CSV export.
func (o *Outreach) ImportLeads(r io.Reader) (*leads.ImportResult, error) {
	if o.store.Running() {
		return nil, leads.ErrRunActive
	}

	result, err := o.importer.Import(r)
	if err != nil {
		return nil, err
	}

	if err := o.store.Add(result.Leads...); err != nil {
		return nil, err
	}

	if len(result.Leads) > 0 {
		o.leadsAttached()
	}

	return result, nil
}

// Reset puts every lead back to pending and clears the log and stats.
func (o *Outreach) Reset() error {
	return o.engine.Reset()
}

// StartRun starts a run of the current workflow in the background.
func (o *Outreach) StartRun(ctx context.Context) (string, error) {
	workflow, sender := o.snapshot()

	return o.engine.Start(ctx, workflow, sender)
}

// HasPendingLeads reports whether a run started now would have work to do.
func (o *Outreach) HasPendingLeads() bool {
	return o.store.PendingLen() > 0
}

// Run executes the current workflow and waits for it to finish.
func (o *Outreach) Run(ctx context.Context) (*models.RunRecord, error) {
	workflow, sender := o.snapshot()

	return o.engine.Run(ctx, workflow, sender)
}

func (o *Outreach) CancelRun() bool {
	return o.engine.Cancel()
}

func (o *Outreach) Wait(ctx context.Context) error {
	return o.engine.Wait(ctx)
}

func (o *Outreach) Status() Status {
	return Status{
		State: o.engine.State(),
		RunID: o.engine.CurrentRunID(),
		Stats: o.engine.Stats(),
	}
}

func (o *Outreach) Log() []models.LogEntry {
	return o.engine.Log()
}

func (o *Outreach) ClearLog() {
	o.engine.ClearLog()
}

func (o *Outreach) Runs(ctx context.Context) ([]*models.RunRecord, error) {
	return o.engine.History(ctx)
}

func (o *Outreach) RunByID(ctx context.Context, id string) (*models.RunRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: run id is required", ErrInvalidRequest)
	}

	return o.engine.RunByID(ctx, id)
}

func (o *Outreach) snapshot() (*models.Workflow, models.SenderIdentity) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return cloneWorkflow(o.workflow), o.sender
}

func (o *Outreach) leadsAttached() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.configureNodes(models.NodeKindTrigger)
}

// configureNodes must be called with mu held.
func (o *Outreach) configureNodes(kind models.NodeKind) {
	for _, node := range o.workflow.Nodes {
		if node != nil && node.Kind == kind {
			node.Configured = true
		}
	}
}

func cloneWorkflow(workflow *models.Workflow) *models.Workflow {
	if workflow == nil {
		return nil
	}

	clone := &models.Workflow{
		ID:    workflow.ID,
		Name:  workflow.Name,
		Nodes: make([]*models.WorkflowNode, 0, len(workflow.Nodes)),
	}

	for _, node := range workflow.Nodes {
		if node == nil {
			clone.Nodes = append(clone.Nodes, nil)

			continue
		}

		n := *node
		n.Attributes = maps.Clone(node.Attributes)
		clone.Nodes = append(clone.Nodes, &n)
	}

	return clone
}
