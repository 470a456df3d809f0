// Package engine drives an outreach run: it validates the workflow, walks
// the pending leads one at a time and records stats and the execution log.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/outreach/pkg/calls"
	"github.com/dukex/outreach/pkg/email"
	"github.com/dukex/outreach/pkg/execution"
	"github.com/dukex/outreach/pkg/graph"
	"github.com/dukex/outreach/pkg/leads"
	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/otelhelper"
	"github.com/dukex/outreach/pkg/persistence"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPacing = 5 * time.Second
	historyLimit  = 50
)

var (
	ErrRunInProgress = errors.New("a workflow run is already in progress")
	ErrNoLeads       = errors.New("no leads found")
)

func IsRunInProgress(err error) bool {
	return errors.Is(err, ErrRunInProgress) || leads.IsRunActive(err)
}

// Caller places a call for one lead and resolves it.
type Caller interface {
	Call(ctx context.Context, rc *execution.RunContext, lead models.Lead) (calls.Outcome, error)
}

// Composer drafts email copy.
type Composer interface {
	Compose(ctx context.Context, lead models.Lead, hasCallContext bool, transcript, summary string) (string, error)
}

// Sender delivers a drafted email.
type Sender interface {
	Send(ctx context.Context, rc *execution.RunContext, lead models.Lead, subject, body string, sender models.SenderIdentity) error
}

type Engine struct {
	mu      sync.Mutex
	state   models.RunState
	current *execution.RunContext
	cancel  context.CancelFunc
	done    chan struct{}

	store    *leads.Store
	journal  *execution.Journal
	caller   Caller
	composer Composer
	sender   Sender
	history  persistence.RunRepository

	clock     clockwork.Clock
	pacing    time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer
	observers []execution.Observer
}

type Option func(*Engine)

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

func WithPacing(pacing time.Duration) Option {
	return func(e *Engine) {
		if pacing >= 0 {
			e.pacing = pacing
		}
	}
}

// WithHistory archives every finished run in repo.
func WithHistory(repo persistence.RunRepository) Option {
	return func(e *Engine) { e.history = repo }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

func WithObservers(observers ...execution.Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, observers...) }
}

func New(store *leads.Store, caller Caller, composer Composer, sender Sender, opts ...Option) *Engine {
	e := &Engine{
		state:    models.RunStateIdle,
		store:    store,
		caller:   caller,
		composer: composer,
		sender:   sender,
		clock:    clockwork.NewRealClock(),
		pacing:   DefaultPacing,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With("module", "engine")
	e.tracer = otelhelper.OrNoop(e.tracer)
	e.journal = execution.NewJournal(e.clock, e.logger, e.observers...)

	return e
}

// Run validates the workflow and processes every pending lead before
// returning the archived record of the run.
func (e *Engine) Run(ctx context.Context, workflow *models.Workflow, sender models.SenderIdentity) (*models.RunRecord, error) {
	rc, done, err := e.prepare(ctx, workflow, sender)
	if err != nil {
		return nil, err
	}

	return e.execute(ctx, rc, done), nil
}

// Start validates the workflow like Run and then processes the leads in the
// background. It returns the run id.
func (e *Engine) Start(ctx context.Context, workflow *models.Workflow, sender models.SenderIdentity) (string, error) {
	rc, done, err := e.prepare(ctx, workflow, sender)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	go func() {
		defer cancel()

		e.execute(runCtx, rc, done)
	}()

	return rc.ID, nil
}

// Cancel asks the active background run to stop after the current wait.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != models.RunStateRunning || e.cancel == nil {
		return false
	}

	e.cancel()

	return true
}

// Wait blocks until the active run, if any, has finished.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) prepare(ctx context.Context, workflow *models.Workflow, sender models.SenderIdentity) (*execution.RunContext, chan struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == models.RunStateRunning {
		return nil, nil, ErrRunInProgress
	}

	// Reported in order: trigger, action, leads, then email settings.
	plan, err := graph.Validate(workflow, sender)
	if err != nil && !errors.Is(err, graph.ErrMissingEmailConfig) {
		e.journal.Error(ctx, "%s", graph.Reason(err))

		return nil, nil, err
	}

	if e.store.Len() == 0 {
		e.journal.Error(ctx, "No leads found. Please upload a CSV file or add leads manually")

		return nil, nil, ErrNoLeads
	}

	if err != nil {
		e.journal.Error(ctx, "%s", graph.Reason(err))

		return nil, nil, err
	}

	if err := e.store.BeginRun(); err != nil {
		return nil, nil, err
	}

	rc := &execution.RunContext{
		ID:      uuid.NewString(),
		Plan:    plan,
		Sender:  sender,
		Leads:   e.store.PendingSnapshot(),
		Store:   e.store,
		Journal: e.journal,
	}

	if workflow != nil {
		rc.WorkflowName = workflow.Name
	}

	e.journal.Begin(rc.ID, len(rc.Leads))
	e.journal.Started(ctx, rc.WorkflowName, rc.Plan)

	e.state = models.RunStateRunning
	e.current = rc
	e.cancel = nil
	e.done = make(chan struct{})

	return rc, e.done, nil
}

func (e *Engine) execute(ctx context.Context, rc *execution.RunContext, done chan struct{}) *models.RunRecord {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.run",
		attribute.String(otelhelper.RunIDKey, rc.ID),
		attribute.String(otelhelper.WorkflowNameKey, rc.WorkflowName),
		attribute.String(otelhelper.PlanKey, rc.Plan.String()),
	)
	defer span.End()

	startedAt := e.clock.Now()

	rc.Journal.Info(ctx, "Starting workflow execution...")

	cancelled := e.processLeads(ctx, rc)
	if cancelled {
		rc.Journal.Warn(ctx, "Workflow execution cancelled")
	} else {
		rc.Journal.Success(ctx, "Workflow execution completed!")
	}

	record := &models.RunRecord{
		ID:           rc.ID,
		WorkflowName: rc.WorkflowName,
		Plan:         rc.Plan,
		StartedAt:    startedAt,
		FinishedAt:   e.clock.Now(),
		Stats:        rc.Journal.Stats(),
		Leads:        e.runLeads(rc),
		Log:          rc.Journal.Entries(),
		Cancelled:    cancelled,
	}

	e.archive(context.WithoutCancel(ctx), record)
	rc.Journal.Finished(context.WithoutCancel(ctx), record)

	e.mu.Lock()
	e.state = models.RunStateIdle
	e.current = nil
	e.cancel = nil
	e.store.EndRun()
	close(done)
	e.mu.Unlock()

	return record
}

// processLeads walks the snapshot in order and reports whether the run was
// cancelled before every lead was processed.
func (e *Engine) processLeads(ctx context.Context, rc *execution.RunContext) bool {
	total := len(rc.Leads)

	for i, lead := range rc.Leads {
		if ctx.Err() != nil {
			return true
		}

		rc.Journal.Info(ctx, "Processing lead %d/%d: %s", i+1, total, lead.Name)

		if err := e.processLead(ctx, rc, lead); err != nil {
			if ctx.Err() != nil {
				return true
			}

			rc.Journal.Error(ctx, "Error processing %s: %s", lead.Name, err.Error())
		}

		if i == total-1 || e.pacing == 0 {
			continue
		}

		rc.Journal.Info(ctx, "Waiting %s before next lead...", formatPacing(e.pacing))

		select {
		case <-ctx.Done():
			return true
		case <-e.clock.After(e.pacing):
		}
	}

	return false
}

func (e *Engine) processLead(ctx context.Context, rc *execution.RunContext, lead models.Lead) error {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.lead",
		attribute.String(otelhelper.RunIDKey, rc.ID),
		attribute.String(otelhelper.LeadNameKey, lead.Name),
	)
	defer span.End()

	if rc.Plan.IsColdOutreach() {
		return e.coldOutreach(ctx, rc, lead)
	}

	outcome, err := e.caller.Call(ctx, rc, lead)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	if !rc.Plan.DoEmail {
		return nil
	}

	if !outcome.Succeeded() {
		rc.Journal.Warn(ctx, "Skipping email for %s - call failed", lead.Name)

		return nil
	}

	if lead.Email == "" {
		rc.Journal.Warn(ctx, "Skipping email for %s - no email address", lead.Name)

		return nil
	}

	rc.Journal.Success(ctx, "Call completed - proceeding to send follow-up email")

	if err := e.sendEmail(ctx, rc, lead, true, outcome.Transcript, outcome.Summary); err != nil {
		rc.Journal.Error(ctx, "Failed to send email to %s: %s", lead.Name, emailErrorMessage(err))
	}

	return nil
}

// coldOutreach emails a lead without a prior call. The lead counts as
// completed only when the email went out.
func (e *Engine) coldOutreach(ctx context.Context, rc *execution.RunContext, lead models.Lead) error {
	if lead.Email == "" {
		rc.Journal.Warn(ctx, "Skipping %s - no email address", lead.Name)

		if _, err := rc.UpdateLead(ctx, lead, models.LeadStatusFailed); err != nil {
			return err
		}

		rc.Journal.FailLead(ctx, false)

		return nil
	}

	rc.Journal.Info(ctx, "Sending cold outreach email to %s", lead.Name)

	if err := e.sendEmail(ctx, rc, lead, false, "", ""); err != nil {
		rc.Journal.Error(ctx, "Failed to send email to %s: %s", lead.Name, emailErrorMessage(err))

		if _, updateErr := rc.UpdateLead(ctx, lead, models.LeadStatusFailed); updateErr != nil {
			return updateErr
		}

		rc.Journal.FailLead(ctx, false)

		return nil
	}

	rc.Journal.CompleteLead(ctx, false)

	return nil
}

func (e *Engine) sendEmail(ctx context.Context, rc *execution.RunContext, lead models.Lead, hasCallContext bool, transcript, summary string) error {
	kind := "outreach"
	if hasCallContext {
		kind = "follow-up"
	}

	rc.Journal.Info(ctx, "Generating %s email for %s", kind, lead.Name)

	body, err := e.composer.Compose(ctx, lead, hasCallContext, transcript, summary)
	if err != nil {
		return err
	}

	return e.sender.Send(ctx, rc, lead, email.Subject(lead, hasCallContext), body, rc.Sender)
}

func (e *Engine) runLeads(rc *execution.RunContext) []models.Lead {
	out := make([]models.Lead, 0, len(rc.Leads))

	for _, lead := range rc.Leads {
		if current, ok := e.store.Get(lead.Key()); ok {
			out = append(out, current)
		}
	}

	return out
}

func (e *Engine) archive(ctx context.Context, record *models.RunRecord) {
	if e.history == nil {
		return
	}

	if err := e.history.Save(ctx, record); err != nil {
		e.logger.ErrorContext(ctx, "failed to archive run", "run_id", record.ID, "error", err)
	}
}

// State reports whether a run is active.
func (e *Engine) State() models.RunState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// CurrentRunID returns the id of the active run, or "".
func (e *Engine) CurrentRunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return ""
	}

	return e.current.ID
}

func (e *Engine) Stats() models.Stats {
	return e.journal.Stats()
}

func (e *Engine) Log() []models.LogEntry {
	return e.journal.Entries()
}

func (e *Engine) ClearLog() {
	e.journal.Clear()
}

// Reset puts every lead back to pending and clears the log and stats.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == models.RunStateRunning {
		return ErrRunInProgress
	}

	if err := e.store.Reset(); err != nil {
		return err
	}

	e.journal.Clear()
	e.journal.ResetStats()

	return nil
}

// History returns archived runs, newest first.
func (e *Engine) History(ctx context.Context) ([]*models.RunRecord, error) {
	if e.history == nil {
		return []*models.RunRecord{}, nil
	}

	runs, err := e.history.GetAll(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load run history: %w", err)
	}

	return runs, nil
}

// RunByID returns one archived run.
func (e *Engine) RunByID(ctx context.Context, id string) (*models.RunRecord, error) {
	if e.history == nil {
		return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
	}

	return e.history.GetByID(ctx, id)
}

// AddObserver registers an observer on the run journal.
func (e *Engine) AddObserver(observer execution.Observer) {
	e.journal.AddObserver(observer)
}

func emailErrorMessage(err error) string {
	var deliveryErr *email.DeliveryError
	if errors.As(err, &deliveryErr) {
		return deliveryErr.Message
	}

	var compositionErr *email.CompositionError
	if errors.As(err, &compositionErr) {
		return "Failed to generate email content"
	}

	return err.Error()
}

func formatPacing(d time.Duration) string {
	if d%time.Second == 0 {
		seconds := int(d / time.Second)
		if seconds == 1 {
			return "1 second"
		}

		return fmt.Sprintf("%d seconds", seconds)
	}

	return d.String()
}
