// Package calls places one outbound AI call per lead and resolves it to a
// terminal outcome by polling the telephony provider.
package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/outreach/pkg/execution"
	"github.com/dukex/outreach/pkg/leads"
	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/otelhelper"
	"github.com/dukex/outreach/pkg/telephony"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 60
)

// Result is the resolved state of a call.
type Result int

const (
	ResultFailure Result = iota
	ResultSuccess
)

func (r Result) String() string {
	if r == ResultSuccess {
		return "success"
	}

	return "failure"
}

// Outcome is what the engine needs to decide on the follow-up email.
type Outcome struct {
	Result      Result
	CallID      string
	Status      telephony.Status
	Transcript  string
	Summary     string
	Attempts    int
	Provisional bool  // attempt budget ran out before a terminal status
	Err         error // dispatch error, when the call was never placed
}

func (o Outcome) Succeeded() bool {
	return o.Result == ResultSuccess
}

type Orchestrator struct {
	provider    telephony.Provider
	clock       clockwork.Clock
	interval    time.Duration
	maxAttempts int
	assistantID string
	logger      *slog.Logger
	tracer      trace.Tracer
}

type Option func(*Orchestrator)

func WithClock(clock clockwork.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

func WithPollInterval(interval time.Duration) Option {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.interval = interval
		}
	}
}

func WithMaxAttempts(attempts int) Option {
	return func(o *Orchestrator) {
		if attempts > 0 {
			o.maxAttempts = attempts
		}
	}
}

func WithAssistantID(id string) Option {
	return func(o *Orchestrator) { o.assistantID = id }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = tracer }
}

func NewOrchestrator(provider telephony.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:    provider,
		clock:       clockwork.NewRealClock(),
		interval:    DefaultPollInterval,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	o.tracer = otelhelper.OrNoop(o.tracer)
	o.logger = o.logger.With("module", "calls", "provider", provider.Name())

	return o
}

// Call takes an in-progress slot for lead, places the call and waits for
// its outcome. A refused dispatch resolves the lead as failed. The returned
// error is only set when the run itself cannot continue.
func (o *Orchestrator) Call(ctx context.Context, rc *execution.RunContext, lead models.Lead) (Outcome, error) {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "calls.call",
		attribute.String(otelhelper.RunIDKey, rc.ID),
		attribute.String(otelhelper.LeadNameKey, lead.Name),
		attribute.String(otelhelper.ProviderKey, o.provider.Name()),
	)
	defer span.End()

	rc.Journal.StartLead(ctx)

	callID, err := o.PlaceCall(ctx, rc, lead)
	if err != nil {
		otelhelper.SetError(span, err)

		var dispatchErr *DispatchError
		if !errors.As(err, &dispatchErr) {
			return Outcome{}, err
		}

		if failErr := o.fail(ctx, rc, lead, dispatchErr.Message); failErr != nil {
			return Outcome{}, failErr
		}

		return Outcome{Result: ResultFailure, Err: err}, nil
	}

	span.SetAttributes(attribute.String(otelhelper.CallIDKey, callID))

	outcome, err := o.AwaitOutcome(ctx, rc, callID, lead)
	if err != nil {
		otelhelper.SetError(span, err)

		return outcome, err
	}

	span.SetAttributes(attribute.String(otelhelper.CallStatusKey, string(outcome.Status)))

	return outcome, nil
}

// PlaceCall dispatches the call and marks the lead as calling.
func (o *Orchestrator) PlaceCall(ctx context.Context, rc *execution.RunContext, lead models.Lead) (string, error) {
	number := lead.DialNumber()

	rc.Journal.Info(ctx, "Initiating call to %s...", lead.Name)
	rc.Journal.Info(ctx, "Dialing %s at %s", lead.Name, number)

	result, err := o.provider.Dispatch(ctx, telephony.DispatchRequest{
		ToNumber:     number,
		AssistantRef: o.assistantID,
	})
	if err != nil {
		o.logger.WarnContext(ctx, "dispatch failed", "lead", lead.Name, "error", err)

		return "", newDispatchError(lead.Name, number, err)
	}

	if _, err := rc.UpdateLead(ctx, lead, models.LeadStatusCalling); err != nil {
		return "", err
	}

	rc.Journal.Success(ctx, "Call connected - Call ID: %s", result.CallID)

	return result.CallID, nil
}

// AwaitOutcome polls the call every interval until a terminal status or the
// attempt budget runs out. Poll errors consume an attempt. Running out of
// attempts is treated as a provisional success.
func (o *Orchestrator) AwaitOutcome(ctx context.Context, rc *execution.RunContext, callID string, lead models.Lead) (Outcome, error) {
	rc.Journal.Info(ctx, "Call in progress with %s...", lead.Name)

	outcome := Outcome{CallID: callID}

	for outcome.Attempts < o.maxAttempts {
		select {
		case <-ctx.Done():
			outcome.Result = ResultFailure
			rc.Journal.Warn(ctx, "Call monitoring for %s cancelled", lead.Name)

			if err := o.fail(context.WithoutCancel(ctx), rc, lead, "monitoring cancelled"); err != nil {
				return outcome, err
			}

			return outcome, ctx.Err()
		case <-o.clock.After(o.interval):
		}

		outcome.Attempts++

		status, err := o.provider.CallStatus(ctx, callID)
		if err != nil {
			o.logger.WarnContext(ctx, "call status check failed",
				"call_id", callID, "attempt", outcome.Attempts, "error", err)

			continue
		}

		outcome.Status = status.Status

		if !status.Status.IsTerminal() {
			continue
		}

		o.logger.InfoContext(ctx, "call ended",
			"call_id", callID,
			"status", status.Status,
			"duration", status.Duration,
			"ended_reason", status.EndedReason,
		)

		if status.Status.IsFailure() {
			outcome.Result = ResultFailure

			return outcome, o.fail(ctx, rc, lead, "")
		}

		outcome.Result = ResultSuccess
		outcome.Transcript = status.Transcript
		outcome.Summary = status.Summary

		return outcome, o.complete(ctx, rc, lead, outcome)
	}

	rc.Journal.Warn(ctx, "Call status check timeout for %s - marking as completed", lead.Name)

	outcome.Result = ResultSuccess
	outcome.Provisional = true

	return outcome, o.complete(ctx, rc, lead, outcome)
}

// complete and fail record the terminal transition of a lead. Each is
// called once per lead per run.
func (o *Orchestrator) complete(ctx context.Context, rc *execution.RunContext, lead models.Lead, outcome Outcome) error {
	if _, err := rc.UpdateLead(ctx, lead, models.LeadStatusCompleted,
		leads.WithCallDetails(outcome.Transcript, outcome.Summary)); err != nil {
		return fmt.Errorf("failed to record call outcome: %w", err)
	}

	rc.Journal.CompleteLead(ctx, true)
	rc.Journal.Success(ctx, "Call completed for %s", lead.Name)

	return nil
}

func (o *Orchestrator) fail(ctx context.Context, rc *execution.RunContext, lead models.Lead, detail string) error {
	if _, err := rc.UpdateLead(ctx, lead, models.LeadStatusFailed); err != nil {
		return fmt.Errorf("failed to record call outcome: %w", err)
	}

	rc.Journal.FailLead(ctx, true)

	if detail != "" {
		rc.Journal.Error(ctx, "Call failed for %s: %s", lead.Name, detail)
	} else {
		rc.Journal.Error(ctx, "Call failed for %s", lead.Name)
	}

	return nil
}
