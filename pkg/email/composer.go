// Package email composes outreach emails with a language model and delivers
// them through a mail transport.
package email

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Generator turns a prompt into email copy.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

type settings struct {
	logger *slog.Logger
	tracer trace.Tracer
	sender models.SenderIdentity
}

type Option func(*settings)

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *settings) { s.tracer = tracer }
}

// WithDefaultSender fills in sender fields a run leaves empty.
func WithDefaultSender(sender models.SenderIdentity) Option {
	return func(s *settings) { s.sender = sender }
}

func newSettings(module string, opts []Option) settings {
	s := settings{logger: slog.Default()}

	for _, opt := range opts {
		opt(&s)
	}

	s.logger = s.logger.With("module", module)
	s.tracer = otelhelper.OrNoop(s.tracer)

	return s
}

type Composer struct {
	generator Generator
	settings
}

func NewComposer(generator Generator, opts ...Option) *Composer {
	return &Composer{
		generator: generator,
		settings:  newSettings("email.composer", opts),
	}
}

// Compose generates the email body for lead. With call context the copy
// follows up on the conversation, otherwise it is a cold outreach email.
func (c *Composer) Compose(ctx context.Context, lead models.Lead, hasCallContext bool, transcript, summary string) (string, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "email.compose",
		attribute.String(otelhelper.LeadNameKey, lead.Name),
		attribute.Bool("outreach.email.follow_up", hasCallContext),
	)
	defer span.End()

	prompt := BuildPrompt(lead, hasCallContext, transcript, summary)

	body, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		otelhelper.SetError(span, err)
		c.logger.ErrorContext(ctx, "email generation failed", "lead", lead.Name, "error", err)

		return "", &CompositionError{Lead: lead.Name, Err: err}
	}

	body = strings.TrimSpace(body)
	if body == "" {
		otelhelper.SetError(span, ErrEmptyBody)

		return "", &CompositionError{Lead: lead.Name, Err: ErrEmptyBody}
	}

	c.logger.DebugContext(ctx, "email generated", "lead", lead.Name, "follow_up", hasCallContext, "length", len(body))

	return body, nil
}
