package email

import (
	"context"

	"github.com/dukex/outreach/pkg/execution"
	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// Message is what the mail transport accepts.
type Message struct {
	To       string `json:"to"`
	ToName   string `json:"to_name"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
}

// Mailer submits a message and returns the transport's message identifier.
type Mailer interface {
	Send(ctx context.Context, message Message) (string, error)
}

type Dispatcher struct {
	mailer Mailer
	settings
}

func NewDispatcher(mailer Mailer, opts ...Option) *Dispatcher {
	return &Dispatcher{
		mailer:   mailer,
		settings: newSettings("email.dispatcher", opts),
	}
}

// Send renders body into the HTML shell and delivers it to lead. On success
// the lead is marked email-sent. Stats are left alone.
func (d *Dispatcher) Send(ctx context.Context, rc *execution.RunContext, lead models.Lead, subject, body string, sender models.SenderIdentity) error {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "email.send",
		attribute.String(otelhelper.RunIDKey, rc.ID),
		attribute.String(otelhelper.LeadNameKey, lead.Name),
		attribute.String(otelhelper.EmailToKey, lead.Email),
	)
	defer span.End()

	if lead.Email == "" {
		return &DeliveryError{Lead: lead.Name, Message: ErrNoRecipient.Error(), Err: ErrNoRecipient}
	}

	sender = d.resolveSender(sender)
	if sender.Email == "" {
		return &DeliveryError{Lead: lead.Name, To: lead.Email, Message: ErrMissingSender.Error(), Err: ErrMissingSender}
	}

	html, err := RenderHTML(lead.Name, body, sender.Name)
	if err != nil {
		otelhelper.SetError(span, err)

		return &DeliveryError{Lead: lead.Name, To: lead.Email, Message: err.Error(), Err: err}
	}

	rc.Journal.Info(ctx, "Sending email to %s", lead.Email)

	messageID, err := d.mailer.Send(ctx, Message{
		To:       lead.Email,
		ToName:   lead.Name,
		From:     sender.Email,
		FromName: sender.Name,
		Subject:  subject,
		HTML:     html,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return &DeliveryError{Lead: lead.Name, To: lead.Email, Message: err.Error(), Err: err}
	}

	if _, err := rc.UpdateLead(ctx, lead, models.LeadStatusEmailSent); err != nil {
		return err
	}

	d.logger.InfoContext(ctx, "email delivered", "lead", lead.Name, "message_id", messageID)
	rc.Journal.Success(ctx, "Email sent successfully to %s", lead.Name)

	return nil
}

func (d *Dispatcher) resolveSender(sender models.SenderIdentity) models.SenderIdentity {
	if sender.Email == "" {
		sender.Email = d.sender.Email
	}

	if sender.Name == "" {
		sender.Name = d.sender.Name
	}

	if sender.Name == "" {
		sender.Name = sender.Email
	}

	return sender
}
