package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/outreach/pkg/email"
	"github.com/dukex/outreach/pkg/telephony"
)

// NewTelephony builds the Vapi adapter. Missing credentials do not stop the
// process: calls fail per lead with the configuration error instead, so
// email-only workflows still run.
func NewTelephony(ctx context.Context, logger *slog.Logger, config telephony.VapiConfig) telephony.Provider {
	provider, err := telephony.NewVapiProvider(config)
	if err != nil {
		logger.WarnContext(ctx, "Telephony provider unavailable, calls will fail", "error", err)

		return unavailableProvider{err: err}
	}

	return provider
}

// NewGenerator builds the Anthropic email writer, or one that always fails
// when no key is configured.
func NewGenerator(ctx context.Context, logger *slog.Logger, config email.AnthropicConfig) email.Generator {
	generator, err := email.NewAnthropicGenerator(config)
	if err != nil {
		logger.WarnContext(ctx, "Email generator unavailable, emails will fail", "error", err)

		return unavailableGenerator{err: err}
	}

	return generator
}

// NewMailer builds the SMTP mailer, or one that always fails when no host is
// configured.
func NewMailer(ctx context.Context, logger *slog.Logger, config email.SMTPConfig) email.Mailer {
	mailer, err := email.NewSMTPMailer(config)
	if err != nil {
		logger.WarnContext(ctx, "Mailer unavailable, emails will fail", "error", err)

		return unavailableMailer{err: err}
	}

	return mailer
}

type unavailableProvider struct {
	err error
}

func (p unavailableProvider) Name() string {
	return "unavailable"
}

func (p unavailableProvider) Dispatch(context.Context, telephony.DispatchRequest) (telephony.DispatchResult, error) {
	return telephony.DispatchResult{}, p.err
}

func (p unavailableProvider) CallStatus(context.Context, string) (telephony.CallStatus, error) {
	return telephony.CallStatus{}, p.err
}

type unavailableGenerator struct {
	err error
}

func (g unavailableGenerator) Generate(context.Context, email.Prompt) (string, error) {
	return "", g.err
}

type unavailableMailer struct {
	err error
}

func (m unavailableMailer) Send(context.Context, email.Message) (string, error) {
	return "", m.err
}
