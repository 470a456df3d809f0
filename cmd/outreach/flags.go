package main

import (
	"github.com/dukex/outreach/pkg/calls"
	"github.com/dukex/outreach/pkg/email"
	"github.com/dukex/outreach/pkg/engine"
	"github.com/dukex/outreach/pkg/telephony"
	cli "github.com/urfave/cli/v3"
)

const defaultDatabaseURL = "file://./data"

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

func senderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "sender-email",
			Usage:   "From address of outreach emails",
			Sources: cli.EnvVars("SENDER_EMAIL"),
		},
		&cli.StringFlag{
			Name:    "sender-name",
			Usage:   "Display name of outreach emails",
			Sources: cli.EnvVars("SENDER_NAME"),
		},
	}
}

// runtimeFlags configure everything a run needs: history storage, event
// publishing, providers and pacing.
func runtimeFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Run history storage URL (file://, postgres://, redis://)",
			Value:   defaultDatabaseURL,
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus for run events (gochannel, kafka). Empty disables publishing",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers for the kafka event bus",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "vapi-api-key",
			Usage:   "Vapi API key",
			Sources: cli.EnvVars("VAPI_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "vapi-phone-number-id",
			Usage:   "Vapi phone number calls are placed from",
			Sources: cli.EnvVars("VAPI_PHONE_NUMBER_ID"),
		},
		&cli.StringFlag{
			Name:    "vapi-assistant-id",
			Usage:   "Vapi assistant that conducts the calls",
			Sources: cli.EnvVars("VAPI_ASSISTANT_ID"),
		},
		&cli.StringFlag{
			Name:    "vapi-base-url",
			Usage:   "Vapi API base URL",
			Value:   telephony.DefaultVapiBaseURL,
			Sources: cli.EnvVars("VAPI_BASE_URL"),
		},
		&cli.StringFlag{
			Name:    "anthropic-api-key",
			Usage:   "Anthropic API key used to write emails",
			Sources: cli.EnvVars("ANTHROPIC_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "anthropic-model",
			Usage:   "Anthropic model used to write emails",
			Value:   string(email.DefaultModel),
			Sources: cli.EnvVars("ANTHROPIC_MODEL"),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host",
			Sources: cli.EnvVars("SMTP_HOST"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Usage:   "SMTP server port",
			Value:   email.DefaultSMTPPort,
			Sources: cli.EnvVars("SMTP_PORT"),
		},
		&cli.StringFlag{
			Name:    "smtp-user",
			Usage:   "SMTP username",
			Sources: cli.EnvVars("SMTP_USER"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.EnvVars("SMTP_PASSWORD"),
		},
		&cli.BoolFlag{
			Name:    "smtp-ssl",
			Usage:   "Use implicit TLS for SMTP",
			Sources: cli.EnvVars("SMTP_SSL"),
		},
		&cli.DurationFlag{
			Name:    "pacing",
			Usage:   "Delay between leads",
			Value:   engine.DefaultPacing,
			Sources: cli.EnvVars("OUTREACH_PACING"),
		},
		&cli.DurationFlag{
			Name:    "poll-interval",
			Usage:   "Delay between call status checks",
			Value:   calls.DefaultPollInterval,
			Sources: cli.EnvVars("OUTREACH_POLL_INTERVAL"),
		},
		&cli.IntFlag{
			Name:    "poll-attempts",
			Usage:   "Call status checks before a call is assumed finished",
			Value:   calls.DefaultMaxAttempts,
			Sources: cli.EnvVars("OUTREACH_POLL_ATTEMPTS"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
			Sources: cli.EnvVars("OUTREACH_TRACING"),
		},
	}

	flags = append(flags, senderFlags()...)

	return append(flags, loggingFlags()...)
}
