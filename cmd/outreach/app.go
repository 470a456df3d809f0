package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/outreach/pkg/calls"
	"github.com/dukex/outreach/pkg/cmd"
	"github.com/dukex/outreach/pkg/email"
	"github.com/dukex/outreach/pkg/engine"
	"github.com/dukex/outreach/pkg/eventbus"
	"github.com/dukex/outreach/pkg/execution"
	"github.com/dukex/outreach/pkg/leads"
	"github.com/dukex/outreach/pkg/log"
	"github.com/dukex/outreach/pkg/metrics"
	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/otelhelper"
	"github.com/dukex/outreach/pkg/persistence"
	"github.com/dukex/outreach/pkg/services"
	"github.com/dukex/outreach/pkg/telephony"
	cli "github.com/urfave/cli/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// outreachApp is the service graph shared by the commands.
type outreachApp struct {
	logger      *slog.Logger
	service     *services.Outreach
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	metrics     *metrics.Collector
	tracer      *sdktrace.TracerProvider
}

func newOutreachApp(ctx context.Context, command *cli.Command, module string) (*outreachApp, error) {
	log.Setup(command.String("log-level"), command.String("log-format"))

	app := &outreachApp{
		logger:  log.WithModule(module),
		metrics: metrics.NewCollector(),
	}

	var tracer trace.Tracer

	if command.Bool("tracing") {
		tp, err := otelhelper.InitTracer(ctx, "outreach")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}

		app.tracer = tp
		tracer = tp.Tracer("outreach")
	}

	db, err := cmd.NewPersistence(ctx, app.logger, command.String("database-url"))
	if err != nil {
		app.Close(ctx)

		return nil, err
	}

	app.persistence = db

	bus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), app.logger)
	if err != nil {
		app.Close(ctx)

		return nil, err
	}

	app.eventBus = bus

	observers := []execution.Observer{app.metrics}
	if bus != nil {
		observers = append(observers, eventbus.NewRunPublisher(bus, app.logger))
	}

	sender := models.SenderIdentity{
		Email: command.String("sender-email"),
		Name:  command.String("sender-name"),
	}

	provider := cmd.NewTelephony(ctx, app.logger, telephony.VapiConfig{
		BaseURL:       command.String("vapi-base-url"),
		APIKey:        command.String("vapi-api-key"),
		PhoneNumberID: command.String("vapi-phone-number-id"),
		AssistantID:   command.String("vapi-assistant-id"),
	})

	generator := cmd.NewGenerator(ctx, app.logger, email.AnthropicConfig{
		APIKey: command.String("anthropic-api-key"),
		Model:  command.String("anthropic-model"),
	})

	mailer := cmd.NewMailer(ctx, app.logger, email.SMTPConfig{
		Host:     command.String("smtp-host"),
		Port:     command.Int("smtp-port"),
		Username: command.String("smtp-user"),
		Password: command.String("smtp-password"),
		SSL:      command.Bool("smtp-ssl"),
	})

	store := leads.NewStore()

	eng := engine.New(store,
		calls.NewOrchestrator(provider,
			calls.WithPollInterval(command.Duration("poll-interval")),
			calls.WithMaxAttempts(command.Int("poll-attempts")),
			calls.WithAssistantID(command.String("vapi-assistant-id")),
			calls.WithLogger(app.logger),
			calls.WithTracer(tracer),
		),
		email.NewComposer(generator, email.WithLogger(app.logger), email.WithTracer(tracer)),
		email.NewDispatcher(mailer,
			email.WithLogger(app.logger),
			email.WithTracer(tracer),
			email.WithDefaultSender(sender),
		),
		engine.WithPacing(command.Duration("pacing")),
		engine.WithHistory(db.RunRepository()),
		engine.WithLogger(app.logger),
		engine.WithTracer(tracer),
		engine.WithObservers(observers...),
	)

	app.service = services.NewOutreach(store, eng, db)

	if sender.Email != "" || sender.Name != "" {
		if err := app.service.SetSender(sender); err != nil {
			app.Close(ctx)

			return nil, err
		}
	}

	return app, nil
}

// Close releases the event bus, the persistence layer and the tracer.
func (a *outreachApp) Close(ctx context.Context) {
	var errs []error

	if a.eventBus != nil {
		errs = append(errs, a.eventBus.Close())
	}

	if a.persistence != nil {
		errs = append(errs, a.persistence.Close(ctx))
	}

	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.ErrorContext(ctx, "Failed to shut down cleanly", "error", err)
	}
}
