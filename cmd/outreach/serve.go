package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukex/outreach/pkg/scheduler"
	"github.com/dukex/outreach/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort     = 9091
	shutdownTimeout = 30 * time.Second
)

func NewServeCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "schedule",
			Usage:   "Cron expression for scheduled runs (e.g. \"0 9 * * 1-5\")",
			Sources: cli.EnvVars("OUTREACH_SCHEDULE"),
		},
		&cli.BoolFlag{
			Name:    "follow",
			Usage:   "Log every run event read back from the event bus",
			Sources: cli.EnvVars("OUTREACH_FOLLOW"),
		},
	}

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the outreach HTTP API",
		Flags: append(flags, runtimeFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			app, err := newOutreachApp(ctx, command, "api")
			if err != nil {
				return err
			}
			defer app.Close(context.WithoutCancel(ctx))

			app.logger.InfoContext(ctx, "Initializing Outreach API")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if command.Bool("follow") {
				if app.eventBus == nil {
					return errors.New("--follow requires an event bus, set --event-bus")
				}

				if err := followEvents(ctx, app.eventBus, app.logger); err != nil {
					return err
				}
			}

			if expr := command.String("schedule"); expr != "" {
				sched, err := scheduler.New(expr, app.service, services.IsConflictError, app.logger)
				if err != nil {
					return err
				}

				if err := sched.Start(ctx); err != nil {
					return err
				}

				defer func() {
					if err := sched.Stop(context.WithoutCancel(ctx)); err != nil {
						app.logger.ErrorContext(ctx, "Failed to stop scheduler", "error", err)
					}
				}()
			}

			return serve(ctx, app, command.Int("port"))
		},
	}
}

// serve runs the API until ctx is cancelled, then cancels any active run and
// drains in-flight requests.
func serve(ctx context.Context, app *outreachApp, port int) error {
	server := NewAPI(app.logger, app.service, app.metrics).App()

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Listen(":" + strconv.Itoa(port))
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server stopped: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info("Shutting down Outreach API")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if app.service.CancelRun() {
		if err := app.service.Wait(shutdownCtx); err != nil {
			app.logger.Warn("Active run did not stop in time", "error", err)
		}
	}

	return server.ShutdownWithContext(shutdownCtx)
}
