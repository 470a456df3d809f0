package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/outreach/pkg/graph"
	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/services"
	cli "github.com/urfave/cli/v3"
)

// exitValidation is the exit code of a run that failed validation.
const exitValidation = 2

var ErrMissingLeadsFile = errors.New("a leads CSV file is required")

func NewRunCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "workflow",
			Aliases: []string{"w"},
			Usage:   "Workflow definition JSON file. Defaults to call then email",
		},
		&cli.StringFlag{
			Name:    "leads",
			Aliases: []string{"l"},
			Usage:   "Leads CSV file with Name, Phone and Email columns",
		},
	}

	return &cli.Command{
		Name:      "run",
		Usage:     "Run a workflow once over a leads CSV and print the result",
		ArgsUsage: "[leads.csv]",
		Flags:     append(flags, runtimeFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			leadsPath := command.String("leads")
			if leadsPath == "" {
				leadsPath = command.Args().First()
			}

			if leadsPath == "" {
				return ErrMissingLeadsFile
			}

			app, err := newOutreachApp(ctx, command, "run")
			if err != nil {
				return err
			}
			defer app.Close(context.WithoutCancel(ctx))

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := command.Root().Writer

			record, err := runOnce(ctx, app.service, command.String("workflow"), leadsPath, out)
			if err != nil {
				if services.IsValidationError(err) {
					return cli.Exit(validationMessage(err), exitValidation)
				}

				return err
			}

			printRun(out, record)

			return nil
		},
	}
}

// runOnce loads the workflow and leads into service and runs to completion.
func runOnce(ctx context.Context, service *services.Outreach, workflowPath, leadsPath string, out io.Writer) (*models.RunRecord, error) {
	if workflowPath != "" {
		data, err := os.ReadFile(workflowPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read workflow: %w", err)
		}

		if _, err := service.ParseWorkflow(data); err != nil {
			return nil, err
		}
	}

	file, err := os.Open(leadsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open leads: %w", err)
	}
	defer file.Close()

	result, err := service.ImportLeads(file)
	if err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintf(out, "Imported %d leads (%d invalid, %d skipped)\n", len(result.Leads), result.Invalid, result.Skipped)

	return service.Run(ctx)
}

func validationMessage(err error) string {
	if graph.IsValidationError(err) {
		return graph.Reason(err)
	}

	return err.Error()
}

func printRun(w io.Writer, record *models.RunRecord) {
	for _, entry := range record.Log {
		_, _ = fmt.Fprintf(w, "%s [%s] %s\n", entry.Timestamp.Format("15:04:05"), entry.Severity, entry.Message)
	}

	_, _ = fmt.Fprintln(w)

	for _, lead := range record.Leads {
		_, _ = fmt.Fprintf(w, "%-24s %-12s %s\n", lead.Name, lead.Status, lead.Email)
	}

	stats := record.Stats
	_, _ = fmt.Fprintf(w, "\nRun %s (%s): %d total, %d completed, %d failed",
		record.ID, record.Plan, stats.Total, stats.Completed, stats.Failed)

	if record.Cancelled {
		_, _ = fmt.Fprint(w, ", cancelled")
	}

	_, _ = fmt.Fprintln(w)
}
