package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dukex/outreach/pkg/graph"
	"github.com/dukex/outreach/pkg/models"
	cli "github.com/urfave/cli/v3"
)

var ErrMissingWorkflowFile = errors.New("a workflow definition file is required")

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a workflow definition and print what a run would do",
		ArgsUsage: "<workflow.json>",
		Flags:     append(senderFlags(), loggingFlags()...),
		Action: func(_ context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return ErrMissingWorkflowFile
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read workflow: %w", err)
			}

			sender := models.SenderIdentity{
				Email: command.String("sender-email"),
				Name:  command.String("sender-name"),
			}

			description, err := describePlan(data, sender)
			if err != nil {
				return cli.Exit(validationMessage(err), exitValidation)
			}

			_, _ = fmt.Fprintln(command.Root().Writer, description)

			return nil
		},
	}
}

func describePlan(data []byte, sender models.SenderIdentity) (string, error) {
	workflow, err := graph.ParseDefinition(data)
	if err != nil {
		return "", err
	}

	plan, err := graph.Validate(workflow, sender)
	if err != nil {
		return "", err
	}

	name := workflow.Name
	if name == "" {
		name = workflow.ID
	}

	steps := "call each lead"

	switch {
	case plan.DoCall && plan.DoEmail:
		steps = "call each lead, then email a follow-up after a completed call"
	case plan.IsColdOutreach():
		steps = "email each lead without calling"
	}

	return fmt.Sprintf("Workflow %q is valid (%s): %s", name, plan, steps), nil
}
