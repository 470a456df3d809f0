package main

import (
	"context"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "outreach",
		Usage:                 "Run AI call and email outreach workflows over a list of leads",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewServeCommand(),
			NewRunCommand(),
			NewValidateCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		slog.Error("outreach failed", "error", err)
		os.Exit(1)
	}
}
