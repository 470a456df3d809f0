// Package scheduler starts outreach runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrMissingExpression = errors.New("schedule cron expression is required")

// Runner starts a run in the background and returns its id.
type Runner interface {
	HasPendingLeads() bool
	StartRun(ctx context.Context) (string, error)
}

type Scheduler struct {
	CronExpr string

	cron       *cron.Cron
	runner     Runner
	isConflict func(error) bool
	logger     *slog.Logger
}

// New validates expr, a standard five-field cron expression. isConflict
// reports errors that mean a run is already active; those ticks are skipped
// with a warning.
func New(expr string, runner Runner, isConflict func(error) bool, logger *slog.Logger) (*Scheduler, error) {
	if err := Validate(expr); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	if isConflict == nil {
		isConflict = func(error) bool { return false }
	}

	return &Scheduler{
		CronExpr:   expr,
		runner:     runner,
		isConflict: isConflict,
		logger:     logger.With("module", "scheduler", "cron", expr),
	}, nil
}

func Validate(expr string) error {
	if expr == "" {
		return ErrMissingExpression
	}

	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

// Next returns the first activation after from.
func (s *Scheduler) Next(from time.Time) time.Time {
	schedule, err := cron.ParseStandard(s.CronExpr)
	if err != nil {
		return time.Time{}
	}

	return schedule.Next(from)
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting scheduler")

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := s.cron.AddFunc(s.CronExpr, func() { s.Fire(context.WithoutCancel(ctx)) })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.logger.InfoContext(ctx, "Added cron job", "id", id, "next", s.Next(time.Now()))
	s.cron.Start()

	return nil
}

// Fire starts one scheduled run. Ticks with no pending leads are skipped.
func (s *Scheduler) Fire(ctx context.Context) {
	s.logger.InfoContext(ctx, "Cron job triggered")

	if !s.runner.HasPendingLeads() {
		s.logger.InfoContext(ctx, "Skipping scheduled run, no pending leads")

		return
	}

	runID, err := s.runner.StartRun(ctx)

	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "Scheduled run started", "run_id", runID)
	case s.isConflict(err):
		s.logger.WarnContext(ctx, "Skipping scheduled run, a run is already in progress")
	default:
		s.logger.ErrorContext(ctx, "Scheduled run could not start", "error", err)
	}
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping scheduler")

	if s.cron == nil {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
