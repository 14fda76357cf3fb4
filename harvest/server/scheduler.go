package server

import (
	"context"
)

type Scheduler interface {
	// Init stops everything known, re-enumerates workers and targets and deploys the job programs.
	Init(ctx context.Context) error

	// Cleanup stops every job of every kind on every known (worker, target) pair.
	Cleanup(ctx context.Context) error

	DeployToWorkers(ctx context.Context) error

	// QueueWork lets every job queue emit its next batch.
	QueueWork()

	// Run is one admission, dispatch and completion cycle.
	Run(ctx context.Context) error

	// Step is QueueWork followed by Run.
	Step(ctx context.Context) error

	// Loop steps at the configured tick rate until ctx is done, handing a report to onStep after each step.
	Loop(ctx context.Context, onStep func(Report)) error

	CanBoost() bool

	Report() Report
}
