package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eduhub/processing-be/internal/notify"
	"github.com/eduhub/processing-be/internal/resilience"
	"github.com/eduhub/processing-be/internal/worker/domain"
	"github.com/eduhub/processing-be/shared/metrics"
)

// Step is one named unit of a job's processing sequence
type Step struct {
	Name string
	// Timeout bounds the step including its retries; 0 means unbounded.
	// Set it wherever the upstream dependency may hang.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// StepBuilder plans the ordered steps for a claimed job
type StepBuilder func(job *domain.Job) ([]Step, error)

// StatusStore is the slice of worker storage the runner needs
type StatusStore interface {
	ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, errorMsg string) error
}

// Runner drives a job through its status machine: the claim persists
// processing, the steps run strictly in order under the retry policy, and
// exactly one terminal status is persisted at the end. Terminal status
// writes that fail are logged and swallowed; the persisted status and the
// actual outcome may diverge until the next successful write.
type Runner struct {
	store    StatusStore
	notifier notify.Notifier
	policy   resilience.Policy
	logger   *slog.Logger
	workerID string
}

// NewRunner creates a runner for one worker identity
func NewRunner(store StatusStore, notifier notify.Notifier, policy resilience.Policy, logger *slog.Logger, workerID string) *Runner {
	return &Runner{
		store:    store,
		notifier: notifier,
		policy:   policy,
		logger:   logger,
		workerID: workerID,
	}
}

// Run claims the job, executes its steps in order, and persists the outcome.
// A step that fails terminally (or exhausts its retries) stops the sequence:
// later steps never run and the returned error is a *domain.JobFailedError
// naming the step.
func (r *Runner) Run(ctx context.Context, jobID string, build StepBuilder) (*domain.Job, error) {
	// The pending->processing write doubles as the claim; if it fails the
	// job is not ours and no step may run.
	job, err := r.store.ClaimJob(ctx, jobID, r.workerID)
	if err != nil {
		return nil, err
	}

	logger := r.logger.With(
		slog.String("job_id", job.JobID),
		slog.String("job_type", job.JobType),
	)

	start := time.Now()

	steps, err := build(job)
	if err != nil {
		return job, r.fail(ctx, logger, job, "prepare", err)
	}

	for _, step := range steps {
		logger.Info("Running job step", slog.String("step", step.Name))

		if err := r.runStep(ctx, logger, job, step); err != nil {
			if errors.Is(err, resilience.ErrTimedOut) {
				metrics.IncStepTimeout(step.Name)
				r.notifier.Notify(ctx, notify.KindError,
					"Processing timed out",
					fmt.Sprintf("Step %q did not finish in time", step.Name))
			}
			return job, r.fail(ctx, logger, job, step.Name, err)
		}
	}

	if err := r.store.MarkCompleted(ctx, job.JobID); err != nil {
		logger.Error("Failed to persist completed status",
			slog.String("error", err.Error()),
		)
	}

	metrics.IncJobFinished(domain.JobStatusCompleted)
	metrics.ObserveJobDuration(job.JobType, time.Since(start).Seconds())
	logger.Info("Job completed",
		slog.Duration("duration", time.Since(start)),
	)

	return job, nil
}

// runStep executes one step under the retry policy and, when configured,
// under a time budget covering the whole retry loop. A fired timeout
// cancels the attempt context, so the retrier stops instead of retrying
// the timeout itself.
func (r *Runner) runStep(ctx context.Context, logger *slog.Logger, job *domain.Job, step Step) error {
	// The hook only logs and counts; a retried attempt surfaces nothing
	// to the caller.
	onRetry := func(attempt int, err error, delay time.Duration) {
		metrics.IncStepRetry(step.Name)
		logger.Warn("Step attempt failed, retrying",
			slog.String("step", step.Name),
			slog.Int("attempt", attempt),
			slog.Duration("retry_after", delay),
			slog.String("error", err.Error()),
		)
	}

	attempt := func(ctx context.Context) error {
		return resilience.Do(ctx, r.policy, step.Run, onRetry)
	}

	if step.Timeout > 0 {
		return resilience.RunWithTimeout(ctx, step.Timeout, attempt)
	}
	return attempt(ctx)
}

// fail persists the failed status and wraps the cause with job context
func (r *Runner) fail(ctx context.Context, logger *slog.Logger, job *domain.Job, step string, cause error) error {
	jobErr := &domain.JobFailedError{
		JobID: job.JobID,
		Step:  step,
		Err:   cause,
	}

	logger.Error("Job failed",
		slog.String("step", step),
		slog.String("error", cause.Error()),
	)

	if err := r.store.MarkFailed(ctx, job.JobID, jobErr.Error()); err != nil {
		logger.Error("Failed to persist failed status",
			slog.String("error", err.Error()),
		)
	}

	metrics.IncJobFinished(domain.JobStatusFailed)
	return jobErr
}
