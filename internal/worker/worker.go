package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eduhub/processing-be/internal/worker/domain"
	"github.com/eduhub/processing-be/shared/rabbitmq"
	"github.com/google/uuid"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Runner        *Runner
	Planner       *Planner
	Concurrency   int
	PrefetchCount int
	QueueName     string
}

// Worker consumes job dispatch messages and drives each job through the
// status machine via the runner
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	runner        *Runner
	planner       *Planner
	concurrency   int
	prefetchCount int
	queueName     string
	workerID      string
	jobsChan      chan *domain.JobMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance with a unique worker identity.
// The runner claims jobs under this identity.
func NewWorker(cfg *Config) *Worker {
	w := &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		runner:        cfg.Runner,
		planner:       cfg.Planner,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		queueName:     cfg.QueueName,
		workerID:      fmt.Sprintf("worker-%s", uuid.New().String()[:8]),
		jobsChan:      make(chan *domain.JobMessage, cfg.Concurrency),
		stopChan:      make(chan struct{}),
	}

	if w.runner != nil {
		w.runner.workerID = w.workerID
	}

	return w
}

// WorkerID returns this worker's identity used in job claims
func (w *Worker) WorkerID() string {
	return w.workerID
}

// Start begins consuming and processing jobs. Blocks until ctx is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

// processJob runs a single dispatched job through the status machine
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.String("worker_id", w.workerID),
	)

	_, err := w.runner.Run(ctx, msg.JobID, w.planner.Plan)
	return err
}
