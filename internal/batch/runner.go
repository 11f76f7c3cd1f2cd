package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookdata/booktone-api/internal/domain"
)

// RunnerConfig holds configuration for the batch runner.
type RunnerConfig struct {
	// PollInterval is how long the worker sleeps when the queue is empty.
	PollInterval time.Duration

	// ErrorBackoff is how long the worker sleeps after an unexpected
	// error escapes a batch, before resuming the poll cycle.
	ErrorBackoff time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with the standard intervals.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		PollInterval: 1 * time.Second,
		ErrorBackoff: 5 * time.Second,
	}
}

// Runner is the single long-lived background worker: it dequeues one
// batch at a time and executes it to completion before looking at the
// queue again. The loop never terminates on an error; only Stop ends it.
type Runner struct {
	queue     *JobQueue
	processor *Processor
	config    RunnerConfig
	logger    *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// NewRunner creates a batch runner. Zero or negative intervals fall back
// to the defaults.
func NewRunner(queue *JobQueue, processor *Processor, config RunnerConfig, logger *slog.Logger) *Runner {
	defaults := DefaultRunnerConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = defaults.ErrorBackoff
	}

	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		queue:      queue,
		processor:  processor,
		config:     config,
		logger:     logger.With(slog.String("component", "batch_runner")),
		ctx:        ctx,
		cancelFunc: cancel,
		done:       make(chan struct{}),
	}
}

// Start launches the worker goroutine. It must be called exactly once.
func (r *Runner) Start() {
	r.logger.Info("batch processing worker starting")
	go r.run()
}

// Stop signals the worker to exit its poll cycle and waits for the
// current batch (if any) to finish, bounded by the context's deadline.
// If the grace period elapses first, Stop returns without waiting
// further; in-flight batch state is left exactly as last persisted.
func (r *Runner) Stop(ctx context.Context) error {
	r.logger.Info("batch processing worker stopping")
	r.cancelFunc()

	select {
	case <-r.done:
		r.logger.Info("batch processing worker stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("shutdown grace period elapsed before worker finished")
		return ctx.Err()
	}
}

// run is the poll cycle. Each iteration either processes one batch fully
// or sleeps the poll interval; any error or panic escaping a batch is
// logged and followed by a longer backoff. The cycle exits only on
// cancellation.
func (r *Runner) run() {
	defer close(r.done)

	for r.ctx.Err() == nil {
		job, ok := r.queue.TryDequeue()
		if !ok {
			r.sleep(r.config.PollInterval)
			continue
		}

		if err := r.runBatch(job); err != nil {
			r.logger.Error("error in batch processing loop",
				slog.String("batch_id", job.BatchID),
				slog.String("error", err.Error()))
			r.sleep(r.config.ErrorBackoff)
		}
	}
}

// runBatch executes one batch, converting a panic into an error so the
// loop survives any single fault.
func (r *Runner) runBatch(job *domain.BatchJob) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p}
		}
	}()

	return r.processor.Process(r.ctx, job)
}

// sleep waits for the given duration or until cancellation, whichever
// comes first.
func (r *Runner) sleep(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-r.ctx.Done():
	}
}

// panicError wraps a recovered panic value as an error.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic during batch processing: %v", e.value)
}
