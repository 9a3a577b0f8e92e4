package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/domain/repositories"
	"recovery-kita.backend/pkg/logger"
)

// TaskProcessor dispatches a claimed task. It is implemented by
// usecases.TaskProcessor.
type TaskProcessor interface {
	ProcessTask(ctx context.Context, task *entities.Task) error
}

// Worker is the single cooperative dispatch loop. One worker runs per
// process replica; cross-replica coordination happens entirely through the
// skip-locked claim in the task repository.
type Worker struct {
	taskRepo     repositories.TaskRepository
	processor    TaskProcessor
	pollInterval time.Duration
	yield        time.Duration
	errorBackoff time.Duration
	stop         chan struct{}
}

func NewWorker(taskRepo repositories.TaskRepository, processor TaskProcessor, pollInterval, yield, errorBackoff time.Duration) *Worker {
	return &Worker{
		taskRepo:     taskRepo,
		processor:    processor,
		pollInterval: pollInterval,
		yield:        yield,
		errorBackoff: errorBackoff,
		stop:         make(chan struct{}),
	}
}

// Start runs the poll loop until the context is cancelled or Stop is
// called. In-flight task processing finishes before the loop exits.
func (w *Worker) Start(ctx context.Context) {
	logger.Info(ctx, "worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "worker stopped (context cancelled)")
			return
		case <-w.stop:
			logger.Info(ctx, "worker stopped")
			return
		default:
		}

		delay := w.tick(ctx)

		select {
		case <-ctx.Done():
			logger.Info(ctx, "worker stopped (context cancelled)")
			return
		case <-w.stop:
			logger.Info(ctx, "worker stopped")
			return
		case <-time.After(delay):
		}
	}
}

// Stop signals the loop to exit after the current iteration.
func (w *Worker) Stop() {
	close(w.stop)
}

// tick claims and processes at most one task and returns how long to wait
// before the next claim: a short yield when work was found, one poll
// interval when idle, a longer backoff when the claim itself failed.
func (w *Worker) tick(ctx context.Context) time.Duration {
	task, err := w.taskRepo.ClaimNext(ctx)
	if err != nil {
		claimErrors.Inc()
		logger.Error(ctx, "task claim failed", zap.Error(err))
		return w.errorBackoff
	}
	if task == nil {
		return w.pollInterval
	}

	w.runTask(ctx, task)
	return w.yield
}

// runTask executes one task. Processing errors never escape: they become a
// failed status transition.
func (w *Worker) runTask(ctx context.Context, task *entities.Task) {
	if err := w.processor.ProcessTask(ctx, task); err != nil {
		logger.Error(ctx, "task failed",
			zap.Int64("task_id", task.ID),
			zap.String("type", string(task.Type)),
			zap.Error(err))
		tasksProcessed.WithLabelValues(string(task.Type), "failed").Inc()
		if uerr := w.taskRepo.UpdateStatus(ctx, task.ID, entities.TaskStatusFailed); uerr != nil {
			logger.Error(ctx, "failed to mark task failed", zap.Int64("task_id", task.ID), zap.Error(uerr))
		}
		return
	}

	tasksProcessed.WithLabelValues(string(task.Type), "completed").Inc()
	if err := w.taskRepo.UpdateStatus(ctx, task.ID, entities.TaskStatusCompleted); err != nil {
		logger.Error(ctx, "failed to mark task completed", zap.Int64("task_id", task.ID), zap.Error(err))
	}
}
