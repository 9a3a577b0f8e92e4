package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"recovery-kita.backend/internal/domain/repositories"
	"recovery-kita.backend/pkg/logger"
)

// Janitor is the self-healing sweep: it rescues zombie running tasks left
// behind by crashed workers and prunes the idempotency ledger. It runs once
// at start and on a fixed interval thereafter.
type Janitor struct {
	taskRepo       repositories.TaskRepository
	processedRepo  repositories.ProcessedEventRepository
	interval       time.Duration
	zombieTimeout  time.Duration
	eventRetention time.Duration
	stop           chan struct{}
}

func NewJanitor(
	taskRepo repositories.TaskRepository,
	processedRepo repositories.ProcessedEventRepository,
	interval, zombieTimeout, eventRetention time.Duration,
) *Janitor {
	return &Janitor{
		taskRepo:       taskRepo,
		processedRepo:  processedRepo,
		interval:       interval,
		zombieTimeout:  zombieTimeout,
		eventRetention: eventRetention,
		stop:           make(chan struct{}),
	}
}

func (j *Janitor) Start(ctx context.Context) {
	logger.Info(ctx, "janitor started")
	j.Sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "janitor stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "janitor stopped")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

func (j *Janitor) Stop() {
	close(j.stop)
}

// Sweep runs both passes in order: zombie rescue first, then event pruning.
func (j *Janitor) Sweep(ctx context.Context) {
	rescued, err := j.taskRepo.ResetZombies(ctx, time.Now().Add(-j.zombieTimeout))
	if err != nil {
		logger.Error(ctx, "zombie rescue failed", zap.Error(err))
	} else if rescued > 0 {
		zombiesRescued.Add(float64(rescued))
		logger.Info(ctx, "rescued zombie tasks", zap.Int64("count", rescued))
	}

	pruned, err := j.processedRepo.PruneOlderThan(ctx, time.Now().Add(-j.eventRetention))
	if err != nil {
		logger.Error(ctx, "event pruning failed", zap.Error(err))
	} else if pruned > 0 {
		eventsPruned.Add(float64(pruned))
		logger.Info(ctx, "pruned processed events", zap.Int64("count", pruned))
	}
}
