package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/domain/repositories"
	"recovery-kita.backend/pkg/logger"
)

// Watchdog runs at process start and resurrects the self-scheduling task
// chains: exactly one report_usage singleton under the system merchant, and
// one send_weekly_digest per real merchant.
type Watchdog struct {
	taskRepo     repositories.TaskRepository
	merchantRepo repositories.MerchantRepository
}

func NewWatchdog(taskRepo repositories.TaskRepository, merchantRepo repositories.MerchantRepository) *Watchdog {
	return &Watchdog{taskRepo: taskRepo, merchantRepo: merchantRepo}
}

// Bootstrap ensures the singleton chains exist, recreating missing links
// with run_at=now.
func (w *Watchdog) Bootstrap(ctx context.Context) error {
	if err := w.ensure(ctx, entities.SystemMerchantID, entities.TaskTypeReportUsage); err != nil {
		return err
	}

	merchants, err := w.merchantRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, merchant := range merchants {
		if err := w.ensure(ctx, merchant.ID.String(), entities.TaskTypeSendWeeklyDigest); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watchdog) ensure(ctx context.Context, merchantID string, taskType entities.TaskType) error {
	exists, err := w.taskRepo.HasActive(ctx, merchantID, taskType)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	logger.Warn(ctx, "self-scheduling chain broken, recreating",
		zap.String("merchant_id", merchantID),
		zap.String("type", string(taskType)))
	return w.taskRepo.Create(ctx, &entities.Task{
		MerchantID: merchantID,
		Type:       taskType,
		RunAt:      time.Now(),
	})
}
