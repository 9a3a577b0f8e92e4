package usecases

import (
	"context"
	"encoding/json"
	"time"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/domain/repositories"
)

// TaskUsecase serves the merchant-facing task endpoints. Every operation is
// scoped to the calling merchant; ownership is checked before any mutation.
type TaskUsecase struct {
	taskRepo     repositories.TaskRepository
	usageLogRepo repositories.UsageLogRepository
	quota        *QuotaUsecase
}

func NewTaskUsecase(taskRepo repositories.TaskRepository, usageLogRepo repositories.UsageLogRepository, quota *QuotaUsecase) *TaskUsecase {
	return &TaskUsecase{taskRepo: taskRepo, usageLogRepo: usageLogRepo, quota: quota}
}

// Create enqueues a user-initiated task. The type whitelist is enforced and
// status, run_at and merchant_id are forced server-side regardless of what
// the client sent.
func (u *TaskUsecase) Create(ctx context.Context, merchant *entities.Merchant, input *entities.CreateTaskInput) (*entities.Task, error) {
	if !entities.UserCreatableTaskTypes[input.Type] {
		return nil, domainerrors.BadRequest("task type not allowed")
	}
	if !json.Valid(input.Payload) {
		return nil, domainerrors.BadRequest("payload must be valid JSON")
	}

	if err := u.quota.CheckCreateAllowed(ctx, merchant); err != nil {
		return nil, err
	}

	task := &entities.Task{
		MerchantID: merchant.ID.String(),
		Type:       input.Type,
		Payload:    input.Payload,
		Status:     entities.TaskStatusPending,
		RunAt:      time.Now(),
	}
	if err := u.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Get returns a task after checking it belongs to the merchant.
func (u *TaskUsecase) Get(ctx context.Context, merchant *entities.Merchant, id int64) (*entities.Task, error) {
	task, err := u.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.MerchantID != merchant.ID.String() {
		return nil, domainerrors.Forbidden("task belongs to another merchant")
	}
	return task, nil
}

// List returns the merchant's tasks, optionally filtered by status.
func (u *TaskUsecase) List(ctx context.Context, merchant *entities.Merchant, status entities.TaskStatus, limit int) ([]*entities.Task, error) {
	if status != "" {
		switch status {
		case entities.TaskStatusPending, entities.TaskStatusRunning, entities.TaskStatusCompleted, entities.TaskStatusFailed:
		default:
			return nil, domainerrors.BadRequest("unknown task status")
		}
	}
	return u.taskRepo.ListByMerchant(ctx, merchant.ID.String(), status, limit)
}

// Retry resets an owned task to pending and records the retry.
func (u *TaskUsecase) Retry(ctx context.Context, merchant *entities.Merchant, id int64) (*entities.Task, error) {
	if _, err := u.Get(ctx, merchant, id); err != nil {
		return nil, err
	}
	if err := u.taskRepo.Requeue(ctx, id); err != nil {
		return nil, err
	}
	if err := u.usageLogRepo.Create(ctx, &entities.UsageLog{
		MerchantID: merchant.ID.String(),
		MetricType: entities.MetricTaskRetry,
	}); err != nil {
		return nil, err
	}
	return u.taskRepo.GetByID(ctx, id)
}

// Delete removes an owned task.
func (u *TaskUsecase) Delete(ctx context.Context, merchant *entities.Merchant, id int64) error {
	if _, err := u.Get(ctx, merchant, id); err != nil {
		return err
	}
	return u.taskRepo.Delete(ctx, id)
}

// DeleteCompleted clears the merchant's completed tasks.
func (u *TaskUsecase) DeleteCompleted(ctx context.Context, merchant *entities.Merchant) (int64, error) {
	return u.taskRepo.DeleteCompleted(ctx, merchant.ID.String())
}
