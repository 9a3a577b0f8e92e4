package repositories

import (
	"context"
	"time"

	"recovery-kita.backend/internal/domain/entities"
)

// TaskRepository is the durable work queue.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	ListByMerchant(ctx context.Context, merchantID string, status entities.TaskStatus, limit int) ([]*entities.Task, error)

	// ClaimNext atomically claims the earliest ready pending task, flipping
	// it to running. Returns (nil, nil) when no task is ready. At most one
	// caller observes any given task.
	ClaimNext(ctx context.Context) (*entities.Task, error)

	UpdateStatus(ctx context.Context, id int64, status entities.TaskStatus) error
	// Requeue resets a task to pending with run_at=now (operator retry).
	Requeue(ctx context.Context, id int64) error

	CountPending(ctx context.Context, merchantID string) (int64, error)
	// HasActive reports whether a pending or running task of the given type
	// exists for the merchant.
	HasActive(ctx context.Context, merchantID string, taskType entities.TaskType) (bool, error)

	// ResetZombies flips running tasks created before the cutoff back to
	// pending with run_at=now, returning the number rescued.
	ResetZombies(ctx context.Context, cutoff time.Time) (int64, error)

	Delete(ctx context.Context, id int64) error
	DeleteCompleted(ctx context.Context, merchantID string) (int64, error)
	DeleteActiveForMerchant(ctx context.Context, merchantID string) (int64, error)
	DeleteAllForMerchant(ctx context.Context, merchantID string) error
}
