package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/infrastructure/models"
)

// TaskRepositoryImpl implements TaskRepository
type TaskRepositoryImpl struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepositoryImpl {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	payload := string(task.Payload)
	if payload == "" {
		payload = "{}"
	}
	if task.Status == "" {
		task.Status = entities.TaskStatusPending
	}
	if task.RunAt.IsZero() {
		task.RunAt = time.Now()
	}
	task.CreatedAt = time.Now()

	m := &models.Task{
		MerchantID: task.MerchantID,
		Type:       string(task.Type),
		Payload:    payload,
		Status:     string(task.Status),
		RunAt:      task.RunAt,
		CreatedAt:  task.CreatedAt,
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return err
	}
	task.ID = m.ID
	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	var m models.Task
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toTaskEntity(&m), nil
}

func (r *TaskRepositoryImpl) ListByMerchant(ctx context.Context, merchantID string, status entities.TaskStatus, limit int) ([]*entities.Task, error) {
	q := GetDB(ctx, r.db).Where("merchant_id = ?", merchantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var ms []models.Task
	if err := q.Order("created_at DESC").Limit(limit).Find(&ms).Error; err != nil {
		return nil, err
	}

	var tasks []*entities.Task
	for i := range ms {
		tasks = append(tasks, toTaskEntity(&ms[i]))
	}
	return tasks, nil
}

// ClaimNext claims the earliest ready pending task. On postgres the select
// runs FOR UPDATE SKIP LOCKED so concurrent claimants skip rather than
// block; the status flip is a compare-and-swap either way, so at most one
// claimant wins a row even without the row lock.
func (r *TaskRepositoryImpl) ClaimNext(ctx context.Context) (*entities.Task, error) {
	var claimed *entities.Task

	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ? AND run_at <= ?", entities.TaskStatusPending, time.Now()).
			Order("run_at ASC, id ASC").
			Limit(1)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var m models.Task
		if err := q.First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		res := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", m.ID, entities.TaskStatusPending).
			Update("status", entities.TaskStatusRunning)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race to another claimant.
			return nil
		}

		m.Status = string(entities.TaskStatusRunning)
		claimed = toTaskEntity(&m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *TaskRepositoryImpl) UpdateStatus(ctx context.Context, id int64, status entities.TaskStatus) error {
	return GetDB(ctx, r.db).Model(&models.Task{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *TaskRepositoryImpl) Requeue(ctx context.Context, id int64) error {
	res := GetDB(ctx, r.db).Model(&models.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": entities.TaskStatusPending,
			"run_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) CountPending(ctx context.Context, merchantID string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&models.Task{}).
		Where("merchant_id = ? AND status = ?", merchantID, entities.TaskStatusPending).
		Count(&count).Error
	return count, err
}

func (r *TaskRepositoryImpl) HasActive(ctx context.Context, merchantID string, taskType entities.TaskType) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&models.Task{}).
		Where("merchant_id = ? AND type = ? AND status IN ?",
			merchantID, taskType,
			[]string{string(entities.TaskStatusPending), string(entities.TaskStatusRunning)}).
		Count(&count).Error
	return count > 0, err
}

func (r *TaskRepositoryImpl) ResetZombies(ctx context.Context, cutoff time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&models.Task{}).
		Where("status = ? AND created_at < ?", entities.TaskStatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status": entities.TaskStatusPending,
			"run_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id int64) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&models.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) DeleteCompleted(ctx context.Context, merchantID string) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("merchant_id = ? AND status = ?", merchantID, entities.TaskStatusCompleted).
		Delete(&models.Task{})
	return res.RowsAffected, res.Error
}

func (r *TaskRepositoryImpl) DeleteActiveForMerchant(ctx context.Context, merchantID string) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("merchant_id = ? AND status IN ?", merchantID,
			[]string{string(entities.TaskStatusPending), string(entities.TaskStatusRunning)}).
		Delete(&models.Task{})
	return res.RowsAffected, res.Error
}

func (r *TaskRepositoryImpl) DeleteAllForMerchant(ctx context.Context, merchantID string) error {
	return GetDB(ctx, r.db).
		Where("merchant_id = ?", merchantID).
		Delete(&models.Task{}).Error
}

func toTaskEntity(m *models.Task) *entities.Task {
	return &entities.Task{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		Type:       entities.TaskType(m.Type),
		Payload:    json.RawMessage(m.Payload),
		Status:     entities.TaskStatus(m.Status),
		RunAt:      m.RunAt,
		CreatedAt:  m.CreatedAt,
	}
}
