package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recovery-kita.backend/internal/infrastructure/models"
)

// ProcessedEventRepositoryImpl implements ProcessedEventRepository. The
// insert on the primary key is the whole locking protocol: whoever inserts
// first owns the event, everyone else sees a conflict.
type ProcessedEventRepositoryImpl struct {
	db *gorm.DB
}

func NewProcessedEventRepository(db *gorm.DB) *ProcessedEventRepositoryImpl {
	return &ProcessedEventRepositoryImpl{db: db}
}

func (r *ProcessedEventRepositoryImpl) AttemptLock(ctx context.Context, eventID string) (bool, error) {
	m := &models.ProcessedEvent{
		EventID:     eventID,
		ProcessedAt: time.Now(),
	}
	res := GetDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ProcessedEventRepositoryImpl) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("processed_at < ?", cutoff).
		Delete(&models.ProcessedEvent{})
	return res.RowsAffected, res.Error
}
