package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/infrastructure/models"
)

// DailyMetricRepositoryImpl implements DailyMetricRepository
type DailyMetricRepositoryImpl struct {
	db *gorm.DB
}

func NewDailyMetricRepository(db *gorm.DB) *DailyMetricRepositoryImpl {
	return &DailyMetricRepositoryImpl{db: db}
}

func (r *DailyMetricRepositoryImpl) Window(ctx context.Context, merchantID string, from, to time.Time) ([]*entities.DailyMetric, error) {
	var ms []models.DailyMetric
	if err := GetDB(ctx, r.db).
		Where("merchant_id = ? AND metric_date >= ? AND metric_date <= ?",
			merchantID,
			from.UTC().Format(entities.MetricDateLayout),
			to.UTC().Format(entities.MetricDateLayout)).
		Order("metric_date ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	var metrics []*entities.DailyMetric
	for i := range ms {
		metrics = append(metrics, &entities.DailyMetric{
			MerchantID:     ms[i].MerchantID,
			MetricDate:     ms[i].MetricDate,
			RecoveredCents: ms[i].RecoveredCents,
			EmailsSent:     ms[i].EmailsSent,
			TotalOpens:     ms[i].TotalOpens,
			TotalClicks:    ms[i].TotalClicks,
		})
	}
	return metrics, nil
}

func (r *DailyMetricRepositoryImpl) UpsertRecovered(ctx context.Context, merchantID string, cents int64) error {
	metric := &models.DailyMetric{
		MerchantID:     merchantID,
		MetricDate:     time.Now().UTC().Format(entities.MetricDateLayout),
		RecoveredCents: cents,
	}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "merchant_id"}, {Name: "metric_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"recovered_cents": gorm.Expr("daily_metrics.recovered_cents + ?", cents),
		}),
	}).Create(metric).Error
}

func (r *DailyMetricRepositoryImpl) DeleteForMerchant(ctx context.Context, merchantID string) error {
	return GetDB(ctx, r.db).
		Where("merchant_id = ?", merchantID).
		Delete(&models.DailyMetric{}).Error
}
