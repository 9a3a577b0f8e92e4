package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/infrastructure/models"
)

// UsageLogRepositoryImpl implements UsageLogRepository
type UsageLogRepositoryImpl struct {
	db *gorm.DB
}

func NewUsageLogRepository(db *gorm.DB) *UsageLogRepositoryImpl {
	return &UsageLogRepositoryImpl{db: db}
}

// Create inserts the log row and upserts the daily rollup in one
// transaction; observers see both or neither. On a (merchant_id,
// metric_date) collision counters are added to, never overwritten.
func (r *UsageLogRepositoryImpl) Create(ctx context.Context, log *entities.UsageLog) error {
	if log.Amount == 0 {
		log.Amount = 1
	}
	log.CreatedAt = time.Now()

	m := &models.UsageLog{
		MerchantID: log.MerchantID,
		MetricType: log.MetricType,
		Amount:     log.Amount,
		CreatedAt:  log.CreatedAt,
	}

	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		emailsSent := int64(0)
		if log.MetricType == entities.MetricDunningEmailSent {
			emailsSent = log.Amount
		}

		metric := &models.DailyMetric{
			MerchantID: log.MerchantID,
			MetricDate: time.Now().UTC().Format(entities.MetricDateLayout),
			EmailsSent: emailsSent,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "merchant_id"}, {Name: "metric_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"emails_sent": gorm.Expr("daily_metrics.emails_sent + ?", emailsSent),
			}),
		}).Create(metric).Error
	})
	if err != nil {
		return err
	}

	log.ID = m.ID
	return nil
}

// MonthlyDunningCount sums dunning_email_sent amounts since the first day
// of the current month.
func (r *UsageLogRepositoryImpl) MonthlyDunningCount(ctx context.Context, merchantID string) (int64, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var total int64
	err := GetDB(ctx, r.db).Model(&models.UsageLog{}).
		Where("merchant_id = ? AND metric_type = ? AND created_at >= ?",
			merchantID, entities.MetricDunningEmailSent, monthStart).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *UsageLogRepositoryImpl) ListRecent(ctx context.Context, merchantID string, limit int) ([]*entities.UsageLog, error) {
	var ms []models.UsageLog
	if err := GetDB(ctx, r.db).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toUsageLogEntities(ms), nil
}

func (r *UsageLogRepositoryImpl) ListUnreported(ctx context.Context, limit int) ([]*entities.UsageLog, error) {
	var ms []models.UsageLog
	if err := GetDB(ctx, r.db).
		Where("reported_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toUsageLogEntities(ms), nil
}

// MarkReported stamps reported_at on rows that have not been stamped yet;
// the null→timestamp transition happens at most once.
func (r *UsageLogRepositoryImpl) MarkReported(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&models.UsageLog{}).
		Where("id IN ? AND reported_at IS NULL", ids).
		Update("reported_at", time.Now()).Error
}

func (r *UsageLogRepositoryImpl) MarkOpened(ctx context.Context, id int64) (bool, error) {
	return r.markEngagement(ctx, id, "opened_at", "total_opens")
}

func (r *UsageLogRepositoryImpl) MarkClicked(ctx context.Context, id int64) (bool, error) {
	return r.markEngagement(ctx, id, "clicked_at", "total_clicks")
}

// markEngagement stamps the engagement column once and bumps the matching
// daily counter in the same transaction.
func (r *UsageLogRepositoryImpl) markEngagement(ctx context.Context, id int64, stampColumn, counterColumn string) (bool, error) {
	counted := false
	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var m models.UsageLog
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		res := tx.Model(&models.UsageLog{}).
			Where("id = ? AND "+stampColumn+" IS NULL", id).
			Update(stampColumn, time.Now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		metric := &models.DailyMetric{
			MerchantID: m.MerchantID,
			MetricDate: time.Now().UTC().Format(entities.MetricDateLayout),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "merchant_id"}, {Name: "metric_date"}},
			DoNothing: true,
		}).Create(metric).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.DailyMetric{}).
			Where("merchant_id = ? AND metric_date = ?", metric.MerchantID, metric.MetricDate).
			Update(counterColumn, gorm.Expr(counterColumn+" + 1")).Error; err != nil {
			return err
		}

		counted = true
		return nil
	})
	return counted, err
}

func (r *UsageLogRepositoryImpl) DeleteForMerchant(ctx context.Context, merchantID string) error {
	return GetDB(ctx, r.db).
		Where("merchant_id = ?", merchantID).
		Delete(&models.UsageLog{}).Error
}

func toUsageLogEntities(ms []models.UsageLog) []*entities.UsageLog {
	var logs []*entities.UsageLog
	for i := range ms {
		logs = append(logs, toUsageLogEntity(&ms[i]))
	}
	return logs
}

func toUsageLogEntity(m *models.UsageLog) *entities.UsageLog {
	e := &entities.UsageLog{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		MetricType: m.MetricType,
		Amount:     m.Amount,
		CreatedAt:  m.CreatedAt,
	}
	if m.OpenedAt != nil {
		e.OpenedAt.SetValid(*m.OpenedAt)
	}
	if m.ClickedAt != nil {
		e.ClickedAt.SetValid(*m.ClickedAt)
	}
	if m.ReportedAt != nil {
		e.ReportedAt.SetValid(*m.ReportedAt)
	}
	return e
}
