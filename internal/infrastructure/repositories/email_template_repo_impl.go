package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/infrastructure/models"
)

// EmailTemplateRepositoryImpl implements EmailTemplateRepository
type EmailTemplateRepositoryImpl struct {
	db *gorm.DB
}

func NewEmailTemplateRepository(db *gorm.DB) *EmailTemplateRepositoryImpl {
	return &EmailTemplateRepositoryImpl{db: db}
}

func (r *EmailTemplateRepositoryImpl) Upsert(ctx context.Context, tpl *entities.EmailTemplate) error {
	now := time.Now()
	m := &models.EmailTemplate{
		MerchantID:   tpl.MerchantID,
		RetryAttempt: tpl.RetryAttempt,
		Subject:      tpl.Subject,
		Body:         tpl.Body,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "merchant_id"}, {Name: "retry_attempt"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"subject":    tpl.Subject,
			"body":       tpl.Body,
			"updated_at": now,
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	tpl.ID = m.ID
	return nil
}

func (r *EmailTemplateRepositoryImpl) Get(ctx context.Context, merchantID string, retryAttempt int) (*entities.EmailTemplate, error) {
	var m models.EmailTemplate
	if err := GetDB(ctx, r.db).
		Where("merchant_id = ? AND retry_attempt = ?", merchantID, retryAttempt).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &entities.EmailTemplate{
		ID:           m.ID,
		MerchantID:   m.MerchantID,
		RetryAttempt: m.RetryAttempt,
		Subject:      m.Subject,
		Body:         m.Body,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func (r *EmailTemplateRepositoryImpl) DeleteForMerchant(ctx context.Context, merchantID string) error {
	return GetDB(ctx, r.db).
		Where("merchant_id = ?", merchantID).
		Delete(&models.EmailTemplate{}).Error
}
