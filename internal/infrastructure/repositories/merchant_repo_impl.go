package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/infrastructure/models"
	"recovery-kita.backend/pkg/crypto"
	"recovery-kita.backend/pkg/logger"
)

// MerchantRepositoryImpl implements MerchantRepository. Access and refresh
// tokens are encrypted before they hit the database and decrypted on read.
type MerchantRepositoryImpl struct {
	db     *gorm.DB
	cipher *crypto.TokenCipher
}

func NewMerchantRepository(db *gorm.DB, cipher *crypto.TokenCipher) *MerchantRepositoryImpl {
	return &MerchantRepositoryImpl{db: db, cipher: cipher}
}

func (r *MerchantRepositoryImpl) Create(ctx context.Context, merchant *entities.Merchant) error {
	if merchant.ID == uuid.Nil {
		merchant.ID = uuid.New()
	}
	if merchant.PlanID == "" {
		merchant.PlanID = entities.PlanFree
	}
	if merchant.Tier == "" {
		merchant.Tier = "free"
	}
	merchant.CreatedAt = time.Now()
	merchant.UpdatedAt = merchant.CreatedAt

	m, err := r.toModel(merchant)
	if err != nil {
		return err
	}
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *MerchantRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Merchant, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *MerchantRepositoryImpl) GetByAuthUserID(ctx context.Context, authUserID string) (*entities.Merchant, error) {
	return r.getWhere(ctx, "auth_user_id = ?", authUserID)
}

func (r *MerchantRepositoryImpl) GetByStripeAccountID(ctx context.Context, accountID string) (*entities.Merchant, error) {
	return r.getWhere(ctx, "stripe_account_id = ?", accountID)
}

func (r *MerchantRepositoryImpl) GetByStripeCustomerID(ctx context.Context, customerID string) (*entities.Merchant, error) {
	return r.getWhere(ctx, "stripe_customer_id = ?", customerID)
}

func (r *MerchantRepositoryImpl) getWhere(ctx context.Context, query string, arg interface{}) (*entities.Merchant, error) {
	var m models.Merchant
	if err := GetDB(ctx, r.db).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(ctx, &m), nil
}

func (r *MerchantRepositoryImpl) Update(ctx context.Context, merchant *entities.Merchant) error {
	merchant.UpdatedAt = time.Now()
	m, err := r.toModel(merchant)
	if err != nil {
		return err
	}

	res := GetDB(ctx, r.db).Model(&models.Merchant{}).
		Where("id = ?", merchant.ID).
		Select("auth_user_id", "email", "stripe_account_id", "stripe_customer_id",
			"access_token", "refresh_token", "o_auth_state", "tier", "plan_id",
			"billing_country", "billing_address", "from_name", "support_email",
			"brand_color", "logo_url", "updated_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *MerchantRepositoryImpl) UpdatePlan(ctx context.Context, id uuid.UUID, planID string) error {
	return GetDB(ctx, r.db).Model(&models.Merchant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"plan_id":    planID,
			"updated_at": time.Now(),
		}).Error
}

func (r *MerchantRepositoryImpl) List(ctx context.Context) ([]*entities.Merchant, error) {
	var ms []models.Merchant
	if err := GetDB(ctx, r.db).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}

	var merchants []*entities.Merchant
	for i := range ms {
		merchants = append(merchants, r.toEntity(ctx, &ms[i]))
	}
	return merchants, nil
}

func (r *MerchantRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&models.Merchant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *MerchantRepositoryImpl) toModel(e *entities.Merchant) (*models.Merchant, error) {
	accessToken, err := r.encryptPtr(e.AccessToken)
	if err != nil {
		return nil, err
	}
	refreshToken, err := r.encryptPtr(e.RefreshToken)
	if err != nil {
		return nil, err
	}

	return &models.Merchant{
		ID:               e.ID,
		AuthUserID:       nullToPtr(e.AuthUserID),
		Email:            nullToPtr(e.Email),
		StripeAccountID:  nullToPtr(e.StripeAccountID),
		StripeCustomerID: nullToPtr(e.StripeCustomerID),
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		OAuthState:       nullToPtr(e.OAuthState),
		Tier:             e.Tier,
		PlanID:           e.PlanID,
		BillingCountry:   e.BillingCountry,
		BillingAddress:   e.BillingAddress,
		FromName:         e.FromName,
		SupportEmail:     e.SupportEmail,
		BrandColor:       e.BrandColor,
		LogoURL:          e.LogoURL,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}, nil
}

func (r *MerchantRepositoryImpl) toEntity(ctx context.Context, m *models.Merchant) *entities.Merchant {
	return &entities.Merchant{
		ID:               m.ID,
		AuthUserID:       ptrToNull(m.AuthUserID),
		Email:            ptrToNull(m.Email),
		StripeAccountID:  ptrToNull(m.StripeAccountID),
		StripeCustomerID: ptrToNull(m.StripeCustomerID),
		AccessToken:      r.decryptPtr(ctx, m.AccessToken),
		RefreshToken:     r.decryptPtr(ctx, m.RefreshToken),
		OAuthState:       ptrToNull(m.OAuthState),
		Tier:             m.Tier,
		PlanID:           m.PlanID,
		BillingCountry:   m.BillingCountry,
		BillingAddress:   m.BillingAddress,
		FromName:         m.FromName,
		SupportEmail:     m.SupportEmail,
		BrandColor:       m.BrandColor,
		LogoURL:          m.LogoURL,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func (r *MerchantRepositoryImpl) encryptPtr(v null.String) (*string, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	sealed, err := r.cipher.Encrypt(v.String)
	if err != nil {
		return nil, err
	}
	return &sealed, nil
}

// decryptPtr is best-effort: an undecryptable row surfaces its raw
// ciphertext instead of failing the read, so one bad row never halts
// unrelated paths.
func (r *MerchantRepositoryImpl) decryptPtr(ctx context.Context, v *string) null.String {
	if v == nil || *v == "" {
		return null.String{}
	}
	plain, err := r.cipher.Decrypt(*v)
	if err != nil {
		logger.Warn(ctx, "failed to decrypt stored token, surfacing ciphertext",
			logger.Redacted("ciphertext", *v))
		return null.StringFrom(*v)
	}
	return null.StringFrom(plain)
}

func nullToPtr(v null.String) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func ptrToNull(v *string) null.String {
	if v == nil {
		return null.String{}
	}
	return null.StringFrom(*v)
}
