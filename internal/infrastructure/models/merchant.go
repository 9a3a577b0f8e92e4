package models

import (
	"time"

	"github.com/google/uuid"
)

// Merchant is the tenant row. Token columns hold AES-GCM ciphertexts; the
// repository encrypts on write and decrypts on read.
type Merchant struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuthUserID       *string   `gorm:"type:varchar(255);uniqueIndex"`
	Email            *string   `gorm:"type:varchar(255)"`
	StripeAccountID  *string   `gorm:"type:varchar(255);uniqueIndex"`
	StripeCustomerID *string   `gorm:"type:varchar(255);uniqueIndex"`
	AccessToken      *string   `gorm:"type:text"`
	RefreshToken     *string   `gorm:"type:text"`
	OAuthState       *string   `gorm:"type:varchar(128)"`
	Tier             string    `gorm:"type:varchar(50);not null;default:'free'"`
	PlanID           string    `gorm:"type:varchar(100);not null;default:'price_free'"`
	BillingCountry   string    `gorm:"type:varchar(2)"`
	BillingAddress   string    `gorm:"type:text"`
	FromName         string    `gorm:"type:varchar(100)"`
	SupportEmail     string    `gorm:"type:varchar(255)"`
	BrandColor       string    `gorm:"type:varchar(7)"`
	LogoURL          string    `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
