package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Merchant represents a tenant of the recovery engine. A merchant is
// auto-provisioned on the FREE plan the first time its auth user id shows up.
type Merchant struct {
	ID               uuid.UUID   `json:"id"`
	AuthUserID       null.String `json:"authUserId,omitempty"`
	Email            null.String `json:"email,omitempty"`
	StripeAccountID  null.String `json:"stripeAccountId,omitempty"`
	StripeCustomerID null.String `json:"stripeCustomerId,omitempty"`
	// Decrypted provider credentials. Never serialized.
	AccessToken  null.String `json:"-"`
	RefreshToken null.String `json:"-"`
	OAuthState   null.String `json:"-"`
	Tier         string      `json:"tier"`
	PlanID       string      `json:"planId"`

	BillingCountry string `json:"billingCountry,omitempty"`
	BillingAddress string `json:"billingAddress,omitempty"`
	FromName       string `json:"fromName,omitempty"`
	SupportEmail   string `json:"supportEmail,omitempty"`
	BrandColor     string `json:"brandColor,omitempty"`
	LogoURL        string `json:"logoUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Connected reports whether the merchant completed the OAuth connect flow.
func (m *Merchant) Connected() bool {
	return m.StripeAccountID.Valid && m.StripeAccountID.String != ""
}

// MerchantSettingsInput is the whitelist of self-service settable fields.
// Email, tokens and provider ids are deliberately absent.
type MerchantSettingsInput struct {
	BillingCountry *string `json:"billingCountry,omitempty"`
	BillingAddress *string `json:"billingAddress,omitempty"`
	FromName       *string `json:"fromName,omitempty" binding:"omitempty,max=100"`
	SupportEmail   *string `json:"supportEmail,omitempty" binding:"omitempty,email"`
	BrandColor     *string `json:"brandColor,omitempty"`
	LogoURL        *string `json:"logoUrl,omitempty"`
}

// MerchantResponse is the outbound whitelist: sensitive columns stripped.
type MerchantResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email,omitempty"`
	Tier           string    `json:"tier"`
	PlanID         string    `json:"planId"`
	Connected      bool      `json:"connected"`
	BillingCountry string    `json:"billingCountry,omitempty"`
	BillingAddress string    `json:"billingAddress,omitempty"`
	FromName       string    `json:"fromName,omitempty"`
	SupportEmail   string    `json:"supportEmail,omitempty"`
	BrandColor     string    `json:"brandColor,omitempty"`
	LogoURL        string    `json:"logoUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToResponse strips sensitive columns.
func (m *Merchant) ToResponse() *MerchantResponse {
	return &MerchantResponse{
		ID:             m.ID,
		Email:          m.Email.String,
		Tier:           m.Tier,
		PlanID:         m.PlanID,
		Connected:      m.Connected(),
		BillingCountry: m.BillingCountry,
		BillingAddress: m.BillingAddress,
		FromName:       m.FromName,
		SupportEmail:   m.SupportEmail,
		BrandColor:     m.BrandColor,
		LogoURL:        m.LogoURL,
		CreatedAt:      m.CreatedAt,
	}
}
