package usecases

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/domain/gateways"
	"recovery-kita.backend/internal/domain/repositories"
	"recovery-kita.backend/pkg/logger"
)

var brandColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// MerchantUsecase handles provisioning, self-service settings and erasure.
type MerchantUsecase struct {
	merchantRepo repositories.MerchantRepository
	taskRepo     repositories.TaskRepository
	usageLogRepo repositories.UsageLogRepository
	dailyRepo    repositories.DailyMetricRepository
	provider     gateways.PaymentProvider
	uow          repositories.UnitOfWork
}

func NewMerchantUsecase(
	merchantRepo repositories.MerchantRepository,
	taskRepo repositories.TaskRepository,
	usageLogRepo repositories.UsageLogRepository,
	dailyRepo repositories.DailyMetricRepository,
	provider gateways.PaymentProvider,
	uow repositories.UnitOfWork,
) *MerchantUsecase {
	return &MerchantUsecase{
		merchantRepo: merchantRepo,
		taskRepo:     taskRepo,
		usageLogRepo: usageLogRepo,
		dailyRepo:    dailyRepo,
		provider:     provider,
		uow:          uow,
	}
}

// Provision returns the merchant for an authenticated user, creating one on
// the FREE plan if this is the first request. The unique index on the auth
// user id makes concurrent provisioning racy-safe: the loser of the insert
// falls back to a select.
func (u *MerchantUsecase) Provision(ctx context.Context, authUserID, email string) (*entities.Merchant, error) {
	merchant, err := u.merchantRepo.GetByAuthUserID(ctx, authUserID)
	if err == nil {
		return merchant, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	fresh := &entities.Merchant{
		AuthUserID: null.StringFrom(authUserID),
		PlanID:     entities.PlanFree,
		Tier:       "free",
	}
	if email != "" {
		fresh.Email = null.StringFrom(email)
	}

	if err := u.merchantRepo.Create(ctx, fresh); err != nil {
		// Lost the provisioning race; the row exists now.
		if existing, selErr := u.merchantRepo.GetByAuthUserID(ctx, authUserID); selErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return fresh, nil
}

// UpdateSettings applies the whitelisted self-service fields after
// validation. Email, tokens and provider ids are not settable here.
func (u *MerchantUsecase) UpdateSettings(ctx context.Context, merchant *entities.Merchant, input *entities.MerchantSettingsInput) (*entities.Merchant, error) {
	if input.BrandColor != nil && *input.BrandColor != "" && !brandColorPattern.MatchString(*input.BrandColor) {
		return nil, domainerrors.BadRequest("brand color must be a hex color like #1A2B3C")
	}
	if input.LogoURL != nil && *input.LogoURL != "" && !strings.HasPrefix(*input.LogoURL, "https://") {
		return nil, domainerrors.BadRequest("logo URL must start with https://")
	}

	if input.BillingCountry != nil {
		merchant.BillingCountry = *input.BillingCountry
	}
	if input.BillingAddress != nil {
		merchant.BillingAddress = *input.BillingAddress
	}
	if input.FromName != nil {
		merchant.FromName = *input.FromName
	}
	if input.SupportEmail != nil {
		merchant.SupportEmail = *input.SupportEmail
	}
	if input.BrandColor != nil {
		merchant.BrandColor = *input.BrandColor
	}
	if input.LogoURL != nil {
		merchant.LogoURL = *input.LogoURL
	}

	if err := u.merchantRepo.Update(ctx, merchant); err != nil {
		return nil, err
	}
	return merchant, nil
}

// Erase performs the GDPR deletion. Provider subscriptions are cancelled
// first; if that fails the whole erasure aborts so the merchant is not left
// paying for a tenant whose records vanished.
func (u *MerchantUsecase) Erase(ctx context.Context, id uuid.UUID) error {
	merchant, err := u.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if merchant.StripeCustomerID.Valid && merchant.StripeCustomerID.String != "" {
		if err := u.provider.CancelPlatformSubscriptions(ctx, merchant.StripeCustomerID.String); err != nil {
			return domainerrors.BadGateway("failed to cancel provider subscriptions, erasure aborted", err)
		}
	}

	return u.uow.Do(ctx, func(txCtx context.Context) error {
		mid := merchant.ID.String()
		if err := u.taskRepo.DeleteAllForMerchant(txCtx, mid); err != nil {
			return err
		}
		if err := u.usageLogRepo.DeleteForMerchant(txCtx, mid); err != nil {
			return err
		}
		if err := u.dailyRepo.DeleteForMerchant(txCtx, mid); err != nil {
			return err
		}
		if err := u.merchantRepo.Delete(txCtx, merchant.ID); err != nil {
			return err
		}
		logger.Info(txCtx, "merchant erased", zap.String("merchant_id", mid))
		return nil
	})
}
