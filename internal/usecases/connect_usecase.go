package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/domain/gateways"
	"recovery-kita.backend/internal/domain/repositories"
	"recovery-kita.backend/pkg/logger"
)

// ConnectUsecase runs the provider OAuth connect/disconnect flows.
type ConnectUsecase struct {
	merchantRepo repositories.MerchantRepository
	taskRepo     repositories.TaskRepository
	usageLogRepo repositories.UsageLogRepository
	provider     gateways.PaymentProvider
}

func NewConnectUsecase(
	merchantRepo repositories.MerchantRepository,
	taskRepo repositories.TaskRepository,
	usageLogRepo repositories.UsageLogRepository,
	provider gateways.PaymentProvider,
) *ConnectUsecase {
	return &ConnectUsecase{
		merchantRepo: merchantRepo,
		taskRepo:     taskRepo,
		usageLogRepo: usageLogRepo,
		provider:     provider,
	}
}

// Authorize mints a CSRF state, persists it on the merchant and returns the
// provider authorize URL.
func (u *ConnectUsecase) Authorize(ctx context.Context, merchant *entities.Merchant) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	state := hex.EncodeToString(buf)

	merchant.OAuthState = null.StringFrom(state)
	if err := u.merchantRepo.Update(ctx, merchant); err != nil {
		return "", err
	}
	return u.provider.AuthorizeURL(state), nil
}

// Callback validates the CSRF state, exchanges the code and persists the
// connected account with encrypted credentials. The state is single-use:
// it is cleared in the same write that stores the tokens.
func (u *ConnectUsecase) Callback(ctx context.Context, merchant *entities.Merchant, state, code string) error {
	if !merchant.OAuthState.Valid || merchant.OAuthState.String == "" || merchant.OAuthState.String != state {
		return domainerrors.Forbidden("oauth state mismatch")
	}

	result, err := u.provider.ExchangeOAuthCode(ctx, code)
	if err != nil {
		return domainerrors.BadGateway("oauth code exchange failed", err)
	}

	merchant.StripeAccountID = null.StringFrom(result.StripeAccountID)
	merchant.AccessToken = null.StringFrom(result.AccessToken)
	merchant.RefreshToken = null.StringFrom(result.RefreshToken)
	merchant.OAuthState = null.String{}
	if err := u.merchantRepo.Update(ctx, merchant); err != nil {
		return err
	}

	if err := u.usageLogRepo.Create(ctx, &entities.UsageLog{
		MerchantID: merchant.ID.String(),
		MetricType: entities.MetricMerchantConnected,
	}); err != nil {
		logger.Error(ctx, "failed to record merchant_connected", zap.Error(err))
	}
	return nil
}

// Disconnect tears the connection down: tenant subscriptions are cancelled
// best-effort, the OAuth grant is revoked, credentials are wiped and
// pending work for the merchant is dropped.
func (u *ConnectUsecase) Disconnect(ctx context.Context, merchant *entities.Merchant) error {
	if !merchant.Connected() {
		return domainerrors.BadRequest("merchant is not connected")
	}

	accountID := merchant.StripeAccountID.String
	if err := u.provider.CancelTenantSubscriptions(ctx, accountID); err != nil {
		logger.Warn(ctx, "failed to cancel tenant subscriptions on disconnect", zap.Error(err))
	}
	if err := u.provider.Deauthorize(ctx, accountID); err != nil {
		logger.Warn(ctx, "failed to deauthorize oauth grant", zap.Error(err))
	}

	merchant.StripeAccountID = null.String{}
	merchant.AccessToken = null.String{}
	merchant.RefreshToken = null.String{}
	merchant.OAuthState = null.String{}
	if err := u.merchantRepo.Update(ctx, merchant); err != nil {
		return err
	}

	if _, err := u.taskRepo.DeleteActiveForMerchant(ctx, merchant.ID.String()); err != nil {
		return err
	}

	if err := u.usageLogRepo.Create(ctx, &entities.UsageLog{
		MerchantID: merchant.ID.String(),
		MetricType: entities.MetricMerchantDisconnected,
	}); err != nil {
		logger.Error(ctx, "failed to record merchant_disconnected", zap.Error(err))
	}
	return nil
}
