package gateways

import (
	"context"
	"errors"
)

// Invoice is the slice of the provider invoice the engine needs.
type Invoice struct {
	ID               string
	Status           string
	CustomerName     string
	CustomerEmail    string
	HostedInvoiceURL string
	AmountDueCents   int64
	Currency         string
}

// Invoice statuses the engine branches on.
const (
	InvoiceStatusOpen = "open"
	InvoiceStatusPaid = "paid"
	InvoiceStatusVoid = "void"
)

// OAuthResult is the outcome of a connect-code exchange.
type OAuthResult struct {
	StripeAccountID string
	AccessToken     string
	RefreshToken    string
}

// PaymentProvider is the engine's view of the payment platform. Invoice
// reads are tenant-scoped (connected account); meter events and OAuth run
// on the platform credentials.
type PaymentProvider interface {
	FetchInvoice(ctx context.Context, stripeAccountID, invoiceID string) (*Invoice, error)
	// PostMeterEvent uploads one billing meter event for the platform
	// customer with a caller-supplied idempotency key.
	PostMeterEvent(ctx context.Context, stripeCustomerID string, value int64, idempotencyKey string) error
	AuthorizeURL(state string) string
	ExchangeOAuthCode(ctx context.Context, code string) (*OAuthResult, error)
	Deauthorize(ctx context.Context, stripeAccountID string) error
	// CancelTenantSubscriptions cancels active subscriptions on the
	// merchant's connected account (disconnect, best effort).
	CancelTenantSubscriptions(ctx context.Context, stripeAccountID string) error
	// CancelPlatformSubscriptions cancels the merchant's own platform
	// subscriptions (erasure; failure must abort the erasure).
	CancelPlatformSubscriptions(ctx context.Context, stripeCustomerID string) error
}

// ProviderError classifies a provider failure for retry policy.
type ProviderError struct {
	// Permanent failures (4xx, invalid request, resource_* codes) must not
	// be retried; the offending unit is isolated instead.
	Permanent bool
	// IdempotencyReplay marks an idempotency_key_in_use response: the event
	// was already recorded, treat as success.
	IdempotencyReplay bool
	Err               error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AsProviderError unwraps err into a *ProviderError if it is one.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
