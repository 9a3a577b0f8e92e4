package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"recovery-kita.backend/internal/domain/gateways"
)

const callTimeout = 10 * time.Second

// StripeClient implements gateways.PaymentProvider on the Stripe API.
// Invoice reads run on the merchant's connected account; meter events,
// OAuth and platform subscription management run on the platform key.
type StripeClient struct {
	api       *client.API
	clientID  string
	meterName string
}

func NewStripeClient(secretKey, clientID, meterName string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api, clientID: clientID, meterName: meterName}
}

func (c *StripeClient) FetchInvoice(ctx context.Context, stripeAccountID, invoiceID string) (*gateways.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := &stripe.InvoiceParams{}
	params.Context = ctx
	if stripeAccountID != "" {
		params.SetStripeAccount(stripeAccountID)
	}

	inv, err := c.api.Invoices.Get(invoiceID, params)
	if err != nil {
		return nil, classify(err)
	}

	return &gateways.Invoice{
		ID:               inv.ID,
		Status:           string(inv.Status),
		CustomerName:     inv.CustomerName,
		CustomerEmail:    inv.CustomerEmail,
		HostedInvoiceURL: inv.HostedInvoiceURL,
		AmountDueCents:   inv.AmountDue,
		Currency:         string(inv.Currency),
	}, nil
}

func (c *StripeClient) PostMeterEvent(ctx context.Context, stripeCustomerID string, value int64, idempotencyKey string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := &stripe.BillingMeterEventParams{
		EventName: stripe.String(c.meterName),
		Payload: map[string]string{
			"stripe_customer_id": stripeCustomerID,
			"value":              strconv.FormatInt(value, 10),
		},
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(idempotencyKey)

	if _, err := c.api.BillingMeterEvents.New(params); err != nil {
		return classify(err)
	}
	return nil
}

func (c *StripeClient) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("scope", "read_write")
	q.Set("state", state)
	return "https://connect.stripe.com/oauth/authorize?" + q.Encode()
}

func (c *StripeClient) ExchangeOAuthCode(ctx context.Context, code string) (*gateways.OAuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := &stripe.OAuthTokenParams{
		GrantType: stripe.String("authorization_code"),
		Code:      stripe.String(code),
	}
	params.Context = ctx

	token, err := c.api.OAuth.New(params)
	if err != nil {
		return nil, classify(err)
	}

	return &gateways.OAuthResult{
		StripeAccountID: token.StripeUserID,
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
	}, nil
}

func (c *StripeClient) Deauthorize(ctx context.Context, stripeAccountID string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := &stripe.DeauthorizeParams{
		ClientID:     stripe.String(c.clientID),
		StripeUserID: stripe.String(stripeAccountID),
	}
	params.Context = ctx

	if _, err := c.api.OAuth.Del(params); err != nil {
		return classify(err)
	}
	return nil
}

func (c *StripeClient) CancelTenantSubscriptions(ctx context.Context, stripeAccountID string) error {
	listParams := &stripe.SubscriptionListParams{Status: stripe.String(string(stripe.SubscriptionStatusActive))}
	listParams.SetStripeAccount(stripeAccountID)
	cancelParams := &stripe.SubscriptionCancelParams{}
	cancelParams.SetStripeAccount(stripeAccountID)
	return c.cancelSubscriptions(ctx, listParams, cancelParams)
}

func (c *StripeClient) CancelPlatformSubscriptions(ctx context.Context, stripeCustomerID string) error {
	listParams := &stripe.SubscriptionListParams{
		Customer: stripe.String(stripeCustomerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	return c.cancelSubscriptions(ctx, listParams, &stripe.SubscriptionCancelParams{})
}

func (c *StripeClient) cancelSubscriptions(ctx context.Context, listParams *stripe.SubscriptionListParams, cancelParams *stripe.SubscriptionCancelParams) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	listParams.Context = ctx
	cancelParams.Context = ctx

	iter := c.api.Subscriptions.List(listParams)
	for iter.Next() {
		sub := iter.Subscription()
		if _, err := c.api.Subscriptions.Cancel(sub.ID, cancelParams); err != nil {
			return classify(fmt.Errorf("cancel subscription %s: %w", sub.ID, err))
		}
	}
	if err := iter.Err(); err != nil {
		return classify(err)
	}
	return nil
}

// classify folds a Stripe failure into the retry taxonomy: 4xx / invalid
// request / resource_* codes are permanent poison pills, everything else
// (network, 5xx, rate limit) is transient. idempotency_key_in_use means the
// event already landed and is flagged as a replay.
func classify(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		// Network-level failure, no HTTP response.
		return &gateways.ProviderError{Permanent: false, Err: err}
	}

	if stripeErr.Code == stripe.ErrorCodeIdempotencyKeyInUse {
		return &gateways.ProviderError{IdempotencyReplay: true, Err: err}
	}

	status := stripeErr.HTTPStatusCode
	switch {
	case status == 429 || stripeErr.Type == stripe.ErrorTypeRateLimit:
		return &gateways.ProviderError{Permanent: false, Err: err}
	case strings.HasPrefix(string(stripeErr.Code), "resource_"):
		return &gateways.ProviderError{Permanent: true, Err: err}
	case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
		return &gateways.ProviderError{Permanent: true, Err: err}
	case status >= 400 && status < 500:
		return &gateways.ProviderError{Permanent: true, Err: err}
	default:
		return &gateways.ProviderError{Permanent: false, Err: err}
	}
}
