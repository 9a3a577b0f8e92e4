package payments

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"recovery-kita.backend/internal/domain/gateways"
)

func TestClassify_NetworkErrorIsTransient(t *testing.T) {
	pe, ok := gateways.AsProviderError(classify(errors.New("dial tcp: i/o timeout")))
	require.True(t, ok)
	assert.False(t, pe.Permanent)
	assert.False(t, pe.IdempotencyReplay)
}

func TestClassify_IdempotencyReplay(t *testing.T) {
	err := &stripe.Error{Code: stripe.ErrorCodeIdempotencyKeyInUse, HTTPStatusCode: 400}
	pe, ok := gateways.AsProviderError(classify(err))
	require.True(t, ok)
	assert.True(t, pe.IdempotencyReplay)
}

func TestClassify_RateLimitIsTransient(t *testing.T) {
	err := &stripe.Error{HTTPStatusCode: 429, Type: stripe.ErrorTypeRateLimit}
	pe, ok := gateways.AsProviderError(classify(err))
	require.True(t, ok)
	assert.False(t, pe.Permanent)
}

func TestClassify_ResourceCodeIsPermanent(t *testing.T) {
	err := &stripe.Error{Code: stripe.ErrorCodeResourceMissing, HTTPStatusCode: 404}
	pe, ok := gateways.AsProviderError(classify(err))
	require.True(t, ok)
	assert.True(t, pe.Permanent)
}

func TestClassify_InvalidRequestIsPermanent(t *testing.T) {
	err := &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: 400}
	pe, ok := gateways.AsProviderError(classify(err))
	require.True(t, ok)
	assert.True(t, pe.Permanent)
}

func TestClassify_ServerErrorIsTransient(t *testing.T) {
	err := &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: 500}
	pe, ok := gateways.AsProviderError(classify(err))
	require.True(t, ok)
	assert.False(t, pe.Permanent)
}

func TestAuthorizeURL(t *testing.T) {
	c := NewStripeClient("sk_test_x", "ca_client123", "dunning_email_sent")
	u := c.AuthorizeURL("state-abc")
	assert.Contains(t, u, "https://connect.stripe.com/oauth/authorize?")
	assert.Contains(t, u, "client_id=ca_client123")
	assert.Contains(t, u, "state=state-abc")
	assert.Contains(t, u, "response_type=code")
}
