package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"recovery-kita.backend/internal/interfaces/http/response"
	"recovery-kita.backend/internal/usecases"
	"recovery-kita.backend/pkg/logger"
)

const maxWebhookBody = 1 << 16 // 64 KiB, well above any provider event

// WebhookHandler verifies provider webhook signatures and hands verified
// events to the webhook usecase.
type WebhookHandler struct {
	webhookUsecase *usecases.WebhookUsecase
	signingSecret  string
}

func NewWebhookHandler(webhookUsecase *usecases.WebhookUsecase, signingSecret string) *WebhookHandler {
	return &WebhookHandler{webhookUsecase: webhookUsecase, signingSecret: signingSecret}
}

// HandlePaymentProviderWebhook handles POST /webhooks/stripe. A signature
// mismatch is a 400 with no state mutation; a duplicate event id is a 200
// so the provider stops retrying.
func (h *WebhookHandler) HandlePaymentProviderWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.signingSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		logger.Warn(c.Request.Context(), "webhook signature verification failed",
			zap.String("client_ip", c.ClientIP()),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	outcome, err := h.webhookUsecase.HandleEvent(c.Request.Context(), &usecases.ProviderEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Account: event.Account,
		Data:    event.Data.Raw,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"received": true, "outcome": outcome})
}
