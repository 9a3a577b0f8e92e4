package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/domain/repositories"
	"recovery-kita.backend/pkg/logger"
)

// ProviderEvent is a signature-verified webhook event. Account is set when
// the event originated on a connected (tenant) account.
type ProviderEvent struct {
	ID      string
	Type    string
	Account string
	Data    json.RawMessage
}

// Webhook routing outcomes, echoed in the HTTP response.
const (
	WebhookOutcomeIgnored   = "ignored"
	WebhookOutcomeScheduled = "scheduled"
	WebhookOutcomeProcessed = "processed"
)

const billingReasonSubscriptionCycle = "subscription_cycle"

// WebhookUsecase deduplicates provider events and turns them into queued
// work. The event-id lock is taken before any routing; losers of the lock
// perform no side effects.
type WebhookUsecase struct {
	merchantRepo  repositories.MerchantRepository
	taskRepo      repositories.TaskRepository
	usageLogRepo  repositories.UsageLogRepository
	dailyRepo     repositories.DailyMetricRepository
	processedRepo repositories.ProcessedEventRepository
	uow           repositories.UnitOfWork
}

func NewWebhookUsecase(
	merchantRepo repositories.MerchantRepository,
	taskRepo repositories.TaskRepository,
	usageLogRepo repositories.UsageLogRepository,
	dailyRepo repositories.DailyMetricRepository,
	processedRepo repositories.ProcessedEventRepository,
	uow repositories.UnitOfWork,
) *WebhookUsecase {
	return &WebhookUsecase{
		merchantRepo:  merchantRepo,
		taskRepo:      taskRepo,
		usageLogRepo:  usageLogRepo,
		dailyRepo:     dailyRepo,
		processedRepo: processedRepo,
		uow:           uow,
	}
}

// RetryDelayForAttempt is the dunning schedule: attempt 1 → 3 days,
// 2 → 5 days, 3 and beyond → 7 days.
func RetryDelayForAttempt(attemptCount int64) time.Duration {
	switch attemptCount {
	case 1:
		return 3 * 24 * time.Hour
	case 2:
		return 5 * 24 * time.Hour
	case 3:
		return 7 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// HandleEvent processes one verified event, returning the routing outcome.
func (u *WebhookUsecase) HandleEvent(ctx context.Context, event *ProviderEvent) (string, error) {
	acquired, err := u.processedRepo.AttemptLock(ctx, event.ID)
	if err != nil {
		return "", err
	}
	if !acquired {
		return WebhookOutcomeIgnored, nil
	}

	switch event.Type {
	case "invoice.payment_failed":
		return u.handlePaymentFailed(ctx, event)
	case "invoice.payment_action_required":
		return u.handleActionRequired(ctx, event)
	case "invoice.payment_succeeded":
		return u.handlePaymentSucceeded(ctx, event)
	case "customer.subscription.deleted":
		return u.handleSubscriptionDeleted(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated":
		return u.handleSubscriptionChanged(ctx, event)
	default:
		return WebhookOutcomeIgnored, nil
	}
}

type invoicePayload struct {
	ID               string `json:"id"`
	BillingReason    string `json:"billing_reason"`
	AttemptCount     int64  `json:"attempt_count"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
	AmountPaid       int64  `json:"amount_paid"`
}

type subscriptionPayload struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (u *WebhookUsecase) handlePaymentFailed(ctx context.Context, event *ProviderEvent) (string, error) {
	var invoice invoicePayload
	if err := json.Unmarshal(event.Data, &invoice); err != nil {
		return "", domainerrors.BadRequest("malformed invoice payload")
	}

	// Only renewal failures are recoverable dunning candidates; first
	// charges, updates and manual invoices are out of scope.
	if invoice.BillingReason != billingReasonSubscriptionCycle {
		return WebhookOutcomeIgnored, nil
	}

	merchant, err := u.merchantRepo.GetByStripeAccountID(ctx, event.Account)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			logger.Warn(ctx, "payment_failed for unknown account", zap.String("event_id", event.ID))
			return WebhookOutcomeIgnored, nil
		}
		return "", err
	}

	payload, err := json.Marshal(entities.DunningRetryPayload{
		InvoiceID:    invoice.ID,
		AttemptCount: invoice.AttemptCount,
	})
	if err != nil {
		return "", err
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.taskRepo.Create(txCtx, &entities.Task{
			MerchantID: merchant.ID.String(),
			Type:       entities.TaskTypeDunningRetry,
			Payload:    payload,
			RunAt:      time.Now().Add(RetryDelayForAttempt(invoice.AttemptCount)),
		}); err != nil {
			return err
		}
		return u.usageLogRepo.Create(txCtx, &entities.UsageLog{
			MerchantID: merchant.ID.String(),
			MetricType: entities.MetricTaskScheduled,
		})
	})
	if err != nil {
		return "", err
	}
	return WebhookOutcomeScheduled, nil
}

func (u *WebhookUsecase) handleActionRequired(ctx context.Context, event *ProviderEvent) (string, error) {
	var invoice invoicePayload
	if err := json.Unmarshal(event.Data, &invoice); err != nil {
		return "", domainerrors.BadRequest("malformed invoice payload")
	}

	merchant, err := u.merchantRepo.GetByStripeAccountID(ctx, event.Account)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return WebhookOutcomeIgnored, nil
		}
		return "", err
	}

	payload, err := json.Marshal(entities.NotifyActionRequiredPayload{
		InvoiceID:        invoice.ID,
		HostedInvoiceURL: invoice.HostedInvoiceURL,
	})
	if err != nil {
		return "", err
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.taskRepo.Create(txCtx, &entities.Task{
			MerchantID: merchant.ID.String(),
			Type:       entities.TaskTypeNotifyActionRequired,
			Payload:    payload,
			RunAt:      time.Now(),
		}); err != nil {
			return err
		}
		return u.usageLogRepo.Create(txCtx, &entities.UsageLog{
			MerchantID: merchant.ID.String(),
			MetricType: entities.MetricActionRequired,
		})
	})
	if err != nil {
		return "", err
	}
	return WebhookOutcomeScheduled, nil
}

// handlePaymentSucceeded is a sentinel: it records the recovery but books
// zero cents until product decides whether this handler owns the
// recovered_cents counter.
func (u *WebhookUsecase) handlePaymentSucceeded(ctx context.Context, event *ProviderEvent) (string, error) {
	merchant, err := u.merchantRepo.GetByStripeAccountID(ctx, event.Account)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return WebhookOutcomeIgnored, nil
		}
		return "", err
	}

	if err := u.usageLogRepo.Create(ctx, &entities.UsageLog{
		MerchantID: merchant.ID.String(),
		MetricType: entities.MetricRecoverySuccess,
	}); err != nil {
		return "", err
	}
	if err := u.dailyRepo.UpsertRecovered(ctx, merchant.ID.String(), 0); err != nil {
		return "", err
	}
	return WebhookOutcomeProcessed, nil
}

func (u *WebhookUsecase) handleSubscriptionDeleted(ctx context.Context, event *ProviderEvent) (string, error) {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.Data, &sub); err != nil {
		return "", domainerrors.BadRequest("malformed subscription payload")
	}

	merchant, err := u.merchantRepo.GetByStripeCustomerID(ctx, sub.Customer)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return WebhookOutcomeIgnored, nil
		}
		return "", err
	}

	if err := u.usageLogRepo.Create(ctx, &entities.UsageLog{
		MerchantID: merchant.ID.String(),
		MetricType: entities.MetricSubscriptionChurned,
	}); err != nil {
		return "", err
	}
	return WebhookOutcomeProcessed, nil
}

func (u *WebhookUsecase) handleSubscriptionChanged(ctx context.Context, event *ProviderEvent) (string, error) {
	// Trust boundary: subscription events raised on a connected account
	// describe the tenant's own customers and must never touch platform
	// billing state.
	if event.Account != "" {
		return WebhookOutcomeIgnored, nil
	}

	var sub subscriptionPayload
	if err := json.Unmarshal(event.Data, &sub); err != nil {
		return "", domainerrors.BadRequest("malformed subscription payload")
	}

	merchant, err := u.merchantRepo.GetByStripeCustomerID(ctx, sub.Customer)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return WebhookOutcomeIgnored, nil
		}
		return "", err
	}

	planID := entities.PlanFree
	if sub.Status == "active" || sub.Status == "trialing" {
		if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price.ID != "" {
			planID = sub.Items.Data[0].Price.ID
		}
	}

	if err := u.merchantRepo.UpdatePlan(ctx, merchant.ID, planID); err != nil {
		return "", err
	}
	return WebhookOutcomeProcessed, nil
}
