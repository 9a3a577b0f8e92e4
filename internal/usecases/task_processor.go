package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/domain/gateways"
	"recovery-kita.backend/internal/domain/repositories"
	"recovery-kita.backend/pkg/logger"
)

const (
	reportBatchSize        = 100
	reporterReschedule     = 5 * time.Minute
	digestReschedule       = 7 * 24 * time.Hour
	digestWindow           = 7 * 24 * time.Hour
	meterIdempotencyPrefix = "usage_log_"
)

var errQuotaExceeded = errors.New("monthly dunning quota exceeded")

// TaskProcessor executes claimed tasks. Every handler is safe to re-run:
// the idempotency of provider reporting and the usage ledger compensate for
// the at-least-once execution the janitor's zombie rescue implies.
type TaskProcessor struct {
	merchantRepo repositories.MerchantRepository
	taskRepo     repositories.TaskRepository
	usageLogRepo repositories.UsageLogRepository
	dailyRepo    repositories.DailyMetricRepository
	templateRepo repositories.EmailTemplateRepository
	quota        *QuotaUsecase
	tracking     *TrackingUsecase
	provider     gateways.PaymentProvider
	emailSender  gateways.EmailSender
}

func NewTaskProcessor(
	merchantRepo repositories.MerchantRepository,
	taskRepo repositories.TaskRepository,
	usageLogRepo repositories.UsageLogRepository,
	dailyRepo repositories.DailyMetricRepository,
	templateRepo repositories.EmailTemplateRepository,
	quota *QuotaUsecase,
	tracking *TrackingUsecase,
	provider gateways.PaymentProvider,
	emailSender gateways.EmailSender,
) *TaskProcessor {
	return &TaskProcessor{
		merchantRepo: merchantRepo,
		taskRepo:     taskRepo,
		usageLogRepo: usageLogRepo,
		dailyRepo:    dailyRepo,
		templateRepo: templateRepo,
		quota:        quota,
		tracking:     tracking,
		provider:     provider,
		emailSender:  emailSender,
	}
}

// ProcessTask dispatches on task type. An error return makes the worker
// mark the task failed.
func (p *TaskProcessor) ProcessTask(ctx context.Context, task *entities.Task) error {
	switch task.Type {
	case entities.TaskTypeDunningRetry:
		return p.processDunningRetry(ctx, task)
	case entities.TaskTypeNotifyActionRequired:
		return p.processNotifyActionRequired(ctx, task)
	case entities.TaskTypeReportUsage:
		return p.processReportUsage(ctx, task)
	case entities.TaskTypeSendWeeklyDigest:
		return p.processSendWeeklyDigest(ctx, task)
	default:
		return fmt.Errorf("unknown task type %q", task.Type)
	}
}

// decodePayload parses a task payload into its typed form, rejecting
// unknown fields.
func decodePayload(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (p *TaskProcessor) loadMerchant(ctx context.Context, merchantID string) (*entities.Merchant, error) {
	id, err := uuid.Parse(merchantID)
	if err != nil {
		return nil, fmt.Errorf("invalid merchant id %q: %w", merchantID, err)
	}
	return p.merchantRepo.GetByID(ctx, id)
}

func (p *TaskProcessor) processDunningRetry(ctx context.Context, task *entities.Task) error {
	var payload entities.DunningRetryPayload
	if err := decodePayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("malformed dunning_retry payload: %w", err)
	}

	merchant, err := p.loadMerchant(ctx, task.MerchantID)
	if err != nil {
		return err
	}

	// Webhook-enqueued tasks bypass the ingress gate; backpressure happens
	// here, at processing time.
	over, err := p.quota.OverMonthlyLimit(ctx, merchant)
	if err != nil {
		return err
	}
	if over {
		if err := p.usageLogRepo.Create(ctx, &entities.UsageLog{
			MerchantID: merchant.ID.String(),
			MetricType: entities.MetricQuotaExceeded,
		}); err != nil {
			logger.Error(ctx, "failed to record quota_exceeded", zap.Error(err))
		}
		return errQuotaExceeded
	}

	invoice, err := p.provider.FetchInvoice(ctx, merchant.StripeAccountID.String, payload.InvoiceID)
	if err != nil {
		return err
	}

	// Paid or voided since the failure: nothing to recover.
	if invoice.Status == gateways.InvoiceStatusPaid || invoice.Status == gateways.InvoiceStatusVoid {
		return nil
	}
	if invoice.Status != gateways.InvoiceStatusOpen || invoice.CustomerEmail == "" {
		return nil
	}

	// The usage log lands before the send so every attempt counts against
	// quota even when delivery fails; meter-report idempotency absorbs the
	// double-count risk of a retried send.
	usageLog := &entities.UsageLog{
		MerchantID: merchant.ID.String(),
		MetricType: entities.MetricDunningEmailSent,
	}
	if err := p.usageLogRepo.Create(ctx, usageLog); err != nil {
		return err
	}

	attempt := payload.AttemptCount
	if attempt < 1 {
		attempt = 1
	}

	tpl, err := p.templateRepo.Get(ctx, merchant.ID.String(), int(attempt))
	if err != nil {
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return err
		}
		def := defaultTemplateFor(attempt)
		tpl = &def
	}

	updateURL := p.tracking.ClickURL(invoice.HostedInvoiceURL, usageLog.ID)
	html := renderTemplate(tpl.Body, invoice.CustomerName, formatAmount(invoice.AmountDueCents, invoice.Currency), updateURL)
	html += fmt.Sprintf(`<img src="%s" width="1" height="1" alt=""/>`, p.tracking.OpenPixelURL(usageLog.ID))

	_, err = p.emailSender.Send(ctx, &gateways.EmailMessage{
		To:       invoice.CustomerEmail,
		Subject:  renderTemplate(tpl.Subject, invoice.CustomerName, formatAmount(invoice.AmountDueCents, invoice.Currency), updateURL),
		HTMLBody: html,
		TextBody: htmlToText(renderTemplate(tpl.Body, invoice.CustomerName, formatAmount(invoice.AmountDueCents, invoice.Currency), invoice.HostedInvoiceURL)),
		RefID:    merchant.ID.String(),
	})
	if err != nil {
		return fmt.Errorf("dunning email send failed: %w", err)
	}
	return nil
}

func (p *TaskProcessor) processNotifyActionRequired(ctx context.Context, task *entities.Task) error {
	var payload entities.NotifyActionRequiredPayload
	if err := decodePayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("malformed notify_action_required payload: %w", err)
	}

	merchant, err := p.loadMerchant(ctx, task.MerchantID)
	if err != nil {
		return err
	}

	invoice, err := p.provider.FetchInvoice(ctx, merchant.StripeAccountID.String, payload.InvoiceID)
	if err != nil {
		return err
	}
	if invoice.CustomerEmail == "" {
		return nil
	}

	confirmURL := invoice.HostedInvoiceURL
	if confirmURL == "" {
		confirmURL = payload.HostedInvoiceURL
	}

	html := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your bank asked for an extra confirmation step to complete your payment of %s.</p>
<p><a href="%s">Confirm your payment</a></p>`,
		invoice.CustomerName, formatAmount(invoice.AmountDueCents, invoice.Currency), confirmURL)

	if _, err := p.emailSender.Send(ctx, &gateways.EmailMessage{
		To:       invoice.CustomerEmail,
		Subject:  "Action required to complete your payment",
		HTMLBody: html,
		TextBody: htmlToText(html),
		RefID:    merchant.ID.String(),
	}); err != nil {
		return fmt.Errorf("action-required email send failed: %w", err)
	}

	return p.usageLogRepo.Create(ctx, &entities.UsageLog{
		MerchantID: merchant.ID.String(),
		MetricType: entities.MetricDunningEmailSent,
	})
}

// processReportUsage forwards unreported usage to the provider's billing
// meter. The successor task is enqueued unconditionally — the chain must
// survive any failure in the batch.
func (p *TaskProcessor) processReportUsage(ctx context.Context, task *entities.Task) (retErr error) {
	defer func() {
		if err := p.taskRepo.Create(ctx, &entities.Task{
			MerchantID: entities.SystemMerchantID,
			Type:       entities.TaskTypeReportUsage,
			RunAt:      time.Now().Add(reporterReschedule),
		}); err != nil {
			logger.Error(ctx, "failed to enqueue successor report_usage", zap.Error(err))
			if retErr == nil {
				retErr = err
			}
		}
	}()

	logs, err := p.usageLogRepo.ListUnreported(ctx, reportBatchSize)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		return nil
	}

	merchants := map[string]*entities.Merchant{}
	overQuota := map[string]bool{}
	var reported []int64

	for _, usageLog := range logs {
		merchant, ok := merchants[usageLog.MerchantID]
		if !ok {
			merchant, err = p.loadMerchant(ctx, usageLog.MerchantID)
			if err != nil {
				if errors.Is(err, domainerrors.ErrNotFound) {
					// Owner erased; nothing left to bill.
					reported = append(reported, usageLog.ID)
					continue
				}
				return fmt.Errorf("load merchant %s: %w", usageLog.MerchantID, err)
			}
			merchants[usageLog.MerchantID] = merchant

			over, err := p.quota.OverMonthlyLimit(ctx, merchant)
			if err != nil {
				return err
			}
			overQuota[usageLog.MerchantID] = over
		}

		// Over-quota dunning rows are marked reported without touching the
		// provider so the queue keeps draining.
		if usageLog.MetricType == entities.MetricDunningEmailSent && overQuota[usageLog.MerchantID] {
			reported = append(reported, usageLog.ID)
			continue
		}

		if !merchant.StripeCustomerID.Valid || merchant.StripeCustomerID.String == "" {
			// No platform customer to bill against; isolate rather than
			// block the batch forever.
			reported = append(reported, usageLog.ID)
			continue
		}

		key := fmt.Sprintf("%s%d", meterIdempotencyPrefix, usageLog.ID)
		err = p.provider.PostMeterEvent(ctx, merchant.StripeCustomerID.String, usageLog.Amount, key)
		if err != nil {
			if pe, ok := gateways.AsProviderError(err); ok {
				if pe.IdempotencyReplay {
					// Already recorded upstream. Logged loudly: frequent
					// replays point at a reporter bug, not at the provider.
					logger.Warn(ctx, "meter event idempotency replay",
						zap.Int64("usage_log_id", usageLog.ID))
					reported = append(reported, usageLog.ID)
					continue
				}
				if pe.Permanent {
					logger.Error(ctx, "permanent provider error, isolating usage log",
						zap.Int64("usage_log_id", usageLog.ID), zap.Error(err))
					reported = append(reported, usageLog.ID)
					continue
				}
			}
			// Transient: leave unreported, retry next cycle.
			logger.Warn(ctx, "transient provider error, will retry",
				zap.Int64("usage_log_id", usageLog.ID), zap.Error(err))
			continue
		}
		reported = append(reported, usageLog.ID)
	}

	return p.usageLogRepo.MarkReported(ctx, reported)
}

// processSendWeeklyDigest emails the merchant a 7-day summary. The
// per-merchant chain re-arms unconditionally.
func (p *TaskProcessor) processSendWeeklyDigest(ctx context.Context, task *entities.Task) (retErr error) {
	merchant, err := p.loadMerchant(ctx, task.MerchantID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			// Merchant erased: let this chain die instead of re-arming it.
			return nil
		}
		return err
	}

	defer func() {
		if err := p.taskRepo.Create(ctx, &entities.Task{
			MerchantID: task.MerchantID,
			Type:       entities.TaskTypeSendWeeklyDigest,
			RunAt:      time.Now().Add(digestReschedule),
		}); err != nil {
			logger.Error(ctx, "failed to enqueue successor digest", zap.Error(err))
			if retErr == nil {
				retErr = err
			}
		}
	}()

	if !merchant.Email.Valid || merchant.Email.String == "" {
		return nil
	}

	now := time.Now()
	window, err := p.dailyRepo.Window(ctx, merchant.ID.String(), now.Add(-digestWindow), now)
	if err != nil {
		return err
	}

	var recovered, emails, opens, clicks int64
	for _, day := range window {
		recovered += day.RecoveredCents
		emails += day.EmailsSent
		opens += day.TotalOpens
		clicks += day.TotalClicks
	}

	html := fmt.Sprintf(`<p>Your payment recovery week in numbers:</p>
<ul>
<li>Recovered: %s</li>
<li>Recovery emails sent: %d</li>
<li>Opens: %d</li>
<li>Clicks: %d</li>
</ul>`, formatAmount(recovered, "usd"), emails, opens, clicks)

	if _, err := p.emailSender.Send(ctx, &gateways.EmailMessage{
		To:       merchant.Email.String,
		Subject:  "Your weekly recovery digest",
		HTMLBody: html,
		TextBody: htmlToText(html),
		RefID:    merchant.ID.String(),
	}); err != nil {
		return fmt.Errorf("digest send failed: %w", err)
	}
	return nil
}
