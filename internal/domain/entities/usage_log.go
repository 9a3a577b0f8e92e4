package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Known metric types. The column is an open string; these are the values the
// engine writes itself.
const (
	MetricDunningEmailSent     = "dunning_email_sent"
	MetricRecoverySuccess      = "recovery_success"
	MetricRecoveryFailed       = "recovery_failed"
	MetricTaskRetry            = "task_retry"
	MetricTaskScheduled        = "task_scheduled"
	MetricMerchantConnected    = "merchant_connected"
	MetricMerchantDisconnected = "merchant_disconnected"
	MetricQuotaExceeded        = "quota_exceeded"
	MetricActionRequired       = "action_required_notification"
	MetricSubscriptionChurned  = "subscription_churned"
)

// UsageLog records one billable or informational event for a merchant.
// ReportedAt transitions null→timestamp exactly once.
type UsageLog struct {
	ID         int64     `json:"id"`
	MerchantID string    `json:"merchantId"`
	MetricType string    `json:"metricType"`
	Amount     int64     `json:"amount"`
	OpenedAt   null.Time `json:"openedAt,omitempty"`
	ClickedAt  null.Time `json:"clickedAt,omitempty"`
	ReportedAt null.Time `json:"reportedAt,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DailyMetric is the per-merchant per-UTC-day rollup, maintained atomically
// with every usage-log insert. MetricDate is the UTC date as "2006-01-02".
type DailyMetric struct {
	MerchantID     string `json:"merchantId"`
	MetricDate     string `json:"metricDate"`
	RecoveredCents int64  `json:"recoveredCents"`
	EmailsSent     int64  `json:"emailsSent"`
	TotalOpens     int64  `json:"totalOpens"`
	TotalClicks    int64  `json:"totalClicks"`
}

// MetricDateLayout is the storage layout of DailyMetric.MetricDate.
const MetricDateLayout = "2006-01-02"

// ProcessedEvent is the idempotency ledger row: first writer wins on the
// external event id, insertion is the commit point.
type ProcessedEvent struct {
	EventID     string    `json:"eventId"`
	ProcessedAt time.Time `json:"processedAt"`
}
