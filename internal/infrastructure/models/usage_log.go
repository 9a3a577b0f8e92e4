package models

import "time"

// UsageLog is one ledger row. reported_at transitions null→timestamp once.
type UsageLog struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	MerchantID string `gorm:"type:varchar(64);not null;index:idx_usage_merchant_metric,priority:1"`
	MetricType string `gorm:"type:varchar(64);not null;index:idx_usage_merchant_metric,priority:2"`
	Amount     int64  `gorm:"not null;default:1"`
	OpenedAt   *time.Time
	ClickedAt  *time.Time
	ReportedAt *time.Time `gorm:"index"`
	CreatedAt  time.Time
}

// ProcessedEvent is the idempotency ledger; the primary key on the external
// event id is the lock.
type ProcessedEvent struct {
	EventID     string `gorm:"type:varchar(255);primaryKey"`
	ProcessedAt time.Time
}

// DailyMetric is the per-day rollup with a composite primary key.
type DailyMetric struct {
	MerchantID     string `gorm:"type:varchar(64);primaryKey"`
	MetricDate     string `gorm:"type:varchar(10);primaryKey"`
	RecoveredCents int64  `gorm:"not null;default:0"`
	EmailsSent     int64  `gorm:"not null;default:0"`
	TotalOpens     int64  `gorm:"not null;default:0"`
	TotalClicks    int64  `gorm:"not null;default:0"`
}

// EmailTemplate is a merchant's custom dunning email for one retry attempt.
type EmailTemplate struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	MerchantID   string `gorm:"type:varchar(64);not null;uniqueIndex:idx_templates_merchant_attempt,priority:1"`
	RetryAttempt int    `gorm:"not null;uniqueIndex:idx_templates_merchant_attempt,priority:2"`
	Subject      string `gorm:"type:varchar(200);not null"`
	Body         string `gorm:"type:text;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
