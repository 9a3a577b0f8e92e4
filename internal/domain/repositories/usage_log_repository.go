package repositories

import (
	"context"
	"time"

	"recovery-kita.backend/internal/domain/entities"
)

// UsageLogRepository is the usage ledger. Create commits the log row and the
// daily rollup in one transaction.
type UsageLogRepository interface {
	Create(ctx context.Context, log *entities.UsageLog) error
	MonthlyDunningCount(ctx context.Context, merchantID string) (int64, error)
	ListRecent(ctx context.Context, merchantID string, limit int) ([]*entities.UsageLog, error)
	// ListUnreported returns the oldest logs with reported_at IS NULL.
	ListUnreported(ctx context.Context, limit int) ([]*entities.UsageLog, error)
	MarkReported(ctx context.Context, ids []int64) error
	// MarkOpened stamps opened_at (once) and bumps the daily open counter.
	// Returns false when the log was already opened or does not exist.
	MarkOpened(ctx context.Context, id int64) (bool, error)
	// MarkClicked stamps clicked_at (once) and bumps the daily click counter.
	MarkClicked(ctx context.Context, id int64) (bool, error)
	DeleteForMerchant(ctx context.Context, merchantID string) error
}

// DailyMetricRepository reads and maintains the per-day rollups.
type DailyMetricRepository interface {
	Window(ctx context.Context, merchantID string, from, to time.Time) ([]*entities.DailyMetric, error)
	// UpsertRecovered adds cents to today's recovered_cents counter.
	UpsertRecovered(ctx context.Context, merchantID string, cents int64) error
	DeleteForMerchant(ctx context.Context, merchantID string) error
}

// ProcessedEventRepository is the idempotency ledger.
type ProcessedEventRepository interface {
	// AttemptLock inserts the event id; true means this caller is the first
	// writer and owns processing. Conflicts resolve as (false, nil).
	AttemptLock(ctx context.Context, eventID string) (bool, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// EmailTemplateRepository stores merchant dunning templates.
type EmailTemplateRepository interface {
	Upsert(ctx context.Context, tpl *entities.EmailTemplate) error
	Get(ctx context.Context, merchantID string, retryAttempt int) (*entities.EmailTemplate, error)
	DeleteForMerchant(ctx context.Context, merchantID string) error
}
