package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recovery-kita.backend/internal/domain/entities"
)

func TestDailyMetricRepository_UpsertRecoveredAdds(t *testing.T) {
	db := newTestDB(t)
	createUsageTables(t, db)
	repo := NewDailyMetricRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertRecovered(ctx, "m1", 1500))
	require.NoError(t, repo.UpsertRecovered(ctx, "m1", 500))

	window, err := repo.Window(ctx, "m1", time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.EqualValues(t, 2000, window[0].RecoveredCents)
}

func TestDailyMetricRepository_WindowBounds(t *testing.T) {
	db := newTestDB(t)
	createUsageTables(t, db)
	repo := NewDailyMetricRepository(db)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -10).Format(entities.MetricDateLayout)
	mustExec(t, db, `INSERT INTO daily_metrics (merchant_id, metric_date, recovered_cents, emails_sent, total_opens, total_clicks)
		VALUES ('m1', ?, 100, 1, 0, 0)`, old)
	require.NoError(t, repo.UpsertRecovered(ctx, "m1", 200))

	window, err := repo.Window(ctx, "m1", time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Len(t, window, 1, "rows outside the window are excluded")
	assert.EqualValues(t, 200, window[0].RecoveredCents)
}

func TestDailyMetricRepository_DeleteForMerchant(t *testing.T) {
	db := newTestDB(t)
	createUsageTables(t, db)
	repo := NewDailyMetricRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertRecovered(ctx, "m1", 100))
	require.NoError(t, repo.UpsertRecovered(ctx, "m2", 100))
	require.NoError(t, repo.DeleteForMerchant(ctx, "m1"))

	window, err := repo.Window(ctx, "m1", time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, window)

	window, err = repo.Window(ctx, "m2", time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	assert.Len(t, window, 1)
}

func TestEmailTemplateRepository_UpsertAndGet(t *testing.T) {
	db := newTestDB(t)
	createEmailTemplateTable(t, db)
	repo := NewEmailTemplateRepository(db)
	ctx := context.Background()

	tpl := &entities.EmailTemplate{MerchantID: "m1", RetryAttempt: 1, Subject: "Payment failed", Body: "<p>Hi {{customer_name}}</p>"}
	require.NoError(t, repo.Upsert(ctx, tpl))

	got, err := repo.Get(ctx, "m1", 1)
	require.NoError(t, err)
	assert.Equal(t, "Payment failed", got.Subject)

	tpl.Subject = "Second notice"
	require.NoError(t, repo.Upsert(ctx, tpl))

	got, err = repo.Get(ctx, "m1", 1)
	require.NoError(t, err)
	assert.Equal(t, "Second notice", got.Subject, "upsert replaces, it does not duplicate")

	_, err = repo.Get(ctx, "m1", 2)
	assert.Error(t, err)
}
