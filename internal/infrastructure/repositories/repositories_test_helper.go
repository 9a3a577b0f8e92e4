package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createMerchantTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE merchants (
		id TEXT PRIMARY KEY,
		auth_user_id TEXT UNIQUE,
		email TEXT,
		stripe_account_id TEXT UNIQUE,
		stripe_customer_id TEXT UNIQUE,
		access_token TEXT,
		refresh_token TEXT,
		o_auth_state TEXT,
		tier TEXT NOT NULL DEFAULT 'free',
		plan_id TEXT NOT NULL DEFAULT 'price_free',
		billing_country TEXT,
		billing_address TEXT,
		from_name TEXT,
		support_email TEXT,
		brand_color TEXT,
		logo_url TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createTaskTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		merchant_id TEXT NOT NULL,
		type TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL,
		run_at DATETIME NOT NULL,
		created_at DATETIME
	);`)
	mustExec(t, db, `CREATE INDEX idx_tasks_status_run_at ON tasks(status, run_at);`)
	mustExec(t, db, `CREATE INDEX idx_tasks_merchant ON tasks(merchant_id);`)
}

func createUsageTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE usage_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		merchant_id TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		amount INTEGER NOT NULL DEFAULT 1,
		opened_at DATETIME,
		clicked_at DATETIME,
		reported_at DATETIME,
		created_at DATETIME
	);`)
	mustExec(t, db, `CREATE INDEX idx_usage_merchant_metric ON usage_logs(merchant_id, metric_type);`)
	mustExec(t, db, `CREATE INDEX idx_usage_reported_at ON usage_logs(reported_at);`)
	mustExec(t, db, `CREATE TABLE daily_metrics (
		merchant_id TEXT NOT NULL,
		metric_date TEXT NOT NULL,
		recovered_cents INTEGER NOT NULL DEFAULT 0,
		emails_sent INTEGER NOT NULL DEFAULT 0,
		total_opens INTEGER NOT NULL DEFAULT 0,
		total_clicks INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (merchant_id, metric_date)
	);`)
}

func createProcessedEventTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE processed_events (
		event_id TEXT PRIMARY KEY,
		processed_at DATETIME
	);`)
}

func createEmailTemplateTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE email_templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		merchant_id TEXT NOT NULL,
		retry_attempt INTEGER NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (merchant_id, retry_attempt)
	);`)
}
