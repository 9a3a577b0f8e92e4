package handlers_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/infrastructure/models"
	"recovery-kita.backend/internal/infrastructure/repositories"
	"recovery-kita.backend/internal/interfaces/http/handlers"
	"recovery-kita.backend/internal/usecases"
	"recovery-kita.backend/pkg/crypto"
)

const (
	testSigningSecret = "whsec_test_secret"
	testCipherKey     = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Merchant{}, &models.Task{}, &models.UsageLog{},
		&models.DailyMetric{}, &models.ProcessedEvent{}, &models.EmailTemplate{}))
	return db
}

type webhookEnv struct {
	db     *gorm.DB
	router *gin.Engine
	tasks  *repositories.TaskRepositoryImpl
}

func newWebhookEnv(t *testing.T) *webhookEnv {
	t.Helper()
	db := newHandlerTestDB(t)

	cipher, err := crypto.NewTokenCipher(testCipherKey)
	require.NoError(t, err)

	merchantRepo := repositories.NewMerchantRepository(db, cipher)
	taskRepo := repositories.NewTaskRepository(db)
	usageLogRepo := repositories.NewUsageLogRepository(db)
	dailyRepo := repositories.NewDailyMetricRepository(db)
	processedRepo := repositories.NewProcessedEventRepository(db)
	uow := repositories.NewUnitOfWork(db)

	usecase := usecases.NewWebhookUsecase(merchantRepo, taskRepo, usageLogRepo, dailyRepo, processedRepo, uow)
	handler := handlers.NewWebhookHandler(usecase, testSigningSecret)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/stripe", handler.HandlePaymentProviderWebhook)

	return &webhookEnv{db: db, router: r, tasks: taskRepo}
}

func (e *webhookEnv) seedMerchant(t *testing.T, accountID string) string {
	t.Helper()
	require.NoError(t, e.db.Exec(
		`INSERT INTO merchants (id, stripe_account_id, tier, plan_id, created_at, updated_at)
		 VALUES (?, ?, 'free', 'price_free', ?, ?)`,
		"f2f1a0aa-1111-2222-3333-444455556666", accountID, time.Now(), time.Now()).Error)
	return "f2f1a0aa-1111-2222-3333-444455556666"
}

// signPayload builds a Stripe-Signature header for the raw body using the
// documented t/v1 HMAC scheme.
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func (e *webhookEnv) post(payload []byte, sigHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", sigHeader)
	e.router.ServeHTTP(w, req)
	return w
}

func churnEventJSON(eventID string) []byte {
	return []byte(`{
		"id": "` + eventID + `",
		"object": "event",
		"type": "invoice.payment_failed",
		"account": "acct_A",
		"api_version": "2024-06-20",
		"data": {"object": {"id": "in_1", "object": "invoice", "billing_reason": "subscription_cycle", "attempt_count": 1}}
	}`)
}

func TestWebhookEndpoint_BadSignatureIs400NoMutation(t *testing.T) {
	env := newWebhookEnv(t)
	env.seedMerchant(t, "acct_A")

	w := env.post(churnEventJSON("evt_sig"), "t=12345,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count, "no state mutation on signature failure")
}

// Seed scenario S1 end to end: valid signature, renewal failure, one task
// at ~T0+3d plus a task_scheduled usage log.
func TestWebhookEndpoint_ChurnEnqueue(t *testing.T) {
	env := newWebhookEnv(t)
	merchantID := env.seedMerchant(t, "acct_A")
	payload := churnEventJSON("evt_1")

	w := env.post(payload, signPayload(payload, testSigningSecret))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "scheduled")

	var tasks []models.Task
	require.NoError(t, env.db.Find(&tasks).Error)
	require.Len(t, tasks, 1)
	assert.Equal(t, string(entities.TaskTypeDunningRetry), tasks[0].Type)
	assert.Equal(t, merchantID, tasks[0].MerchantID)
	assert.Contains(t, tasks[0].Payload, `"invoiceId":"in_1"`)
	assert.WithinDuration(t, time.Now().Add(3*24*time.Hour), tasks[0].RunAt, time.Minute)

	var logs []models.UsageLog
	require.NoError(t, env.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, entities.MetricTaskScheduled, logs[0].MetricType)
}

// Seed scenario S3: a second delivery of the same event id is a 200
// "ignored" with exactly one task and one log in the store.
func TestWebhookEndpoint_DuplicateDelivery(t *testing.T) {
	env := newWebhookEnv(t)
	env.seedMerchant(t, "acct_A")
	payload := churnEventJSON("evt_dup")

	first := env.post(payload, signPayload(payload, testSigningSecret))
	require.Equal(t, http.StatusOK, first.Code)

	second := env.post(payload, signPayload(payload, testSigningSecret))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "ignored")

	var taskCount, logCount int64
	require.NoError(t, env.db.Model(&models.Task{}).Count(&taskCount).Error)
	require.NoError(t, env.db.Model(&models.UsageLog{}).Count(&logCount).Error)
	assert.EqualValues(t, 1, taskCount)
	assert.EqualValues(t, 1, logCount)
}

// Seed scenario S2: onboarding failures hold the lock but schedule nothing.
func TestWebhookEndpoint_OnboardingIgnored(t *testing.T) {
	env := newWebhookEnv(t)
	env.seedMerchant(t, "acct_A")
	payload := []byte(`{
		"id": "evt_onboarding",
		"object": "event",
		"type": "invoice.payment_failed",
		"account": "acct_A",
		"data": {"object": {"id": "in_1", "object": "invoice", "billing_reason": "subscription_create", "attempt_count": 1}}
	}`)

	w := env.post(payload, signPayload(payload, testSigningSecret))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")

	var taskCount int64
	require.NoError(t, env.db.Model(&models.Task{}).Count(&taskCount).Error)
	assert.Zero(t, taskCount)

	var eventCount int64
	require.NoError(t, env.db.Model(&models.ProcessedEvent{}).Count(&eventCount).Error)
	assert.EqualValues(t, 1, eventCount, "lock is held even for ignored reasons")
}
