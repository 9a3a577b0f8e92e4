package usecases_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/domain/gateways"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(context.Context) error) error {
	m.Called(ctx, fn)
	return fn(ctx)
}

// Mock MerchantRepository
type MockMerchantRepository struct {
	mock.Mock
}

func (m *MockMerchantRepository) Create(ctx context.Context, merchant *entities.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

func (m *MockMerchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) GetByAuthUserID(ctx context.Context, authUserID string) (*entities.Merchant, error) {
	args := m.Called(ctx, authUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) GetByStripeAccountID(ctx context.Context, accountID string) (*entities.Merchant, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*entities.Merchant, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) Update(ctx context.Context, merchant *entities.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

func (m *MockMerchantRepository) UpdatePlan(ctx context.Context, id uuid.UUID, planID string) error {
	args := m.Called(ctx, id, planID)
	return args.Error(0)
}

func (m *MockMerchantRepository) List(ctx context.Context) ([]*entities.Merchant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock TaskRepository
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *entities.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Task), args.Error(1)
}

func (m *MockTaskRepository) ListByMerchant(ctx context.Context, merchantID string, status entities.TaskStatus, limit int) ([]*entities.Task, error) {
	args := m.Called(ctx, merchantID, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Task), args.Error(1)
}

func (m *MockTaskRepository) ClaimNext(ctx context.Context) (*entities.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Task), args.Error(1)
}

func (m *MockTaskRepository) UpdateStatus(ctx context.Context, id int64, status entities.TaskStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTaskRepository) Requeue(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) CountPending(ctx context.Context, merchantID string) (int64, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) HasActive(ctx context.Context, merchantID string, taskType entities.TaskType) (bool, error) {
	args := m.Called(ctx, merchantID, taskType)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskRepository) ResetZombies(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteCompleted(ctx context.Context, merchantID string) (int64, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) DeleteActiveForMerchant(ctx context.Context, merchantID string) (int64, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) DeleteAllForMerchant(ctx context.Context, merchantID string) error {
	args := m.Called(ctx, merchantID)
	return args.Error(0)
}

// Mock UsageLogRepository
type MockUsageLogRepository struct {
	mock.Mock
}

func (m *MockUsageLogRepository) Create(ctx context.Context, log *entities.UsageLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockUsageLogRepository) MonthlyDunningCount(ctx context.Context, merchantID string) (int64, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsageLogRepository) ListRecent(ctx context.Context, merchantID string, limit int) ([]*entities.UsageLog, error) {
	args := m.Called(ctx, merchantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.UsageLog), args.Error(1)
}

func (m *MockUsageLogRepository) ListUnreported(ctx context.Context, limit int) ([]*entities.UsageLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.UsageLog), args.Error(1)
}

func (m *MockUsageLogRepository) MarkReported(ctx context.Context, ids []int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockUsageLogRepository) MarkOpened(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsageLogRepository) MarkClicked(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsageLogRepository) DeleteForMerchant(ctx context.Context, merchantID string) error {
	args := m.Called(ctx, merchantID)
	return args.Error(0)
}

// Mock DailyMetricRepository
type MockDailyMetricRepository struct {
	mock.Mock
}

func (m *MockDailyMetricRepository) Window(ctx context.Context, merchantID string, from, to time.Time) ([]*entities.DailyMetric, error) {
	args := m.Called(ctx, merchantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DailyMetric), args.Error(1)
}

func (m *MockDailyMetricRepository) UpsertRecovered(ctx context.Context, merchantID string, cents int64) error {
	args := m.Called(ctx, merchantID, cents)
	return args.Error(0)
}

func (m *MockDailyMetricRepository) DeleteForMerchant(ctx context.Context, merchantID string) error {
	args := m.Called(ctx, merchantID)
	return args.Error(0)
}

// Mock ProcessedEventRepository
type MockProcessedEventRepository struct {
	mock.Mock
}

func (m *MockProcessedEventRepository) AttemptLock(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProcessedEventRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// Mock EmailTemplateRepository
type MockEmailTemplateRepository struct {
	mock.Mock
}

func (m *MockEmailTemplateRepository) Upsert(ctx context.Context, tpl *entities.EmailTemplate) error {
	args := m.Called(ctx, tpl)
	return args.Error(0)
}

func (m *MockEmailTemplateRepository) Get(ctx context.Context, merchantID string, retryAttempt int) (*entities.EmailTemplate, error) {
	args := m.Called(ctx, merchantID, retryAttempt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EmailTemplate), args.Error(1)
}

func (m *MockEmailTemplateRepository) DeleteForMerchant(ctx context.Context, merchantID string) error {
	args := m.Called(ctx, merchantID)
	return args.Error(0)
}

// Mock PaymentProvider
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) FetchInvoice(ctx context.Context, stripeAccountID, invoiceID string) (*gateways.Invoice, error) {
	args := m.Called(ctx, stripeAccountID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateways.Invoice), args.Error(1)
}

func (m *MockPaymentProvider) PostMeterEvent(ctx context.Context, stripeCustomerID string, value int64, idempotencyKey string) error {
	args := m.Called(ctx, stripeCustomerID, value, idempotencyKey)
	return args.Error(0)
}

func (m *MockPaymentProvider) AuthorizeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockPaymentProvider) ExchangeOAuthCode(ctx context.Context, code string) (*gateways.OAuthResult, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateways.OAuthResult), args.Error(1)
}

func (m *MockPaymentProvider) Deauthorize(ctx context.Context, stripeAccountID string) error {
	args := m.Called(ctx, stripeAccountID)
	return args.Error(0)
}

func (m *MockPaymentProvider) CancelTenantSubscriptions(ctx context.Context, stripeAccountID string) error {
	args := m.Called(ctx, stripeAccountID)
	return args.Error(0)
}

func (m *MockPaymentProvider) CancelPlatformSubscriptions(ctx context.Context, stripeCustomerID string) error {
	args := m.Called(ctx, stripeCustomerID)
	return args.Error(0)
}

// Mock EmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, msg *gateways.EmailMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}
