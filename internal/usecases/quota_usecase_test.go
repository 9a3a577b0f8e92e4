package usecases_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/usecases"
)

func freeMerchant() *entities.Merchant {
	return &entities.Merchant{ID: uuid.New(), PlanID: entities.PlanFree}
}

func TestQuota_CreateAllowedUnderLimits(t *testing.T) {
	usageRepo := new(MockUsageLogRepository)
	taskRepo := new(MockTaskRepository)
	quota := usecases.NewQuotaUsecase(usageRepo, taskRepo)
	merchant := freeMerchant()

	taskRepo.On("CountPending", mock.Anything, merchant.ID.String()).Return(int64(0), nil)
	usageRepo.On("MonthlyDunningCount", mock.Anything, merchant.ID.String()).Return(int64(5), nil)

	require.NoError(t, quota.CheckCreateAllowed(context.Background(), merchant))
}

func TestQuota_QueueOverflowIs429(t *testing.T) {
	usageRepo := new(MockUsageLogRepository)
	taskRepo := new(MockTaskRepository)
	quota := usecases.NewQuotaUsecase(usageRepo, taskRepo)
	merchant := freeMerchant()
	plan := entities.PlanFor(merchant.PlanID)

	taskRepo.On("CountPending", mock.Anything, merchant.ID.String()).Return(plan.QueueLimit, nil)

	err := quota.CheckCreateAllowed(context.Background(), merchant)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 429, appErr.Status)
}

func TestQuota_MonthlyLimitIs402(t *testing.T) {
	usageRepo := new(MockUsageLogRepository)
	taskRepo := new(MockTaskRepository)
	quota := usecases.NewQuotaUsecase(usageRepo, taskRepo)
	merchant := freeMerchant()
	plan := entities.PlanFor(merchant.PlanID)

	taskRepo.On("CountPending", mock.Anything, merchant.ID.String()).Return(int64(0), nil)
	usageRepo.On("MonthlyDunningCount", mock.Anything, merchant.ID.String()).Return(plan.MonthlyLimit, nil)

	err := quota.CheckCreateAllowed(context.Background(), merchant)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 402, appErr.Status)
}

func TestQuota_UnknownPlanFallsBackToFree(t *testing.T) {
	plan := entities.PlanFor("price_discontinued")
	assert.Equal(t, entities.PlanFree, plan.ID)
}

func TestQuota_MonthlyUsage(t *testing.T) {
	usageRepo := new(MockUsageLogRepository)
	taskRepo := new(MockTaskRepository)
	quota := usecases.NewQuotaUsecase(usageRepo, taskRepo)
	merchant := freeMerchant()

	usageRepo.On("MonthlyDunningCount", mock.Anything, merchant.ID.String()).Return(int64(7), nil)

	current, limit, err := quota.MonthlyUsage(context.Background(), merchant)
	require.NoError(t, err)
	assert.EqualValues(t, 7, current)
	assert.Equal(t, entities.PlanFor(entities.PlanFree).MonthlyLimit, limit)
}
