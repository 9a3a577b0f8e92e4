package usecases

import (
	"context"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/domain/repositories"
)

// QuotaUsecase gates user-initiated task creation and reports usage
// headroom. The worker and reporter run their own re-checks through the
// same monthly count.
type QuotaUsecase struct {
	usageLogRepo repositories.UsageLogRepository
	taskRepo     repositories.TaskRepository
}

func NewQuotaUsecase(usageLogRepo repositories.UsageLogRepository, taskRepo repositories.TaskRepository) *QuotaUsecase {
	return &QuotaUsecase{usageLogRepo: usageLogRepo, taskRepo: taskRepo}
}

// CheckCreateAllowed rejects task creation when the merchant's monthly
// dunning count or pending-queue depth is at the plan limit.
func (u *QuotaUsecase) CheckCreateAllowed(ctx context.Context, merchant *entities.Merchant) error {
	plan := entities.PlanFor(merchant.PlanID)

	pending, err := u.taskRepo.CountPending(ctx, merchant.ID.String())
	if err != nil {
		return err
	}
	if pending >= plan.QueueLimit {
		return domainerrors.TooManyRequests("task queue limit reached for plan " + plan.Name)
	}

	monthly, err := u.usageLogRepo.MonthlyDunningCount(ctx, merchant.ID.String())
	if err != nil {
		return err
	}
	if monthly >= plan.MonthlyLimit {
		return domainerrors.PaymentRequired("monthly dunning limit reached for plan " + plan.Name)
	}
	return nil
}

// MonthlyUsage returns the merchant's consumed and allowed dunning volume
// for the current month.
func (u *QuotaUsecase) MonthlyUsage(ctx context.Context, merchant *entities.Merchant) (current, limit int64, err error) {
	plan := entities.PlanFor(merchant.PlanID)
	current, err = u.usageLogRepo.MonthlyDunningCount(ctx, merchant.ID.String())
	if err != nil {
		return 0, 0, err
	}
	return current, plan.MonthlyLimit, nil
}

// OverMonthlyLimit reports whether the merchant has exhausted the monthly
// allowance. Used by the worker and the usage reporter.
func (u *QuotaUsecase) OverMonthlyLimit(ctx context.Context, merchant *entities.Merchant) (bool, error) {
	current, limit, err := u.MonthlyUsage(ctx, merchant)
	if err != nil {
		return false, err
	}
	return current >= limit, nil
}
