package usecases

import (
	"context"
	"time"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/domain/repositories"
)

const (
	dashboardStatsWindow = 30 * 24 * time.Hour
	dashboardRecentTasks = 5
	dashboardRecentLogs  = 10
	activityListLimit    = 100
)

// DashboardStats summarizes the last 30 days of rollups.
type DashboardStats struct {
	RecoveredCents int64 `json:"recoveredCents"`
	EmailsSent     int64 `json:"emailsSent"`
	TotalOpens     int64 `json:"totalOpens"`
	TotalClicks    int64 `json:"totalClicks"`
}

// DashboardView is the GET /dashboard response.
type DashboardView struct {
	Stats          DashboardStats             `json:"stats"`
	RecentTasks    []*entities.Task           `json:"recentTasks"`
	RecentActivity []*entities.UsageLog       `json:"recentActivity"`
	Usage          DashboardUsage             `json:"usage"`
	Merchant       *entities.MerchantResponse `json:"merchant"`
}

// DashboardUsage is the quota headroom block.
type DashboardUsage struct {
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}

// DashboardUsecase aggregates the merchant-facing overview.
type DashboardUsecase struct {
	taskRepo     repositories.TaskRepository
	usageLogRepo repositories.UsageLogRepository
	dailyRepo    repositories.DailyMetricRepository
	quota        *QuotaUsecase
}

func NewDashboardUsecase(
	taskRepo repositories.TaskRepository,
	usageLogRepo repositories.UsageLogRepository,
	dailyRepo repositories.DailyMetricRepository,
	quota *QuotaUsecase,
) *DashboardUsecase {
	return &DashboardUsecase{
		taskRepo:     taskRepo,
		usageLogRepo: usageLogRepo,
		dailyRepo:    dailyRepo,
		quota:        quota,
	}
}

func (u *DashboardUsecase) View(ctx context.Context, merchant *entities.Merchant) (*DashboardView, error) {
	now := time.Now()
	window, err := u.dailyRepo.Window(ctx, merchant.ID.String(), now.Add(-dashboardStatsWindow), now)
	if err != nil {
		return nil, err
	}

	var stats DashboardStats
	for _, day := range window {
		stats.RecoveredCents += day.RecoveredCents
		stats.EmailsSent += day.EmailsSent
		stats.TotalOpens += day.TotalOpens
		stats.TotalClicks += day.TotalClicks
	}

	tasks, err := u.taskRepo.ListByMerchant(ctx, merchant.ID.String(), "", dashboardRecentTasks)
	if err != nil {
		return nil, err
	}

	activity, err := u.usageLogRepo.ListRecent(ctx, merchant.ID.String(), dashboardRecentLogs)
	if err != nil {
		return nil, err
	}

	current, limit, err := u.quota.MonthlyUsage(ctx, merchant)
	if err != nil {
		return nil, err
	}

	return &DashboardView{
		Stats:          stats,
		RecentTasks:    tasks,
		RecentActivity: activity,
		Usage:          DashboardUsage{Current: current, Limit: limit},
		Merchant:       merchant.ToResponse(),
	}, nil
}

// Activity returns the merchant's recent usage logs for GET /activity.
func (u *DashboardUsecase) Activity(ctx context.Context, merchant *entities.Merchant) ([]*entities.UsageLog, error) {
	return u.usageLogRepo.ListRecent(ctx, merchant.ID.String(), activityListLimit)
}
