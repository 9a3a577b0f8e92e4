package entities

// Plan bounds a merchant's monthly dunning volume and pending-queue depth.
type Plan struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MonthlyLimit int64  `json:"monthlyLimit"`
	QueueLimit   int64  `json:"queueLimit"`
}

const (
	PlanFree    = "price_free"
	PlanStarter = "price_starter"
	PlanPro     = "price_pro"
	PlanScale   = "price_scale"
)

// Plans is the closed static plan mapping.
var Plans = map[string]Plan{
	PlanFree:    {ID: PlanFree, Name: "Free", MonthlyLimit: 20, QueueLimit: 10},
	PlanStarter: {ID: PlanStarter, Name: "Starter", MonthlyLimit: 500, QueueLimit: 100},
	PlanPro:     {ID: PlanPro, Name: "Pro", MonthlyLimit: 5000, QueueLimit: 1000},
	PlanScale:   {ID: PlanScale, Name: "Scale", MonthlyLimit: 50000, QueueLimit: 5000},
}

// PlanFor resolves a plan id, falling back to FREE for unknown ids so a
// stale price id never grants unlimited quota.
func PlanFor(planID string) Plan {
	if p, ok := Plans[planID]; ok {
		return p
	}
	return Plans[PlanFree]
}
