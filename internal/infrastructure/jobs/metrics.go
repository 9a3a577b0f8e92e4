package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recovery_tasks_processed_total",
		Help: "Tasks processed by the worker, by type and outcome.",
	}, []string{"type", "outcome"})

	claimErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recovery_worker_claim_errors_total",
		Help: "Errors encountered while claiming tasks.",
	})

	zombiesRescued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recovery_janitor_zombies_rescued_total",
		Help: "Running tasks reset to pending by the janitor.",
	})

	eventsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recovery_janitor_events_pruned_total",
		Help: "Processed-event ledger rows pruned by the janitor.",
	})
)
