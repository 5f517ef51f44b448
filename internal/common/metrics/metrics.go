package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ResolutionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_resolution_outcomes_total",
			Help: "Entity resolution outcomes (no_match, resolved, ambiguous)",
		},
		[]string{"outcome"},
	)

	CollectionFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_collection_fetch_failures_total",
			Help: "CRM collection fetches that failed during fan-out",
		},
		[]string{"collection"},
	)

	CRMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_api_request_duration_seconds",
			Help:    "Duration of CRM API requests",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "collection"},
	)

	ConfirmationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_confirmation_transitions_total",
			Help: "Confirmation state machine transitions",
		},
		[]string{"transition"},
	)

	IntentAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_intent_analyses_total",
			Help: "Query analyses by source (model, heuristic)",
		},
		[]string{"source"},
	)
)
