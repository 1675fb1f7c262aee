// internal/common/metrics/metrics.go
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

	MatchingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_runs_total",
			Help: "Matching runs by outcome",
		},
		[]string{"outcome"},
	)

	MatchingRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_run_duration_seconds",
			Help:    "End-to-end duration of a matching run",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	CandidatesScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_candidates_scored",
			Help:    "Candidate pool size per matching run",
			Buckets: []float64{0, 10, 25, 50, 100, 150, 200},
		},
	)

	CandidateScoringFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_candidate_scoring_failures_total",
			Help: "Candidates skipped because scoring panicked",
		},
	)

	MatchTypesSelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_selected_total",
			Help: "Selected candidates by match type",
		},
		[]string{"match_type"},
	)

	RelationshipLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_relationship_lookup_failures_total",
			Help: "Relationship lookups that degraded to an empty status",
		},
	)

	ActivityEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_activity_events_dropped_total",
			Help: "Activity events not delivered to a sink",
		},
		[]string{"sink", "reason"},
	)

	ProfileCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_profile_cache_lookups_total",
			Help: "Requester profile cache lookups by result",
		},
		[]string{"result"},
	)
)
