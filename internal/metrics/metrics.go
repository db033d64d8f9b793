// Package metrics exposes Prometheus collectors for the suggestion engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Candidate outcomes recorded by CandidatesEvaluated.
const (
	OutcomeEmitted        = "emitted"
	OutcomeNoMatch        = "no_match"
	OutcomeBelowThreshold = "below_threshold"
	OutcomeMalformed      = "malformed"
)

// Cache results recorded by CandidateCacheRequests.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	SuggestionComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symbiose_suggestion_computations_total",
			Help: "Total number of suggestion computations by mode",
		},
		[]string{"mode"},
	)

	SuggestionComputationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "symbiose_suggestion_computation_seconds",
			Help:    "Duration of suggestion computations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	CandidatesEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symbiose_candidates_evaluated_total",
			Help: "Candidate companies evaluated, by outcome",
		},
		[]string{"outcome"},
	)

	InteractionWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "symbiose_interaction_write_failures_total",
			Help: "Interaction upserts that failed during persist-mode computations",
		},
	)

	InteractionStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symbiose_interaction_status_changes_total",
			Help: "User-driven interaction status changes, by target status",
		},
		[]string{"status"},
	)

	CandidateCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symbiose_candidate_cache_requests_total",
			Help: "Candidate cache lookups, by result",
		},
		[]string{"result"},
	)
)

// Mode returns the computation mode label.
func Mode(persist bool) string {
	if persist {
		return "persist"
	}
	return "read_only"
}
