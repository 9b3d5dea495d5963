package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Reconciliation metrics
	ReconcileInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reduct_operator_reconcile_invocations_total",
			Help: "Total number of reconcile invocations by outcome",
		},
		[]string{"outcome"},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reduct_operator_reconcile_duration_seconds",
			Help:    "Duration of one full reconcile invocation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MutationsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reduct_operator_mutations_applied_total",
			Help: "Total number of remote mutations applied by kind",
		},
		[]string{"kind"},
	)

	MutationRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reduct_operator_mutation_retries_total",
			Help: "Total number of mutation retries after transient errors",
		},
	)

	// Read metrics
	ReadFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reduct_operator_read_failures_total",
			Help: "Total number of failed observed-state reads by source",
		},
		[]string{"source"},
	)

	// Relation metrics
	RelationsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reduct_operator_relations_published_total",
			Help: "Total number of relation data publications by role",
		},
		[]string{"role"},
	)

	// Workload metrics (daemon mode readiness probe)
	WorkloadUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reduct_operator_workload_up",
			Help: "Whether the managed workload answers its readiness probe (1 = up)",
		},
	)
)

func init() {
	prometheus.MustRegister(ReconcileInvocationsTotal)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(MutationsAppliedTotal)
	prometheus.MustRegister(MutationRetriesTotal)
	prometheus.MustRegister(ReadFailuresTotal)
	prometheus.MustRegister(RelationsPublishedTotal)
	prometheus.MustRegister(WorkloadUp)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
