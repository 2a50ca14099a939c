package metrics

import "github.com/prometheus/client_golang/prometheus"

// Upstream source and aggregation Prometheus metrics.
var (
	SourceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrisearch",
			Name:      "source_requests_total",
			Help:      "Total number of upstream nutrition source requests",
		},
		[]string{"source", "operation", "status"},
	)

	SourceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nutrisearch",
			Name:      "source_request_duration_seconds",
			Help:      "Upstream nutrition source request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source", "operation"},
	)

	AggregatedFoods = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nutrisearch",
			Name:      "aggregated_foods",
			Help:      "Number of deduplicated foods per aggregation before pagination",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 200},
		},
		[]string{"operation"},
	)

	DuplicateFoodsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nutrisearch",
			Name:      "duplicate_foods_total",
			Help:      "Foods dropped by cross-source deduplication",
		},
	)

	EstimatorTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrisearch",
			Name:      "estimator_tokens_total",
			Help:      "Tokens consumed by the LLM nutrient estimator",
		},
		[]string{"model", "type"}, // prompt|completion|total
	)

	EstimatorBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "nutrisearch",
			Name:      "estimator_budget_tokens_remaining",
			Help:      "Estimator tokens left in the current period (-1 when unlimited)",
		},
		[]string{"source", "period"}, // daily|monthly
	)

	VerificationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrisearch",
			Name:      "verification_total",
			Help:      "Verification code operations by outcome",
		},
		[]string{"operation", "outcome"}, // issue|verify, ok|invalid|expired|too_many|error
	)
)

var domainMetricsRegistered bool

// RegisterDomainMetrics registers source, aggregation and verification metrics.
// Must be called once from main.
func RegisterDomainMetrics() {
	if domainMetricsRegistered {
		return
	}
	prometheus.MustRegister(SourceRequestsTotal)
	prometheus.MustRegister(SourceRequestDuration)
	prometheus.MustRegister(AggregatedFoods)
	prometheus.MustRegister(DuplicateFoodsTotal)
	prometheus.MustRegister(EstimatorTokensTotal)
	prometheus.MustRegister(EstimatorBudgetTokensRemaining)
	prometheus.MustRegister(VerificationTotal)
	domainMetricsRegistered = true
}
