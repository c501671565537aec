package metrics

import "github.com/prometheus/client_golang/prometheus"

// Research pipeline Prometheus metrics.
var (
	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "researchd",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.25, 1, 5, 15, 30, 60, 180},
		},
		[]string{"stage"},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "researchd",
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs by intent and confidence label",
		},
		[]string{"intent", "confidence"},
	)

	GatherSourceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "researchd",
			Name:      "gather_source_failures_total",
			Help:      "Evidence source failures during GATHER",
		},
		[]string{"source"},
	)

	RetrievalResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "researchd",
			Name:      "retrieval_results",
			Help:      "Number of candidates returned per hybrid retrieval",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	RetrievalDegraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "researchd",
			Name:      "retrieval_degraded_total",
			Help:      "Retrieval steps skipped due to unavailable capabilities",
		},
		[]string{"step"},
	)
)

// Embedding provider metrics, recorded at the transport layer.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "researchd",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "researchd",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)
)

var researchMetricsRegistered bool

// RegisterResearchMetrics registers pipeline metrics. Must be called once from main.
func RegisterResearchMetrics() {
	if researchMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(GatherSourceFailures)
	prometheus.MustRegister(RetrievalResults)
	prometheus.MustRegister(RetrievalDegraded)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	researchMetricsRegistered = true
}
