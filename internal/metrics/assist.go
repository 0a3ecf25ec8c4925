package metrics

import "github.com/prometheus/client_golang/prometheus"

// Assist Prometheus metrics.
var (
	AssistRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "assist_requests_total",
			Help:      "Total number of assist completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	AssistRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdex",
			Name:      "assist_request_duration_seconds",
			Help:      "Assist completion request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	AssistTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "assist_tokens_total",
			Help:      "Total assist tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	AssistErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "assist_errors_total",
			Help:      "Total assist errors",
		},
		[]string{"provider", "model", "error_type"},
	)
)

var assistMetricsRegistered bool

// RegisterAssistMetrics registers Prometheus assist metrics. Must be called once from main.
func RegisterAssistMetrics() {
	if assistMetricsRegistered {
		return
	}
	prometheus.MustRegister(AssistRequestsTotal)
	prometheus.MustRegister(AssistRequestDuration)
	prometheus.MustRegister(AssistTokensTotal)
	prometheus.MustRegister(AssistErrorsTotal)
	assistMetricsRegistered = true
}
