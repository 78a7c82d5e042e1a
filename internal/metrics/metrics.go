// README: Prometheus metrics for admission control, security events, and job outcomes.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlas_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	RejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_rejections_total",
			Help: "Requests rejected at admission, by reason class",
		},
		[]string{"class"},
	)

	SecurityEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_security_events_total",
			Help: "Injection signatures detected, by field",
		},
		[]string{"field"},
	)

	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_rate_limit_rejected_total",
			Help: "Requests rejected by the rate limiter, by limiter name",
		},
		[]string{"limiter"},
	)

	JobsTerminalTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_jobs_terminal_total",
			Help: "Jobs reaching a terminal state, by status and failure reason",
		},
		[]string{"status", "reason"},
	)

	ProviderCallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "atlas_provider_call_duration_seconds",
			Help:    "Duration of external LLM calls",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 90, 120},
		},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(RejectionsTotal)
	prometheus.MustRegister(SecurityEventsTotal)
	prometheus.MustRegister(RateLimitRejectedTotal)
	prometheus.MustRegister(JobsTerminalTotal)
	prometheus.MustRegister(ProviderCallDuration)
}
