package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "felix_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "felix_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "felix_chat_turns_total",
			Help: "Total number of chat turns processed.",
		},
		[]string{"status"},
	)

	SearchAugmentationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "felix_search_augmentations_total",
			Help: "Search augmentation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	CompletionRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "felix_completion_request_duration_seconds",
			Help:    "Completion provider call duration in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)

	TTSSynthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "felix_tts_synthesis_total",
			Help: "Speech synthesis attempts by outcome.",
		},
		[]string{"outcome"},
	)

	RateLimitRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "felix_rate_limit_rejections_total",
			Help: "Chat requests rejected by the per-user rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChatTurnsTotal,
		SearchAugmentationsTotal,
		CompletionRequestDuration,
		TTSSynthesisTotal,
		RateLimitRejectionsTotal,
	)
}
