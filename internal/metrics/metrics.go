package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Paraphrase metrics.
var (
	ParaphraseResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paraphrase_results_total",
		Help: "Paraphrase calls by prompt mode and result kind",
	}, []string{"mode", "result"})

	CompletionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paraphrase_completion_duration_seconds",
		Help:    "Completion request duration in seconds by provider",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 180},
	}, []string{"provider"})
)

// Web server metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paraphrase_http_requests_total",
		Help: "Total HTTP requests by route, method, and status code",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paraphrase_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 30, 180},
	}, []string{"route", "method"})

	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paraphrase_rate_limit_hits_total",
		Help: "Total rate limit rejections",
	})
)
