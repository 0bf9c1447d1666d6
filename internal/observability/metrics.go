package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	UpstreamLLM       = "llm"
	UpstreamPredictor = "predictor"
)

var (
	// HTTPRequestsTotal counts finished requests by route template, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// UpstreamFailuresTotal counts failed calls to the hosted LLM and predictor.
	UpstreamFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_failures_total",
		Help: "Total number of failed upstream calls",
	}, []string{"upstream"})
)

func RecordUpstreamFailure(upstream string) {
	UpstreamFailuresTotal.WithLabelValues(upstream).Inc()
}
