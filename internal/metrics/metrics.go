package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviemate",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moviemate",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviemate",
		Name:      "upstream_requests_total",
		Help:      "Total requests to upstream APIs by service and result status.",
	}, []string{"service", "status"})

	UpstreamRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moviemate",
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream API request duration in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"service"})

	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviemate",
		Name:      "cache_hits_total",
		Help:      "Total number of response cache hits by operation.",
	}, []string{"operation"})

	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviemate",
		Name:      "cache_misses_total",
		Help:      "Total number of response cache misses by operation.",
	}, []string{"operation"})

	FanoutDropsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviemate",
		Name:      "fanout_dropped_total",
		Help:      "Fan-out sub-calls whose contribution was dropped, by operation.",
	}, []string{"operation"})

	ModelFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "moviemate",
		Name:      "model_fallbacks_total",
		Help:      "Generative requests that fell back from the primary to the stable model.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		FanoutDropsTotal,
		ModelFallbacksTotal,
	)
}
