package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream fetches
var (
	// FetchTotal counts upstream calls by source and result (ok, error).
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feargreed_upstream_fetch_total",
			Help: "Upstream fetches by source and result",
		},
		[]string{"source", "result"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feargreed_upstream_fetch_duration_seconds",
			Help:    "Upstream fetch duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)
)

// Caches
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feargreed_cache_hits_total",
			Help: "Requests served from a fresh cache entry, by cache and key",
		},
		[]string{"cache", "key"},
	)

	// FallbacksTotal counts degraded answers: kind is stale or mock.
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feargreed_fallbacks_total",
			Help: "Responses served from stale cache or mock data",
		},
		[]string{"cache", "key", "kind"},
	)
)

// Readings
var (
	IndexValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feargreed_index_value",
			Help: "Most recent index value by mode",
		},
		[]string{"mode"},
	)

	ListenerNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feargreed_listener_notifications_total",
			Help: "Fresh readings delivered to subscribers",
		},
	)

	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feargreed_subscribers_current",
			Help: "Currently registered reading subscribers",
		},
	)
)
