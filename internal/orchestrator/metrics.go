package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// invocationsTotal counts provider attempts.
	// Labels: category, provider, result (success, error)
	invocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "brandforge",
			Subsystem: "orchestrator",
			Name:      "invocations_total",
			Help:      "Total number of provider invocation attempts",
		},
		[]string{"category", "provider", "result"},
	)

	// fallbacksTotal counts invocations served by a non-preferred provider.
	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "brandforge",
			Subsystem: "orchestrator",
			Name:      "fallbacks_total",
			Help:      "Total number of invocations served by a fallback provider",
		},
		[]string{"category"},
	)

	// exhaustionsTotal counts invocations where every provider failed.
	exhaustionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "brandforge",
			Subsystem: "orchestrator",
			Name:      "exhaustions_total",
			Help:      "Total number of invocations that exhausted the fallback chain",
		},
		[]string{"category"},
	)

	// invocationDuration tracks successful generation latency.
	invocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "brandforge",
			Subsystem: "orchestrator",
			Name:      "invocation_duration_seconds",
			Help:      "Duration of successful provider invocations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// providerHealthy indicates last known provider health (1=healthy).
	providerHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "brandforge",
			Subsystem: "orchestrator",
			Name:      "provider_healthy",
			Help:      "Last known provider health (1=healthy, 0=unhealthy)",
		},
		[]string{"provider"},
	)

	// registeredProviders is the current registry size.
	registeredProviders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "brandforge",
			Subsystem: "orchestrator",
			Name:      "registered_providers",
			Help:      "Number of registered model providers",
		},
	)
)
