package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vehicle_info_bot"

var (
	messagesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Count of handled chat messages by kind (ignored, help, lookup, command, error).",
		},
		[]string{"kind"},
	)
	lookupsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Count of plate lookups by outcome.",
		},
		[]string{"outcome"},
	)
	registryQueriesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_queries_total",
			Help:      "Count of registry queries by resource and result.",
		},
		[]string{"resource", "result"},
	)
	registryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_query_duration_seconds",
			Help:      "Latency of registry queries.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"resource"},
	)
)

var registerMetrics sync.Once

// Register adds all collectors to reg. Subsequent calls are no-ops.
func Register(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(messagesCounter)
		reg.MustRegister(lookupsCounter)
		reg.MustRegister(registryQueriesCounter)
		reg.MustRegister(registryLatency)
	})
}

// RecordMessage counts a handled chat message.
func RecordMessage(kind string) {
	messagesCounter.WithLabelValues(kind).Inc()
}

// RecordLookup counts a finished lookup.
func RecordLookup(outcome string) {
	lookupsCounter.WithLabelValues(outcome).Inc()
}

// RecordRegistryQuery counts one registry query and observes its latency.
func RecordRegistryQuery(resource, result string, seconds float64) {
	registryQueriesCounter.WithLabelValues(resource, result).Inc()
	registryLatency.WithLabelValues(resource).Observe(seconds)
}
