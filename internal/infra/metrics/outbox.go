package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(outboxPublishedTotal, cacheRequestsTotal) }

var outboxPublishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events relayed to the broker, by result.",
	},
	[]string{"result"},
)

var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "settings_cache_requests_total",
		Help: "Platform settings cache hits and misses.",
	},
	[]string{"result"},
)

func IncOutboxPublished(result string) {
	outboxPublishedTotal.WithLabelValues(norm(result)).Inc()
}

func IncSettingsCache(result string) {
	cacheRequestsTotal.WithLabelValues(norm(result)).Inc()
}
