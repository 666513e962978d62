package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(webhookEventsTotal, webhookDuration)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Gateway webhook deliveries by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	webhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_duration_seconds",
			Help:    "Time spent reconciling one webhook delivery.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

func IncWebhookEvent(provider, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
}

func ObserveWebhookDuration(provider string, d time.Duration) {
	webhookDuration.WithLabelValues(norm(provider)).Observe(d.Seconds())
}
