package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every settlement collector plus the Go runtime and process
// collectors. Using a private registry keeps tests free of global state.
var Registry = prometheus.NewRegistry()

var (
	once    sync.Once
	pending []prometheus.Collector
)

// register queues collectors from each file's init until MustRegister runs.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister adds the queued collectors to Registry. Safe to call twice.
func MustRegister() {
	once.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		Registry.MustRegister(pending...)
	})
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
