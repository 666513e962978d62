package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbConns, dbAcquireWait) }

var (
	dbConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "settlement_db_connections",
			Help: "Postgres pool connections by state.",
		},
		[]string{"state"}, // max|total|idle|acquired
	)
	dbAcquireWait = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_db_acquire_wait_seconds",
		Help: "Cumulative time spent waiting for a pool connection.",
	})
)

// PoolSnapshot is the subset of pgxpool.Stat the gauges need.
type PoolSnapshot struct {
	Max, Total, Idle, Acquired int32
	AcquireWaitSeconds         float64
}

func SetDBPool(s PoolSnapshot) {
	dbConns.WithLabelValues("max").Set(float64(s.Max))
	dbConns.WithLabelValues("total").Set(float64(s.Total))
	dbConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbConns.WithLabelValues("acquired").Set(float64(s.Acquired))
	dbAcquireWait.Set(s.AcquireWaitSeconds)
}
