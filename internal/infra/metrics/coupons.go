package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(couponRedemptionsTotal, refundRequestsTotal) }

var couponRedemptionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "coupon_redemptions_total",
		Help: "Coupon apply attempts by result.",
	},
	[]string{"result"}, // 'applied', 'exhausted', 'already_used', ...
)

var refundRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "refund_requests_total",
		Help: "Refund workflow actions by result.",
	},
	[]string{"action", "result"},
)

func IncCouponRedemption(result string) {
	couponRedemptionsTotal.WithLabelValues(norm(result)).Inc()
}

func IncRefundRequest(action, result string) {
	refundRequestsTotal.WithLabelValues(norm(action), norm(result)).Inc()
}
