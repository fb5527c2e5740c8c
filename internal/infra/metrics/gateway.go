package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(gatewayGrantLatencyMs)
}

var gatewayGrantLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gateway_grant_latency_ms",
		Help:    "Controller grant call latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
	},
	[]string{"gateway", "status"},
)

func ObserveGrantLatency(gateway, status string, d time.Duration) {
	gatewayGrantLatencyMs.WithLabelValues(norm(gateway), norm(status)).
		Observe(float64(d.Milliseconds()))
}
