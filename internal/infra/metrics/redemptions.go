package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		redemptionsTotal,
		redemptionSessionSeconds,
	)
}

var (
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Portal login attempts by outcome (success/rejected/expired/used/unavailable/...).",
		},
		[]string{"outcome"},
	)

	redemptionSessionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "redemption_session_seconds",
			Help:    "Session durations requested from the controller on successful logins.",
			Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400, 28800, 86400},
		},
	)
)

func IncRedemption(outcome string) {
	redemptionsTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveSessionSeconds(session int) {
	redemptionSessionSeconds.Observe(float64(session))
}
