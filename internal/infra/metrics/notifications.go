package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(notificationsTotal)
}

var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Outbound notifications by channel and delivery result.",
	},
	[]string{"channel", "success"},
)

func IncNotification(channel string, ok bool) {
	notificationsTotal.WithLabelValues(norm(channel), strconv.FormatBool(ok)).Inc()
}
