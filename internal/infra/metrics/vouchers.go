package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		vouchersIssuedTotal,
		vouchersConsumedTotal,
		vouchersExpiredTotal,
	)
}

var (
	vouchersIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vouchers_issued_total",
			Help: "Vouchers created, across all issuance paths (purchase/demo/admin).",
		},
	)

	vouchersConsumedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vouchers_consumed_total",
			Help: "Vouchers marked used after a confirmed network grant.",
		},
	)

	vouchersExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vouchers_expired_total",
			Help: "Vouchers transitioned to expired, lazily or by the sweep worker.",
		},
	)
)

func IncVoucherIssued() {
	vouchersIssuedTotal.Inc()
}

func IncVoucherConsumed() {
	vouchersConsumedTotal.Inc()
}

func IncVoucherExpired(n int) {
	if n > 0 {
		vouchersExpiredTotal.Add(float64(n))
	}
}
