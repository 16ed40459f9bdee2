package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsReserved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sorteo_tickets_reserved_total",
			Help: "Tickets reserved, by selection kind and outcome",
		},
		[]string{"kind", "status"},
	)

	paymentsConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sorteo_payments_confirmed_total",
			Help: "Gateway confirmations processed, by gateway and outcome",
		},
		[]string{"gateway", "outcome"},
	)

	walletPayments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sorteo_wallet_payments_total",
			Help: "Wallet balance payments, by outcome",
		},
		[]string{"status"},
	)

	ticketsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sorteo_tickets_expired_total",
			Help: "Pending tickets reclaimed by the expiry sweeper",
		},
	)

	drawsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sorteo_draws_recorded_total",
			Help: "Draw results recorded, by prize tier and winner presence",
		},
		[]string{"tier", "won"},
	)
)

func TicketReserved(kind, status string) {
	ticketsReserved.WithLabelValues(kind, status).Inc()
}

func PaymentConfirmed(gateway, outcome string) {
	paymentsConfirmed.WithLabelValues(gateway, outcome).Inc()
}

func WalletPayment(status string) {
	walletPayments.WithLabelValues(status).Inc()
}

func TicketsExpired(n int64) {
	ticketsExpired.Add(float64(n))
}

func DrawRecorded(tier string, won bool) {
	w := "no"
	if won {
		w = "yes"
	}
	drawsRecorded.WithLabelValues(tier, w).Inc()
}
