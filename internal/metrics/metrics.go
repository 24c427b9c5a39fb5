package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reservas"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	reservationOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_operations_total",
			Help:      "Reservation store operations by result.",
		},
		[]string{"op", "result"},
	)

	reservationsCurrent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reservations_current",
			Help:      "Reservations currently held in memory.",
		},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservationOps, reservationsCurrent, rateLimited)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint, code string) {
	httpRequests.WithLabelValues(endpoint, code).Inc()
}

// IncReservationOp records a store operation; result is "ok" or "not_found".
func IncReservationOp(op, result string) {
	reservationOps.WithLabelValues(op, result).Inc()
}

func SetReservations(n int) {
	reservationsCurrent.Set(float64(n))
}

func IncRateLimited() {
	rateLimited.Inc()
}
