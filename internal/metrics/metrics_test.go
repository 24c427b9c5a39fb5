package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("/api/reservas", "200")
		IncRateLimited()
	})

	before := testutil.ToFloat64(reservationOps.WithLabelValues("create", "ok"))
	IncReservationOp("create", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(reservationOps.WithLabelValues("create", "ok")))

	SetReservations(4)
	assert.Equal(t, float64(4), testutil.ToFloat64(reservationsCurrent))
}
