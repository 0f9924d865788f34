package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRegistered(t *testing.T) {
	OrdersPlaced.Inc()
	if v := testutil.ToFloat64(OrdersPlaced); v < 1 {
		t.Fatalf("expected orders_placed_total >= 1, got %f", v)
	}
	OrdersTerminal.WithLabelValues("filled").Inc()
	if v := testutil.ToFloat64(OrdersTerminal.WithLabelValues("filled")); v != 1 {
		t.Fatalf("expected one filled order recorded, got %f", v)
	}
}
