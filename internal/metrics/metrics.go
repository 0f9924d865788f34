package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "orders_placed_total", Help: "Orders accepted by the book"},
	)
	OrdersTerminal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_terminal_total", Help: "Orders reaching a terminal state"},
		[]string{"status"},
	)
	ActiveOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "orders_active", Help: "Orders currently registered"},
	)
	PricePolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "price_polls_total", Help: "Price oracle polls"},
		[]string{"outcome"},
	)
	BundlesSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bundles_submitted_total", Help: "Tip bundles sent to the relay"},
	)
)

func init() {
	prometheus.MustRegister(OrdersPlaced, OrdersTerminal, ActiveOrders, PricePolls, BundlesSubmitted)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
