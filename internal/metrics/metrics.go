package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SwapsTotal counts execute attempts by backend and outcome.
	SwapsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_swaps_total",
			Help: "Swap execute attempts by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)

	// QuotesTotal counts quote requests by backend and outcome.
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_quotes_total",
			Help: "Quote requests by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)

	SwapDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_swap_duration_seconds",
			Help:    "End-to-end swap execute duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"backend"},
	)

	// RPCRequestsTotal tracks outbound JSON-RPC calls.
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_rpc_requests_total",
			Help: "Solana JSON-RPC calls by method and status.",
		},
		[]string{"method", "status"},
	)
)

func IncSwap(backend, outcome string) {
	SwapsTotal.WithLabelValues(backend, outcome).Inc()
}

func IncQuote(backend, outcome string) {
	QuotesTotal.WithLabelValues(backend, outcome).Inc()
}

func IncRPC(method, status string) {
	RPCRequestsTotal.WithLabelValues(method, status).Inc()
}

// ObserveSwap records elapsed time since start for backend.
func ObserveSwap(backend string, start time.Time) {
	SwapDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}
