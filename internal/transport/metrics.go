package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for requestsTotal.
const (
	outcomeOK       = "ok"
	outcomeStatus   = "status_error"
	outcomeNetwork  = "network_error"
	outcomeSetup    = "setup_error"
	outcomeRejected = "rejected"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finance_client_requests_total",
		Help: "Requests issued by the finance client, labeled by method and outcome",
	}, []string{"method", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finance_client_request_duration_seconds",
		Help:    "Latency of finance service calls",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method"})
)
