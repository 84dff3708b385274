package migas

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded in requestsTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeDisabled = "disabled"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migas_requests_total",
			Help: "Total number of migas operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	transportErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migas_transport_errors_total",
			Help: "Total number of migas requests that got no response",
		},
		[]string{"operation"},
	)
)
